// Package vector implements a dynamic array of fixed-size byte payloads.
//
// Elements are stored contiguously in a single buffer that is reallocated with doubled capacity
// when it runs out of slots. Appends are amortized O(1); inserting or erasing anywhere else
// shifts the following elements.
package vector

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/teenjuna/scl"
	"github.com/teenjuna/scl/alloc"
	"github.com/teenjuna/scl/internal"
	"github.com/teenjuna/scl/internal/metrics"
)

// Vector is a dynamic array of byte payloads of one fixed size.
//
// Slots [0, Len) hold the elements, slots [Len, Cap) are unspecified.
//
// A Vector is not safe for concurrent use. An instance can be created only by the [New] function.
type Vector struct {
	allocator alloc.Allocator
	logger    *slog.Logger
	metrics   *metrics.Metrics

	buf         []byte
	elemSize    int
	size        int
	capacity    int
	minCapacity int
	closed      bool
}

// New creates an empty vector of elements of elemSize bytes. The element size can't be changed
// later. Default configuration:
//   - Allocator: [alloc.Heap]
//   - Logger: discards everything
//   - Prometheus: disabled
//   - Capacity: 4
//
// No memory is allocated until the first insertion or [Vector.Reserve].
func New(elemSize int, configFuncs ...ConfigFunc) (*Vector, error) {
	if elemSize < 1 {
		return nil, fmt.Errorf("element size %d: %w", elemSize, scl.ErrInvalidArgument)
	}

	cfg := newConfig(configFuncs...)
	res := internal.Resolve(&cfg.Config, "vector")

	return &Vector{
		allocator:   res.Allocator,
		logger:      res.Logger,
		metrics:     res.Metrics,
		elemSize:    elemSize,
		minCapacity: cfg.capacity,
	}, nil
}

// Empty reports whether the vector has no elements.
func (v *Vector) Empty() bool {
	return v.size == 0
}

// Len returns the number of elements.
func (v *Vector) Len() int {
	return v.size
}

// Cap returns the number of allocated slots.
func (v *Vector) Cap() int {
	return v.capacity
}

// ElemSize returns the size of every element in bytes.
func (v *Vector) ElemSize() int {
	return v.elemSize
}

// At copies the element at index into dst. It copies min(len(dst), element size) bytes.
func (v *Vector) At(index int, dst []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if index < 0 || index >= v.size {
		return fmt.Errorf("at: %w", v.outOfRange(index))
	}
	copy(dst, v.slot(index))
	return nil
}

// Front copies the first element into dst.
func (v *Vector) Front(dst []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.size == 0 {
		return fmt.Errorf("front: %w", scl.ErrUnderflow)
	}
	copy(dst, v.slot(0))
	return nil
}

// Back copies the last element into dst.
func (v *Vector) Back(dst []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.size == 0 {
		return fmt.Errorf("back: %w", scl.ErrUnderflow)
	}
	copy(dst, v.slot(v.size-1))
	return nil
}

// Insert inserts a copy of payload before the element at index, which must be in [0, Len]. The
// payload must be exactly [Vector.ElemSize] bytes long. On error the vector is unchanged.
func (v *Vector) Insert(index int, payload []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if len(payload) != v.elemSize {
		v.metrics.Reject("invalid_argument")
		return fmt.Errorf(
			"insert: payload of %d bytes, element size %d: %w",
			len(payload), v.elemSize, scl.ErrInvalidArgument,
		)
	}
	if index < 0 || index > v.size {
		return fmt.Errorf("insert: %w", v.outOfRange(index))
	}
	if v.size == v.capacity {
		if err := v.grow(v.size + 1); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	es := v.elemSize
	copy(v.buf[(index+1)*es:(v.size+1)*es], v.buf[index*es:v.size*es])
	copy(v.slot(index), payload)

	v.size++
	v.metrics.Insert(1)
	v.metrics.Len(v.size)
	return nil
}

// Erase removes the element at index, which must be in [0, Len).
func (v *Vector) Erase(index int) error {
	if v.closed {
		return scl.ErrClosed
	}
	if index < 0 || index >= v.size {
		return fmt.Errorf("erase: %w", v.outOfRange(index))
	}
	v.erase(index)
	return nil
}

// PushFront inserts a copy of payload at index 0. It shifts every element.
func (v *Vector) PushFront(payload []byte) error {
	return v.Insert(0, payload)
}

// PushBack appends a copy of payload.
func (v *Vector) PushBack(payload []byte) error {
	return v.Insert(v.size, payload)
}

// PopFront removes the first element and copies it into dst, which may be nil. It shifts every
// remaining element.
func (v *Vector) PopFront(dst []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.size == 0 {
		v.metrics.Reject("underflow")
		return fmt.Errorf("pop front: %w", scl.ErrUnderflow)
	}
	copy(dst, v.slot(0))
	v.erase(0)
	return nil
}

// PopBack removes the last element and copies it into dst, which may be nil.
func (v *Vector) PopBack(dst []byte) error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.size == 0 {
		v.metrics.Reject("underflow")
		return fmt.Errorf("pop back: %w", scl.ErrUnderflow)
	}
	copy(dst, v.slot(v.size-1))
	v.erase(v.size - 1)
	return nil
}

// ForEach calls fn for every element from first to last. A nil fn is a no-op.
//
// The element slice aliases the vector's storage. It is only valid during the call and must not
// be retained. fn must not modify the vector.
func (v *Vector) ForEach(fn func(index int, elem []byte)) {
	if fn == nil {
		return
	}
	for i, elem := range v.All() {
		fn(i, elem)
	}
}

// ForEachReverse is like [Vector.ForEach] but goes from the last element to the first.
func (v *Vector) ForEachReverse(fn func(index int, elem []byte)) {
	if fn == nil {
		return
	}
	for i, elem := range v.Backward() {
		fn(i, elem)
	}
}

// All returns a sequence of indices and elements from first to last.
func (v *Vector) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := range v.size {
			if !yield(i, v.slot(i)) {
				return
			}
		}
	}
}

// Backward returns a sequence of indices and elements from last to first.
func (v *Vector) Backward() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.slot(i)) {
				return
			}
		}
	}
}

// Reverse reverses the order of elements in place.
func (v *Vector) Reverse() {
	for i, j := 0, v.size-1; i < j; i, j = i+1, j-1 {
		a, b := v.slot(i), v.slot(j)
		for k := range a {
			a[k], b[k] = b[k], a[k]
		}
	}
}

// Find returns the index of the first element equal to payload byte by byte. It returns -1 and
// [scl.ErrNotFound] if there is none.
func (v *Vector) Find(payload []byte) (int, error) {
	return v.FindFunc(payload, bytes.Equal)
}

// FindFunc returns the index of the first element for which match(stored, search) reports true.
// It returns -1 and [scl.ErrInvalidArgument] if match is nil, and -1 and [scl.ErrNotFound] if no
// element matches.
func (v *Vector) FindFunc(search []byte, match func(stored, search []byte) bool) (int, error) {
	if v.closed {
		return -1, scl.ErrClosed
	}
	if match == nil {
		return -1, fmt.Errorf("find: match func is nil: %w", scl.ErrInvalidArgument)
	}
	for i := range v.size {
		if match(v.slot(i), search) {
			return i, nil
		}
	}
	return -1, scl.ErrNotFound
}

// Reserve makes sure the vector has at least n slots. On error the vector is unchanged.
func (v *Vector) Reserve(n int) error {
	if v.closed {
		return scl.ErrClosed
	}
	if n < 0 {
		return fmt.Errorf("reserve %d: %w", n, scl.ErrInvalidArgument)
	}
	if n <= v.capacity {
		return nil
	}
	if err := v.realloc(n); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	return nil
}

// ShrinkToFit reallocates the buffer to exactly [Vector.Len] slots. An empty vector releases its
// buffer. On error the vector is unchanged.
func (v *Vector) ShrinkToFit() error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.size == v.capacity {
		return nil
	}
	if v.size == 0 {
		v.allocator.Free(v.buf)
		v.logger.Debug("released", slog.Int("from", v.capacity))
		v.buf = nil
		v.capacity = 0
		v.metrics.Cap(0)
		return nil
	}
	if err := v.realloc(v.size); err != nil {
		return fmt.Errorf("shrink: %w", err)
	}
	return nil
}

// Clear removes all elements. The buffer is kept.
func (v *Vector) Clear() {
	if v.closed {
		return
	}
	v.metrics.Remove(v.size)
	v.metrics.Len(0)
	v.size = 0
}

// Close releases the buffer. Any further call returns [scl.ErrClosed].
func (v *Vector) Close() error {
	if v.closed {
		return scl.ErrClosed
	}
	if v.buf != nil {
		v.allocator.Free(v.buf)
	}
	v.logger.Debug("closed", slog.Int("size", v.size), slog.Int("capacity", v.capacity))

	v.metrics.Remove(v.size)
	v.metrics.Len(0)
	v.metrics.Cap(0)

	v.buf = nil
	v.size = 0
	v.capacity = 0
	v.closed = true
	return nil
}

func (v *Vector) slot(i int) []byte {
	return v.buf[i*v.elemSize : (i+1)*v.elemSize]
}

func (v *Vector) erase(index int) {
	es := v.elemSize
	copy(v.buf[index*es:], v.buf[(index+1)*es:v.size*es])
	v.size--
	v.metrics.Remove(1)
	v.metrics.Len(v.size)
}

func (v *Vector) outOfRange(index int) error {
	v.metrics.Reject("out_of_range")
	return fmt.Errorf("index %d with size %d: %w", index, v.size, scl.ErrOutOfRange)
}

// grow doubles the capacity, starting from the configured minimum, until it fits need slots.
func (v *Vector) grow(need int) error {
	capacity := max(v.minCapacity, double(v.capacity))
	for capacity < need {
		capacity = double(capacity)
	}
	return v.realloc(capacity)
}

// double saturates at [math.MaxInt].
func double(n int) int {
	if n > math.MaxInt/2 {
		return math.MaxInt
	}
	return n * 2
}

// realloc moves the elements into a new buffer of capacity slots. The old buffer is released only
// after the new one is filled, so a failed allocation leaves the vector untouched.
func (v *Vector) realloc(capacity int) error {
	if capacity > math.MaxInt/v.elemSize {
		v.metrics.AllocationFailure()
		return fmt.Errorf(
			"allocate %d slots of %d bytes: size overflows int: %w: %w",
			capacity, v.elemSize, scl.ErrAllocation, alloc.ErrExhausted,
		)
	}
	buf, err := v.allocator.Alloc(capacity * v.elemSize)
	if err != nil {
		v.metrics.AllocationFailure()
		v.logger.Debug("allocation failed", slog.Int("capacity", capacity), slog.Any("err", err))
		return fmt.Errorf("allocate %d slots: %w: %w", capacity, scl.ErrAllocation, err)
	}
	copy(buf, v.buf[:v.size*v.elemSize])
	if v.buf != nil {
		v.allocator.Free(v.buf)
	}
	v.logger.Debug("reallocated", slog.Int("from", v.capacity), slog.Int("to", capacity))

	if capacity > v.capacity {
		v.metrics.Grow()
	}
	v.buf = buf
	v.capacity = capacity
	v.metrics.Cap(capacity)
	return nil
}
