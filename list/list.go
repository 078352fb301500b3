// Package list implements a doubly linked list of byte payloads.
//
// Each element owns a copy of the payload it was inserted with. Payloads may differ in size
// between elements. Ends are updated in O(1); indexed operations walk from the head.
package list

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"

	"github.com/teenjuna/scl"
	"github.com/teenjuna/scl/alloc"
	"github.com/teenjuna/scl/internal"
	"github.com/teenjuna/scl/internal/metrics"
)

// handle is the index of a node in the arena.
type handle int

const none handle = -1

type node struct {
	payload []byte
	prev    handle
	next    handle
}

// List is a doubly linked list of byte payloads.
//
// Nodes live in an arena and are linked by handles. The list owns every node; links are used for
// navigation only. Slots of removed nodes are reused by later insertions.
//
// A List is not safe for concurrent use. An instance can be created only by the [New] function.
type List struct {
	allocator alloc.Allocator
	logger    *slog.Logger
	metrics   *metrics.Metrics

	nodes  []node
	free   []handle
	head   handle
	tail   handle
	size   int
	closed bool
}

// New creates an empty list. Default configuration:
//   - Allocator: [alloc.Heap]
//   - Logger: discards everything
//   - Prometheus: disabled
func New(configFuncs ...ConfigFunc) *List {
	cfg := newConfig(configFuncs...)
	res := internal.Resolve(&cfg.Config, "list")

	return &List{
		allocator: res.Allocator,
		logger:    res.Logger,
		metrics:   res.Metrics,
		head:      none,
		tail:      none,
	}
}

// Len returns the number of elements.
func (l *List) Len() int {
	return l.size
}

// Empty reports whether the list has no elements.
func (l *List) Empty() bool {
	return l.size == 0
}

// At copies the payload of the element at index into dst. It copies min(len(dst), payload size)
// bytes.
func (l *List) At(index int, dst []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	h, err := l.at(index)
	if err != nil {
		return fmt.Errorf("at: %w", err)
	}
	copy(dst, l.nodes[h].payload)
	return nil
}

// Front copies the payload of the first element into dst.
func (l *List) Front(dst []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	if l.head == none {
		return fmt.Errorf("front: %w", scl.ErrUnderflow)
	}
	copy(dst, l.nodes[l.head].payload)
	return nil
}

// Back copies the payload of the last element into dst.
func (l *List) Back(dst []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	if l.tail == none {
		return fmt.Errorf("back: %w", scl.ErrUnderflow)
	}
	copy(dst, l.nodes[l.tail].payload)
	return nil
}

// Insert inserts a copy of payload before the element at index. Index equal to [List.Len]
// appends. On error the list is unchanged.
func (l *List) Insert(index int, payload []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	if index == l.size {
		return l.PushBack(payload)
	}

	at, err := l.at(index)
	if err != nil {
		l.metrics.Reject("out_of_range")
		return fmt.Errorf("insert: %w", err)
	}

	h, err := l.newNode(payload)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	n := &l.nodes[h]
	n.next = at
	n.prev = l.nodes[at].prev
	if l.head == at {
		l.head = h
	} else {
		l.nodes[n.prev].next = h
	}
	l.nodes[at].prev = h

	l.size++
	l.inserted()
	return nil
}

// Erase removes the element at index.
func (l *List) Erase(index int) error {
	if l.closed {
		return scl.ErrClosed
	}
	h, err := l.at(index)
	if err != nil {
		l.metrics.Reject("out_of_range")
		return fmt.Errorf("erase: %w", err)
	}
	l.unlink(h)
	l.release(h)
	l.removed()
	return nil
}

// PushFront inserts a copy of payload at the front. On error the list is unchanged.
func (l *List) PushFront(payload []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	h, err := l.newNode(payload)
	if err != nil {
		return fmt.Errorf("push front: %w", err)
	}

	if l.head == none {
		l.head = h
		l.tail = h
	} else {
		l.nodes[h].next = l.head
		l.nodes[l.head].prev = h
		l.head = h
	}

	l.size++
	l.inserted()
	return nil
}

// PushBack inserts a copy of payload at the back. On error the list is unchanged.
func (l *List) PushBack(payload []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	h, err := l.newNode(payload)
	if err != nil {
		return fmt.Errorf("push back: %w", err)
	}

	if l.tail == none {
		l.head = h
		l.tail = h
	} else {
		l.nodes[h].prev = l.tail
		l.nodes[l.tail].next = h
		l.tail = h
	}

	l.size++
	l.inserted()
	return nil
}

// PopFront removes the first element and copies its payload into dst, which may be nil.
func (l *List) PopFront(dst []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	if l.size == 0 {
		l.metrics.Reject("underflow")
		return fmt.Errorf("pop front: %w", scl.ErrUnderflow)
	}
	h := l.head
	copy(dst, l.nodes[h].payload)
	l.unlink(h)
	l.release(h)
	l.removed()
	return nil
}

// PopBack removes the last element and copies its payload into dst, which may be nil.
func (l *List) PopBack(dst []byte) error {
	if l.closed {
		return scl.ErrClosed
	}
	if l.size == 0 {
		l.metrics.Reject("underflow")
		return fmt.Errorf("pop back: %w", scl.ErrUnderflow)
	}
	h := l.tail
	copy(dst, l.nodes[h].payload)
	l.unlink(h)
	l.release(h)
	l.removed()
	return nil
}

// Find returns the position of the first element whose payload equals payload byte by byte. It
// returns -1 and [scl.ErrNotFound] if there is none.
func (l *List) Find(payload []byte) (int, error) {
	return l.FindFunc(payload, bytes.Equal)
}

// FindFunc returns the position of the first element for which match(stored, search) reports
// true. It returns -1 and [scl.ErrInvalidArgument] if match is nil, and -1 and
// [scl.ErrNotFound] if no element matches.
func (l *List) FindFunc(search []byte, match func(stored, search []byte) bool) (int, error) {
	if l.closed {
		return -1, scl.ErrClosed
	}
	if match == nil {
		return -1, fmt.Errorf("find: match func is nil: %w", scl.ErrInvalidArgument)
	}

	index := 0
	for h := l.head; h != none; h = l.nodes[h].next {
		if match(l.nodes[h].payload, search) {
			return index, nil
		}
		index++
	}

	return -1, scl.ErrNotFound
}

// ForEach calls fn for every element in order. A nil fn is a no-op.
//
// The payload slice is only valid during the call and must not be retained. fn must not modify
// the list.
func (l *List) ForEach(fn func(index int, payload []byte)) {
	if fn == nil {
		return
	}
	for index, payload := range l.All() {
		fn(index, payload)
	}
}

// All returns a sequence of positions and payloads in order. The same restrictions as for
// [List.ForEach] apply.
func (l *List) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		index := 0
		for h := l.head; h != none; h = l.nodes[h].next {
			if !yield(index, l.nodes[h].payload) {
				return
			}
			index++
		}
	}
}

// Clear removes all elements.
func (l *List) Clear() {
	if l.closed {
		return
	}
	released := l.releaseAll()
	l.metrics.Remove(released)
	l.metrics.Len(0)
}

// Close removes all elements and returns their memory to the allocator. Any further call returns
// [scl.ErrClosed].
func (l *List) Close() error {
	if l.closed {
		return scl.ErrClosed
	}
	released := l.releaseAll()
	l.nodes = nil
	l.free = nil
	l.closed = true

	l.metrics.Remove(released)
	l.metrics.Len(0)
	l.logger.Debug("closed", slog.Int("released", released))
	return nil
}

// at walks from the head to the element at index. Every indexed operation goes through it.
func (l *List) at(index int) (handle, error) {
	if index < 0 || index >= l.size {
		return none, fmt.Errorf("index %d with size %d: %w", index, l.size, scl.ErrOutOfRange)
	}
	h := l.head
	for range index {
		h = l.nodes[h].next
	}
	return h, nil
}

// newNode copies payload into freshly allocated memory and places an unlinked node into the
// arena. Nothing is changed if the allocation fails.
func (l *List) newNode(payload []byte) (handle, error) {
	buf, err := l.allocator.Alloc(len(payload))
	if err != nil {
		l.metrics.AllocationFailure()
		l.logger.Debug("allocation failed", slog.Int("size", len(payload)), slog.Any("err", err))
		return none, fmt.Errorf("allocate %d bytes: %w: %w", len(payload), scl.ErrAllocation, err)
	}
	copy(buf, payload)

	n := node{payload: buf, prev: none, next: none}
	if k := len(l.free); k > 0 {
		h := l.free[k-1]
		l.free = l.free[:k-1]
		l.nodes[h] = n
		return h, nil
	}
	l.nodes = append(l.nodes, n)
	return handle(len(l.nodes) - 1), nil
}

// unlink detaches h from its neighbours and decrements the size. The node stays in the arena.
func (l *List) unlink(h handle) {
	n := &l.nodes[h]
	switch {
	case l.head == l.tail:
		l.head = none
		l.tail = none
	case h == l.head:
		l.nodes[n.next].prev = none
		l.head = n.next
	case h == l.tail:
		l.nodes[n.prev].next = none
		l.tail = n.prev
	default:
		l.nodes[n.next].prev = n.prev
		l.nodes[n.prev].next = n.next
	}
	n.prev = none
	n.next = none
	l.size--
}

// release returns the payload of an unlinked node and recycles its slot.
func (l *List) release(h handle) {
	l.allocator.Free(l.nodes[h].payload)
	l.nodes[h] = node{prev: none, next: none}
	l.free = append(l.free, h)
}

func (l *List) releaseAll() int {
	released := 0
	for h := l.head; h != none; {
		next := l.nodes[h].next
		l.allocator.Free(l.nodes[h].payload)
		released++
		h = next
	}
	clear(l.nodes)
	l.nodes = l.nodes[:0]
	l.free = l.free[:0]
	l.head = none
	l.tail = none
	l.size = 0
	return released
}

func (l *List) inserted() {
	l.metrics.Insert(1)
	l.metrics.Len(l.size)
}

func (l *List) removed() {
	l.metrics.Remove(1)
	l.metrics.Len(l.size)
}
