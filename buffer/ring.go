package buffer

import (
	"fmt"
	"log/slog"

	"github.com/teenjuna/scl"
	"github.com/teenjuna/scl/alloc"
	"github.com/teenjuna/scl/internal"
	"github.com/teenjuna/scl/internal/metrics"
)

// Ring is a bounded byte-stream queue.
//
// Bytes are pushed and popped in chunks of any size. Chunk boundaries are not recorded, so callers
// that need to recover records must frame them.
//
// The write and read positions are unsigned 64-bit counters. Their difference is the number of
// buffered bytes and stays correct even if the counters wrap around.
//
// A Ring is not safe for concurrent use. An instance can be created only by the [NewRing]
// function.
type Ring struct {
	allocator alloc.Allocator
	logger    *slog.Logger
	metrics   *metrics.Metrics

	buf    []byte
	mask   uint64
	read   uint64
	write  uint64
	closed bool
}

// NewRing creates a ring buffer that holds up to capacity bytes. The capacity must be a positive
// power of two. The buffer is allocated once, here. Default configuration:
//   - Allocator: [alloc.Heap]
//   - Logger: discards everything
//   - Prometheus: disabled
func NewRing(capacity int, configFuncs ...ConfigFunc) (*Ring, error) {
	if capacity < 1 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("capacity %d is not a power of two: %w", capacity, scl.ErrInvalidArgument)
	}

	cfg := newConfig(configFuncs...)
	res := internal.Resolve(&cfg.Config, "ring")

	buf, err := res.Allocator.Alloc(capacity)
	if err != nil {
		res.Metrics.AllocationFailure()
		res.Logger.Debug("allocation failed", slog.Int("capacity", capacity), slog.Any("err", err))
		return nil, fmt.Errorf("allocate %d bytes: %w: %w", capacity, scl.ErrAllocation, err)
	}
	res.Metrics.Cap(capacity)

	return &Ring{
		allocator: res.Allocator,
		logger:    res.Logger,
		metrics:   res.Metrics,
		buf:       buf,
		mask:      uint64(capacity - 1),
	}, nil
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	return int(r.write - r.read)
}

// Cap returns the capacity in bytes.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Available returns the number of bytes that can be pushed.
func (r *Ring) Available() int {
	return r.Cap() - r.Len()
}

// Push copies all of data into the buffer. If data doesn't fit into the free space nothing is
// copied and an error matching [scl.ErrCapacityExceeded] is returned.
func (r *Ring) Push(data []byte) error {
	if r.closed {
		return scl.ErrClosed
	}
	if len(data) > r.Available() {
		r.metrics.Reject("capacity_exceeded")
		return fmt.Errorf(
			"push %d bytes with %d available: %w",
			len(data), r.Available(), scl.ErrCapacityExceeded,
		)
	}

	// At most two segments: up to the end of the buffer, then from its start.
	n := copy(r.buf[r.write&r.mask:], data)
	copy(r.buf, data[n:])
	r.write += uint64(len(data))

	r.metrics.Insert(len(data))
	r.metrics.Len(r.Len())
	return nil
}

// Pop fills dst with the oldest len(dst) buffered bytes and removes them. If fewer bytes are
// buffered nothing is removed and an error matching [scl.ErrCapacityExceeded] is returned; when
// the buffer is empty the error also matches [scl.ErrUnderflow].
func (r *Ring) Pop(dst []byte) error {
	if err := r.Peek(dst); err != nil {
		return fmt.Errorf("pop: %w", err)
	}
	r.read += uint64(len(dst))

	r.metrics.Remove(len(dst))
	r.metrics.Len(r.Len())
	return nil
}

// Peek is like [Ring.Pop] but leaves the bytes in the buffer.
func (r *Ring) Peek(dst []byte) error {
	if r.closed {
		return scl.ErrClosed
	}
	if err := r.check(len(dst)); err != nil {
		return err
	}

	n := copy(dst, r.buf[r.read&r.mask:])
	copy(dst[n:], r.buf)
	return nil
}

// Discard removes the oldest n buffered bytes without copying them.
func (r *Ring) Discard(n int) error {
	if r.closed {
		return scl.ErrClosed
	}
	if n < 0 {
		return fmt.Errorf("discard %d bytes: %w", n, scl.ErrInvalidArgument)
	}
	if err := r.check(n); err != nil {
		return fmt.Errorf("discard: %w", err)
	}
	r.read += uint64(n)

	r.metrics.Remove(n)
	r.metrics.Len(r.Len())
	return nil
}

// Reset drops all buffered bytes.
func (r *Ring) Reset() {
	if r.closed {
		return
	}
	r.metrics.Remove(r.Len())
	r.metrics.Len(0)
	r.read = r.write
}

// Close releases the buffer. Any further call returns [scl.ErrClosed].
func (r *Ring) Close() error {
	if r.closed {
		return scl.ErrClosed
	}
	r.allocator.Free(r.buf)
	r.logger.Debug("closed", slog.Int("buffered", r.Len()), slog.Int("capacity", len(r.buf)))

	r.metrics.Remove(r.Len())
	r.metrics.Len(0)
	r.metrics.Cap(0)

	r.buf = nil
	r.mask = 0
	r.read = r.write
	r.closed = true
	return nil
}

func (r *Ring) check(n int) error {
	if n <= r.Len() {
		return nil
	}
	r.metrics.Reject("capacity_exceeded")
	if r.Len() == 0 {
		return fmt.Errorf("%d bytes requested from empty buffer: %w: %w",
			n, scl.ErrCapacityExceeded, scl.ErrUnderflow)
	}
	return fmt.Errorf("%d bytes requested with %d buffered: %w",
		n, r.Len(), scl.ErrCapacityExceeded)
}
