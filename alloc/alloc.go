// Package alloc provides the memory sources used by the containers for payload and backing
// storage.
//
// Every container obtains its memory through an [Allocator] and hands each allocation back with
// [Allocator.Free] exactly once, when the element is removed, the buffer is replaced, or the
// container is closed. Wrapping an allocator with [Counting] makes this observable.
package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is returned when an allocator can't provide the requested memory.
	ErrExhausted = errors.New("allocator exhausted")
)

// Allocator is a source of byte buffers with explicit release.
//
// Alloc returns a buffer of exactly size bytes whose contents are unspecified. Free returns a
// buffer previously obtained from Alloc; the buffer must not be used after that.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

type heap struct{}

var _ Allocator = heap{}

// Heap returns an allocator backed by the Go heap. Free is a no-op and memory is reclaimed by the
// garbage collector once the container drops its reference.
func Heap() Allocator {
	return heap{}
}

func (heap) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative size %d", size)
	}
	// Capacity is at least 1 so that every allocation has a distinct address.
	return makeBytes(size, max(size, 1))
}

func (heap) Free([]byte) {}

// makeBytes is make that reports sizes the runtime refuses to allocate as [ErrExhausted].
func makeBytes(size, capacity int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("make %d bytes: %v: %w", size, r, ErrExhausted)
		}
	}()
	return make([]byte, size, capacity), nil
}
