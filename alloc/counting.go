package alloc

import (
	"sync"
	"unsafe"
)

// CountingAllocator wraps an [Allocator] and keeps track of outstanding allocations. It is meant
// for tests that check containers for leaks and double frees.
//
// Allocations are identified by the address of their first byte, so the wrapped allocator must
// return buffers with non-zero capacity. Both [Heap] and [Pool] do.
//
// A CountingAllocator is safe for concurrent use.
type CountingAllocator struct {
	mu        sync.Mutex
	allocator Allocator
	live      map[*byte]int
	liveBytes int
	allocs    int
	frees     int
	invalid   int
}

var _ Allocator = (*CountingAllocator)(nil)

// Counting returns a [CountingAllocator] wrapping allocator.
func Counting(allocator Allocator) *CountingAllocator {
	if allocator == nil {
		panic("allocator can't be nil")
	}
	return &CountingAllocator{
		allocator: allocator,
		live:      make(map[*byte]int),
	}
}

func (a *CountingAllocator) Alloc(size int) ([]byte, error) {
	buf, err := a.allocator.Alloc(size)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.live[address(buf)] = len(buf)
	a.liveBytes += len(buf)
	a.allocs++

	return buf, nil
}

// Free releases buf to the wrapped allocator. Buffers that are not outstanding (never allocated
// here, or already freed) are counted as invalid frees and are not passed on.
func (a *CountingAllocator) Free(buf []byte) {
	a.mu.Lock()
	key := address(buf)
	size, ok := a.live[key]
	if !ok {
		a.invalid++
		a.mu.Unlock()
		return
	}
	delete(a.live, key)
	a.liveBytes -= size
	a.frees++
	a.mu.Unlock()

	a.allocator.Free(buf)
}

// Live returns the number of outstanding allocations.
func (a *CountingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// LiveBytes returns the number of outstanding bytes.
func (a *CountingAllocator) LiveBytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveBytes
}

// Allocs returns the number of successful allocations.
func (a *CountingAllocator) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Frees returns the number of valid frees.
func (a *CountingAllocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}

// InvalidFrees returns the number of frees of buffers that were not outstanding.
func (a *CountingAllocator) InvalidFrees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.invalid
}

func address(buf []byte) *byte {
	return unsafe.SliceData(buf[:cap(buf)])
}
