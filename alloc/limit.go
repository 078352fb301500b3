package alloc

import (
	"fmt"
	"sync"
)

// LimitedAllocator wraps an [Allocator] and refuses allocations that would take the number of
// outstanding bytes above a fixed budget.
//
// A LimitedAllocator is safe for concurrent use.
type LimitedAllocator struct {
	mu        sync.Mutex
	allocator Allocator
	budget    int
	used      int
}

var _ Allocator = (*LimitedAllocator)(nil)

// Limit returns a [LimitedAllocator] wrapping allocator with the given budget in bytes.
func Limit(allocator Allocator, budget int) *LimitedAllocator {
	if allocator == nil {
		panic("allocator can't be nil")
	}
	if budget < 0 {
		panic("budget can't be < 0")
	}
	return &LimitedAllocator{
		allocator: allocator,
		budget:    budget,
	}
}

func (a *LimitedAllocator) Alloc(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size > a.budget-a.used {
		return nil, fmt.Errorf("%d bytes requested, %d of %d available: %w",
			size, a.budget-a.used, a.budget, ErrExhausted)
	}

	buf, err := a.allocator.Alloc(size)
	if err != nil {
		return nil, err
	}
	a.used += len(buf)

	return buf, nil
}

func (a *LimitedAllocator) Free(buf []byte) {
	a.mu.Lock()
	a.used -= len(buf)
	a.mu.Unlock()

	a.allocator.Free(buf)
}

// Used returns the number of outstanding bytes.
func (a *LimitedAllocator) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}
