package alloc

import (
	"fmt"
	"math/bits"
	"sync"
)

// SizeClasses are the buffer capacities served by a [PoolAllocator].
var SizeClasses = [...]int{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768}

// SizeClass returns the index in [SizeClasses] of the smallest class that fits n bytes, or -1 if
// n is larger than the largest class.
func SizeClass(n int) int {
	if n < 0 || n > SizeClasses[len(SizeClasses)-1] {
		return -1
	}
	idx := bits.Len(uint(n))
	if idx < 7 {
		return 0
	}
	if n&(n-1) == 0 {
		return idx - 7
	}
	return idx - 6
}

// PoolAllocator recycles buffers through one [sync.Pool] per size class. Requests larger than
// the largest class are served from the heap and dropped on Free.
//
// A PoolAllocator is safe for concurrent use.
type PoolAllocator struct {
	pools [len(SizeClasses)]sync.Pool
}

var _ Allocator = (*PoolAllocator)(nil)

// Pool creates a new [PoolAllocator].
func Pool() *PoolAllocator {
	var p PoolAllocator
	for i, sz := range SizeClasses {
		size := sz
		p.pools[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return &p
}

func (p *PoolAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative size %d", size)
	}
	idx := SizeClass(size)
	if idx < 0 {
		return makeBytes(size, size)
	}
	bufPtr := p.pools[idx].Get().(*[]byte)
	return (*bufPtr)[:size], nil
}

func (p *PoolAllocator) Free(buf []byte) {
	c := cap(buf)
	if c&(c-1) != 0 || c < SizeClasses[0] || c > SizeClasses[len(SizeClasses)-1] {
		return
	}
	idx := bits.Len(uint(c)) - 7
	if SizeClasses[idx] == c {
		buf = buf[:c]
		p.pools[idx].Put(&buf)
	}
}
