package buffer_test

import (
	"bytes"
	"math/bits"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/teenjuna/scl"
	"github.com/teenjuna/scl/alloc"
	"github.com/teenjuna/scl/buffer"
	"github.com/teenjuna/scl/internal/testing/expect"
)

func run(t *testing.T, name string, capacity int, fn func(t *testing.T, r *buffer.Ring)) {
	t.Run(name, func(t *testing.T) {
		t.Parallel()
		a := alloc.Counting(alloc.Pool())
		r, err := buffer.NewRing(capacity, func(c *buffer.Config) { c.Allocator(a) })
		require.NoError(t, err)
		require.Equal(t, 1, a.Live())
		fn(t, r)
		require.NoError(t, r.Close())
		expect.NoLeaks(t, a)
	})
}

func sequence(from, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(from + i)
	}
	return out
}

func TestNewRing(t *testing.T) {
	for _, capacity := range []int{-8, 0, 3, 6, 12, 1000} {
		r, err := buffer.NewRing(capacity)
		require.ErrorIs(t, err, scl.ErrInvalidArgument, "capacity %d", capacity)
		require.Nil(t, r)
	}

	for _, capacity := range []int{1, 2, 8, 1 << 16} {
		r, err := buffer.NewRing(capacity)
		require.NoError(t, err)
		require.Equal(t, capacity, r.Cap())
		require.Equal(t, capacity, r.Available())
		require.Zero(t, r.Len())
		require.NoError(t, r.Close())
	}

	t.Run("Capacity beyond allocator limits", func(t *testing.T) {
		if bits.UintSize < 64 {
			t.Skip("runtime may try to satisfy the request on 32-bit platforms")
		}
		for _, capacity := range []int{1 << (bits.UintSize - 10), 1 << (bits.UintSize - 2)} {
			r, err := buffer.NewRing(capacity)
			require.ErrorIs(t, err, scl.ErrAllocation, "capacity %d", capacity)
			require.ErrorIs(t, err, alloc.ErrExhausted, "capacity %d", capacity)
			require.Nil(t, r)
		}
	})

	t.Run("Allocation failure", func(t *testing.T) {
		a := alloc.Counting(alloc.Heap())
		r, err := buffer.NewRing(8, func(c *buffer.Config) { c.Allocator(alloc.Limit(a, 4)) })
		require.ErrorIs(t, err, scl.ErrAllocation)
		require.ErrorIs(t, err, alloc.ErrExhausted)
		require.Nil(t, r)
		expect.NoLeaks(t, a)
	})
}

func TestRoundTrip(t *testing.T) {
	const capacity = 16
	for shift := range capacity + 1 {
		run(t, "Shifted", capacity, func(t *testing.T, r *buffer.Ring) {
			for range 3 {
				require.NoError(t, r.Push(sequence(100, shift)))
				require.NoError(t, r.Pop(make([]byte, shift)))
			}

			data := sequence(shift, capacity)
			require.NoError(t, r.Push(data))
			require.Zero(t, r.Available())

			got := make([]byte, capacity)
			require.NoError(t, r.Pop(got))
			require.Equal(t, data, got)
			require.Zero(t, r.Len())
		})
	}
}

func TestCapacityExceeded(t *testing.T) {
	run(t, "Push over capacity", 8, func(t *testing.T, r *buffer.Ring) {
		require.ErrorIs(t, r.Push(sequence(0, 9)), scl.ErrCapacityExceeded)
		require.Zero(t, r.Len())

		require.NoError(t, r.Push(sequence(0, 5)))
		require.ErrorIs(t, r.Push(sequence(5, 4)), scl.ErrCapacityExceeded)
		require.Equal(t, 5, r.Len())
		require.NoError(t, r.Push(sequence(5, 3)))

		got := make([]byte, 8)
		require.NoError(t, r.Pop(got))
		require.Equal(t, sequence(0, 8), got)
	})

	run(t, "Pop from empty", 8, func(t *testing.T, r *buffer.Ring) {
		err := r.Pop(make([]byte, 1))
		require.ErrorIs(t, err, scl.ErrCapacityExceeded)
		require.ErrorIs(t, err, scl.ErrUnderflow)
		require.NoError(t, r.Pop(nil))
	})

	run(t, "Pop more than buffered", 8, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push(sequence(0, 3)))
		err := r.Pop(make([]byte, 4))
		require.ErrorIs(t, err, scl.ErrCapacityExceeded)
		require.NotErrorIs(t, err, scl.ErrUnderflow)
		require.Equal(t, 3, r.Len())
	})
}

func TestWraparound(t *testing.T) {
	run(t, "Split copy", 8, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push(sequence(0, 5)))
		require.NoError(t, r.Pop(make([]byte, 5)))

		// Positions 5..10 land on 5, 6, 7, 0, 1, 2.
		data := sequence(50, 6)
		require.NoError(t, r.Push(data))
		got := make([]byte, 6)
		require.NoError(t, r.Pop(got))
		require.Equal(t, data, got)

		// Positions 11..17 land on 3..7, 0, 1.
		data = sequence(70, 7)
		require.NoError(t, r.Push(data))
		got = make([]byte, 7)
		require.NoError(t, r.Peek(got))
		require.Equal(t, data, got)
		require.NoError(t, r.Pop(got))
		require.Equal(t, data, got)
	})

	run(t, "Split read of separate pushes", 8, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push(sequence(0, 6)))
		require.NoError(t, r.Pop(make([]byte, 6)))
		require.NoError(t, r.Push([]byte("ab")))
		require.NoError(t, r.Push([]byte("cdef")))

		got := make([]byte, 3)
		require.NoError(t, r.Pop(got))
		require.Equal(t, "abc", string(got))
		require.NoError(t, r.Pop(got))
		require.Equal(t, "def", string(got))
	})
}

func TestPeekDiscardReset(t *testing.T) {
	run(t, "Peek keeps bytes", 4, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push([]byte("abc")))
		got := make([]byte, 2)
		require.NoError(t, r.Peek(got))
		require.Equal(t, "ab", string(got))
		require.Equal(t, 3, r.Len())
		require.ErrorIs(t, r.Peek(make([]byte, 4)), scl.ErrCapacityExceeded)
	})

	run(t, "Discard", 4, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push([]byte("abcd")))
		require.ErrorIs(t, r.Discard(-1), scl.ErrInvalidArgument)
		require.ErrorIs(t, r.Discard(5), scl.ErrCapacityExceeded)
		require.NoError(t, r.Discard(3))
		require.NoError(t, r.Push([]byte("efg")))

		got := make([]byte, 4)
		require.NoError(t, r.Pop(got))
		require.Equal(t, "defg", string(got))
	})

	run(t, "Reset", 4, func(t *testing.T, r *buffer.Ring) {
		require.NoError(t, r.Push([]byte("abc")))
		r.Reset()
		require.Zero(t, r.Len())
		require.Equal(t, 4, r.Available())
		require.NoError(t, r.Push([]byte("wxyz")))

		got := make([]byte, 4)
		require.NoError(t, r.Pop(got))
		require.Equal(t, "wxyz", string(got))
	})
}

// TestModel pushes and pops chunks of random sizes and compares the stream with a bytes.Buffer.
func TestModel(t *testing.T) {
	for _, capacity := range []int{1, 2, 8, 64, 1024} {
		run(t, "Capacity", capacity, func(t *testing.T, r *buffer.Ring) {
			rnd := rand.New(rand.NewPCG(uint64(capacity), 1))
			var model bytes.Buffer
			next := 0

			for range 5000 {
				n := rnd.IntN(capacity + 2)
				if rnd.IntN(2) == 0 {
					data := sequence(next, n)
					err := r.Push(data)
					if n > capacity-model.Len() {
						require.ErrorIs(t, err, scl.ErrCapacityExceeded)
						continue
					}
					require.NoError(t, err)
					model.Write(data)
					next += n
				} else {
					got := make([]byte, n)
					err := r.Pop(got)
					if n > model.Len() {
						require.ErrorIs(t, err, scl.ErrCapacityExceeded)
						continue
					}
					require.NoError(t, err)
					require.Equal(t, model.Next(n), got)
				}
				require.Equal(t, model.Len(), r.Len())
				require.Equal(t, capacity-model.Len(), r.Available())
			}
		})
	}
}

func TestClose(t *testing.T) {
	t.Parallel()

	a := alloc.Counting(alloc.Heap())
	r, err := buffer.NewRing(16, func(c *buffer.Config) { c.Allocator(a) })
	require.NoError(t, err)
	require.NoError(t, r.Push([]byte("abc")))

	require.NoError(t, r.Close())
	expect.NoLeaks(t, a)

	require.ErrorIs(t, r.Close(), scl.ErrClosed)
	require.ErrorIs(t, r.Push([]byte("a")), scl.ErrClosed)
	require.ErrorIs(t, r.Pop(make([]byte, 1)), scl.ErrClosed)
	require.ErrorIs(t, r.Peek(make([]byte, 1)), scl.ErrClosed)
	require.ErrorIs(t, r.Discard(1), scl.ErrClosed)
	r.Reset()
	require.Zero(t, r.Len())
	require.Zero(t, r.Cap())
	expect.NoLeaks(t, a)
}

func TestIndependentRings(t *testing.T) {
	t.Parallel()

	a := alloc.Counting(alloc.Pool())
	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			r, err := buffer.NewRing(32, func(c *buffer.Config) { c.Allocator(a) })
			if err != nil {
				return err
			}
			got := make([]byte, 20)
			for i := range 200 {
				data := sequence(w+i, 20)
				if err := r.Push(data); err != nil {
					return err
				}
				if err := r.Pop(got); err != nil {
					return err
				}
				if !bytes.Equal(data, got) {
					t.Errorf("worker %d, round %d: got %v, want %v", w, i, got, data)
				}
			}
			return r.Close()
		})
	}
	require.NoError(t, g.Wait())
	expect.NoLeaks(t, a)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	r, err := buffer.NewRing(8, func(c *buffer.Config) {
		c.Prometheus(scl.Prometheus(reg, func(c *scl.PrometheusConfig) {
			c.Subsystem = "queue"
		}))
	})
	require.NoError(t, err)

	require.NoError(t, r.Push(sequence(0, 6)))
	require.ErrorIs(t, r.Push(sequence(0, 3)), scl.ErrCapacityExceeded)
	require.NoError(t, r.Pop(make([]byte, 4)))

	const want = `
# HELP scl_queue_capacity Allocated capacity of container
# TYPE scl_queue_capacity gauge
scl_queue_capacity{container="ring"} 8
# HELP scl_queue_inserted Number of items inserted into container
# TYPE scl_queue_inserted counter
scl_queue_inserted{container="ring"} 6
# HELP scl_queue_items Number of items in container (bytes for ring buffers)
# TYPE scl_queue_items gauge
scl_queue_items{container="ring"} 2
# HELP scl_queue_rejections Number of operations rejected by container
# TYPE scl_queue_rejections counter
scl_queue_rejections{container="ring",reason="capacity_exceeded"} 1
# HELP scl_queue_removed Number of items removed from container
# TYPE scl_queue_removed counter
scl_queue_removed{container="ring"} 4
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(want),
		"scl_queue_capacity",
		"scl_queue_inserted",
		"scl_queue_items",
		"scl_queue_rejections",
		"scl_queue_removed",
	))
	require.NoError(t, r.Close())
}
