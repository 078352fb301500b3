// Package expect contains assertions shared by the container tests.
package expect

import (
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/teenjuna/scl/alloc"
)

// NoLeaks fails the test if a has outstanding allocations or has seen invalid frees.
func NoLeaks(t *testing.T, a *alloc.CountingAllocator) {
	t.Helper()
	require.Zero(t, a.InvalidFrees(), "invalid frees")
	require.Zero(t, a.Live(), "live allocations")
	require.Zero(t, a.LiveBytes(), "live bytes")
	require.Equal(t, a.Allocs(), a.Frees(), "allocs != frees")
}

// Payloads fails the test if seq doesn't yield exactly want, in order and with consecutive
// positions starting at 0.
func Payloads(t *testing.T, seq iter.Seq2[int, []byte], want ...[]byte) {
	t.Helper()
	got := make([][]byte, 0, len(want))
	for i, payload := range seq {
		require.Equal(t, len(got), i, "position")
		got = append(got, append([]byte(nil), payload...))
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("payloads mismatch (-want +got):\n%s", diff)
	}
}

// PanicWithError fails the test if f doesn't panic with errMsg.
func PanicWithError(t *testing.T, errMsg string, f func()) {
	t.Helper()
	require.PanicsWithValue(t, errMsg, f)
}

// Bytes returns n payloads of size bytes each, payload i filled with byte(i).
func Bytes(n, size int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		p := make([]byte, size)
		for j := range p {
			p[j] = byte(i)
		}
		out[i] = p
	}
	return out
}
