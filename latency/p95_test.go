package latency

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestP95_NotFullReturnsNoValue(t *testing.T) {
	tr := NewTracker(4)
	tr.Push(10)
	tr.Push(20)
	_, ok := tr.P95()
	assert.False(t, ok)
}

func TestP95_SpecScenario(t *testing.T) {
	tr := NewTracker(4)
	for _, v := range []int64{10, 20, 30, 40} {
		tr.Push(v)
	}
	p95, ok := tr.P95()
	require.True(t, ok)
	assert.Equal(t, int64(40), p95)

	tr.Push(5) // 5 < 40, displaces it; window becomes {5,10,20,30}
	p95, ok = tr.P95()
	require.True(t, ok)
	assert.Equal(t, int64(30), p95)
}

func TestP95_DiscardsLargerThanCurrentMax(t *testing.T) {
	tr := NewTracker(3)
	tr.Push(1)
	tr.Push(2)
	tr.Push(3)
	tr.Push(100) // 100 is not < max(3), discarded
	p95, ok := tr.P95()
	require.True(t, ok)
	assert.Equal(t, int64(3), p95)
}

// TestP95_MatchesExactSmallestWWindow checks invariant 4 of §8: the
// tracker always holds exactly the W smallest values seen so far, so its
// p95 equals the 95th percentile of that exact window.
func TestP95_MatchesExactSmallestWWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const window = 16

	tr := NewTracker(window)
	var seen []int64

	for i := 0; i < 500; i++ {
		v := int64(rng.Intn(10000))
		tr.Push(v)
		seen = append(seen, v)

		sorted := append([]int64(nil), seen...)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })
		if len(sorted) > window {
			sorted = sorted[:window]
		}

		if got, ok := tr.P95(); ok {
			require.Len(t, sorted, window)
			idx := int(0.95*float64(window)+0.9999999999) - 1
			want := sorted[idx]
			assert.Equal(t, want, got)
		}
	}
}
