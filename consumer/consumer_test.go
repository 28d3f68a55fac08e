package consumer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htxfanin/tickfeed/reader"
	"github.com/htxfanin/tickfeed/slottable"
	"github.com/htxfanin/tickfeed/writer"
)

const testStride = 128

// newHarness builds a single writer/reader pair sharing one partition's
// view and one table-wide (here, single-partition) SeqLocks, as the
// orchestrator does for the real P-partition table. writerID is 0 so the
// writer's global seqlock index (writerID*slots+chunkIndex) lines up with
// the reader's sweep index over this lone partition's slots.
func newHarness(t *testing.T, slots int) (*writer.Writer, *Consumer) {
	t.Helper()
	view := make([]byte, testStride*slots)
	seq := slottable.NewSeqLocks(slots)
	w, err := writer.New(0, testStride, slots, view, seq)
	require.NoError(t, err)
	r := reader.New(view, testStride, slots, seq)
	c := New(r, 4)
	return w, c
}

func TestSweepOne_SkipsEmptySlot(t *testing.T) {
	_, c := newHarness(t, 2)
	c.sweepOne()
	c.sweepOne()
	_, ok := c.tracker.P95()
	assert.False(t, ok)
	assert.Empty(t, c.lastSeq)
}

func TestSweepOne_RecordsFreshMessageOnce(t *testing.T) {
	w, c := newHarness(t, 1)
	w.Write(0, []byte("hello"))

	c.sweepOne()
	assert.Equal(t, uint64(0), c.lastSeq[0])

	// A second sweep of the same, unchanged slot must not double-count.
	c.sweepOne()
	assert.Len(t, c.lastSeq, 1)
}

func TestSweepOne_AdvancingSequenceIsTracked(t *testing.T) {
	w, c := newHarness(t, 1)
	w.Write(0, []byte("first"))
	c.sweepOne()
	require.Equal(t, uint64(0), c.lastSeq[0])

	w.Write(0, []byte("second"))
	c.sweepOne()
	assert.Equal(t, uint64(1), c.lastSeq[0])
}

func TestSweepOne_FillsLatencyWindow(t *testing.T) {
	w, c := newHarness(t, 1)
	for i := 0; i < 4; i++ {
		w.Write(0, []byte(fmt.Sprintf("msg-%d", i)))
		c.sweepOne()
	}
	_, ok := c.tracker.P95()
	assert.True(t, ok)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	_, c := newHarness(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
