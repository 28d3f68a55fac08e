// Package consumer drives the round-robin sweep of §4.3: it sweeps every
// slot in the table, discards torn/unchanged reads, detects per-writer
// staleness and duplicates via the sequence field, and feeds observed
// latency into the p95 tracker. Grounded on cashengine's consumer loop in
// lib.rs, which performs exactly this glue between shm_reader.rs and
// metrics.rs.
package consumer

import (
	"context"
	"log"
	"time"

	"github.com/htxfanin/tickfeed/frame"
	"github.com/htxfanin/tickfeed/latency"
	"github.com/htxfanin/tickfeed/reader"
)

// Consumer sweeps a Reader round-robin, tracking the last sequence number
// observed per writer so the same message is never double-counted, and
// feeding per-message latency samples into a rolling p95 Tracker.
type Consumer struct {
	r       *reader.Reader
	tracker *latency.Tracker
	lastSeq map[uint64]uint64

	logInterval time.Duration
}

// New builds a Consumer over r, tracking latency in a window of the given
// capacity.
func New(r *reader.Reader, latencyWindow int) *Consumer {
	return &Consumer{
		r:           r,
		tracker:     latency.NewTracker(latencyWindow),
		lastSeq:     make(map[uint64]uint64),
		logInterval: 5 * time.Second,
	}
}

// Run sweeps the table continuously until ctx is cancelled, logging the
// rolling p95 latency at logInterval. It never returns an error of its
// own — a torn or stale read is simply skipped, matching §5's tolerance
// for benign races between writer and reader.
func (c *Consumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.logInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p95, ok := c.tracker.P95(); ok {
				log.Printf("consumer: p95 latency %dus over a window of %d", p95, c.tracker.Capacity())
			}
		default:
			c.sweepOne()
		}
	}
}

// sweepOne visits the next slot and, if it holds a fresh message, records
// its latency. Torn reads, unchanged slots, and already-seen sequence
// numbers are all silently skipped.
func (c *Consumer) sweepOne() {
	raw, ok := c.r.ReadNext()
	if !ok {
		return // write in progress, or torn mid-copy
	}

	hdr, ok := frame.Parse(raw)
	if !ok {
		return // an empty/never-written slot
	}

	last, seen := c.lastSeq[hdr.WriterID]
	if seen && hdr.Sequence <= last {
		return // already observed, or older than what we've seen (stale)
	}
	c.lastSeq[hdr.WriterID] = hdr.Sequence

	now := nowMicros()
	if now >= hdr.StartTSMicros {
		c.tracker.Push(int64(now - hdr.StartTSMicros))
	}
}

func nowMicros() uint64 {
	us := time.Now().UnixMicro()
	if us < 0 {
		return 0
	}
	return uint64(us)
}
