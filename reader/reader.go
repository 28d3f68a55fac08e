// Package reader implements the round-robin sweep over a full slot table,
// adapted from cashengine's shm_reader.rs. It performs the mechanical copy
// only; envelope parsing and staleness/duplicate detection are the
// consumer's job (see the consumer package), matching §4.3's split between
// "Slot reader" and the consumer that uses it.
package reader

import "github.com/htxfanin/tickfeed/slottable"

// Reader sweeps a read-only view of the whole slot table round-robin. A
// Reader is owned by a single goroutine; it never blocks and never
// distinguishes "new" from "unchanged" — that is the caller's job via the
// sequence field in the parsed envelope.
type Reader struct {
	view    []byte
	stride  int
	total   int // P*M
	current int
	scratch []byte
	seq     *slottable.SeqLocks
}

// New builds a Reader over view (the full P*M*S mapping, as returned by
// slottable.Table.ReaderView) with the given stride and total slot count.
// seq must be the same SeqLocks instance every writer.Writer over this
// table was built with.
func New(view []byte, stride, totalSlots int, seq *slottable.SeqLocks) *Reader {
	return &Reader{
		view:    view,
		stride:  stride,
		total:   totalSlots,
		scratch: make([]byte, stride),
		seq:     seq,
	}
}

// ReadNext copies the current slot (round robin) into the reader's own
// scratch buffer, pairing an acquire load of the slot's seqlock counter
// around the copy with the writer's release stores (slottable.SeqLocks).
// ok is false if a write was in progress when the slot was visited, or
// started partway through the copy — a torn read per §5 — in which case
// the returned slice must be discarded. Current() has already advanced to
// the next slot in the sweep regardless of ok.
func (r *Reader) ReadNext() (data []byte, ok bool) {
	slot := r.current
	off := slot * r.stride

	r.current++
	if r.current >= r.total {
		r.current = 0
	}

	before := r.seq.Load(slot)
	if before%2 != 0 {
		return nil, false // a write is currently in progress
	}

	copy(r.scratch, r.view[off:off+r.stride])

	after := r.seq.Load(slot)
	if after != before {
		return nil, false // a write started or finished during the copy
	}

	return r.scratch, true
}

// Current returns the index of the slot the next ReadNext call will visit.
func (r *Reader) Current() int { return r.current }
