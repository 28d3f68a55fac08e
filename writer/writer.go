// Package writer frames a message (prefix header + payload) into one
// producer's slot, adapted from cashengine's shm_block_writer.rs.
package writer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/htxfanin/tickfeed/frame"
	"github.com/htxfanin/tickfeed/slottable"
)

// Writer frames messages into exactly one partition of a slot table. A
// Writer is owned by a single goroutine; it must never be shared.
type Writer struct {
	writerID uint64
	stride   int
	slots    int
	view     []byte
	sequence uint64
	scratch  bytes.Buffer

	// seq pairs this Writer's release store around each slot copy with the
	// Reader's acquire load of the same slot (see slottable.SeqLocks); it is
	// the real synchronization the mmap'd byte copies need, not a fence that
	// nothing reads.
	seq *slottable.SeqLocks
}

// New builds a Writer over view, the partition's own writerID*M*S..
// (writerID+1)*M*S sub-range of the mapping, as returned by
// slottable.Table.WriterView. seq must be the same SeqLocks instance the
// Reader sweeping this table was built with, sized to the table's total
// slot count, so that global slot index writerID*slotCount+chunkIndex
// addresses the same counter on both sides.
func New(writerID uint64, stride, slotCount int, view []byte, seq *slottable.SeqLocks) (*Writer, error) {
	if stride < frame.MinStride {
		return nil, fmt.Errorf("writer %d: stride %d below minimum %d", writerID, stride, frame.MinStride)
	}
	if len(view) != stride*slotCount {
		return nil, fmt.Errorf("writer %d: view length %d does not match stride*slots=%d", writerID, len(view), stride*slotCount)
	}
	w := &Writer{writerID: writerID, stride: stride, slots: slotCount, view: view, seq: seq}
	w.scratch.Grow(stride)
	return w, nil
}

// Write frames payload into chunkIndex. A payload that would overflow the
// slot stride is a programming error: it panics, per §4.2's "abort
// fatally" failure semantics (the subscription set and slot sizing are
// fixed together at startup, so an overflow here can only be a bug).
func (w *Writer) Write(chunkIndex int, payload []byte) {
	if chunkIndex < 0 || chunkIndex >= w.slots {
		panic(fmt.Sprintf("writer %d: chunk index %d out of range [0,%d)", w.writerID, chunkIndex, w.slots))
	}

	w.scratch.Reset()

	startTSMicros := nowMicros()
	absoluteOffset := w.writerID + uint64(chunkIndex)*uint64(w.stride)

	fmt.Fprintf(&w.scratch, "%d:%d:%d:%0*d:", w.writerID, w.sequence, startTSMicros, frame.MaxUint64Digits, absoluteOffset)
	w.scratch.Write(payload)
	w.scratch.WriteByte(0)

	if w.scratch.Len() > w.stride {
		panic(fmt.Sprintf("writer %d: framed message length %d exceeds slot stride %d", w.writerID, w.scratch.Len(), w.stride))
	}

	dst := w.view[chunkIndex*w.stride : (chunkIndex+1)*w.stride]

	globalSlot := int(w.writerID)*w.slots + chunkIndex
	w.seq.BeginWrite(globalSlot)
	// Tail bytes beyond the framed length are left as whatever the slot
	// held before: readers stop at the payload NUL, never at the stride
	// boundary.
	copy(dst, w.scratch.Bytes())
	w.seq.EndWrite(globalSlot)

	w.sequence++
}

// Sequence returns the next sequence number this Writer will use.
func (w *Writer) Sequence() uint64 { return w.sequence }

func nowMicros() uint64 {
	us := time.Now().UnixMicro()
	if us < 0 {
		return 0 // clock failure degrades the timestamp to 0 but continues, per §4.2
	}
	return uint64(us)
}
