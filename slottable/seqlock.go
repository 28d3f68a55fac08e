package slottable

import "sync/atomic"

// SeqLocks pairs a writer's release store with a reader's acquire load, one
// counter per slot, so the unsynchronized byte copies into and out of a
// Table's mmap'd view form a real happens-before relationship instead of an
// unpaired atomic write nobody reads. sync/atomic operations on the same
// memory location synchronize-before one another per the Go memory model,
// so a reader that observes a writer's store is guaranteed to see every byte
// the writer copied before that store. Adapted from the teacher's
// shm/seqlock.go counter-increment shape, simplified from its CAS-guarded
// multi-writer lock to a plain paired increment since every slot here has
// exactly one writer.
//
// A slot's counter is even while its data is stable and odd while a write
// is in progress. A reader must treat an odd counter, or a counter that
// changes between the start and end of its own copy, as a torn read (§5)
// and discard whatever bytes it copied.
type SeqLocks struct {
	counters []uint64
}

// NewSeqLocks allocates one counter per slot across the whole table
// (partitions*slotsPerPartition); all start even (stable, empty).
func NewSeqLocks(totalSlots int) *SeqLocks {
	return &SeqLocks{counters: make([]uint64, totalSlots)}
}

// BeginWrite marks slot as mid-write. Call before copying a frame into it.
func (s *SeqLocks) BeginWrite(slot int) {
	atomic.AddUint64(&s.counters[slot], 1)
}

// EndWrite marks slot stable again. Call after the copy completes; this is
// the release store a reader's Load pairs with.
func (s *SeqLocks) EndWrite(slot int) {
	atomic.AddUint64(&s.counters[slot], 1)
}

// Load performs the acquire load a reader pairs with BeginWrite/EndWrite.
func (s *SeqLocks) Load(slot int) uint64 {
	return atomic.LoadUint64(&s.counters[slot])
}
