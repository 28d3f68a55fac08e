// Package slottable is the fixed-stride shared-memory backing store: a
// single file mapping partitioned into P*M equal-size slots, row-major by
// (partition, slot index). It is adapted from the teacher's shm/matrix.go
// and shm/seqlock.go mmap lifecycle and from the cashengine mmap_queue.rs
// initialize/map_file_to_memory functions this spec's §4.1 is grounded on.
package slottable

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/htxfanin/tickfeed/frame"
)

// Table is the single contiguous mapping shared by P producers and one
// consumer. There is no per-slot metadata, no indirection and no free
// list: size is determined exclusively by partitions*slotsPerPartition*stride.
type Table struct {
	file              *os.File
	data              []byte
	partitions        int
	slotsPerPartition int
	stride            int
}

// Create opens or creates the mapping file at path, truncates it to exactly
// partitions*slotsPerPartition*stride bytes, and maps it read-write. A
// freshly truncated file reads as all zeros, satisfying the "zero-filled at
// mapping creation" requirement without an explicit memset.
//
// Every failure here is a Configuration fatal per §4.1: there is no
// recovery from a mapping that cannot be created at the required size.
func Create(path string, partitions, slotsPerPartition, stride int) (*Table, error) {
	if stride < frame.MinStride {
		return nil, fmt.Errorf("slottable: stride %d below minimum %d (header + NUL + 1 payload byte)", stride, frame.MinStride)
	}
	if partitions <= 0 || slotsPerPartition <= 0 {
		return nil, fmt.Errorf("slottable: partitions=%d and slotsPerPartition=%d must both be positive", partitions, slotsPerPartition)
	}

	size := partitions * slotsPerPartition * stride

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("slottable: open %s: %w", path, err)
	}

	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("slottable: resize %s to %d bytes: %w", path, size, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("slottable: mmap %s: %w", path, err)
	}

	return &Table{
		file:              f,
		data:              data,
		partitions:        partitions,
		slotsPerPartition: slotsPerPartition,
		stride:            stride,
	}, nil
}

// WriterView returns the region covering exactly partition p's
// slotsPerPartition*stride bytes. Writers of partition p touch only this
// sub-range; no other partition's bytes are ever reachable through it.
func (t *Table) WriterView(p int) ([]byte, error) {
	if p < 0 || p >= t.partitions {
		return nil, fmt.Errorf("slottable: partition %d out of range [0,%d)", p, t.partitions)
	}
	span := t.slotsPerPartition * t.stride
	off := p * span
	return t.data[off : off+span : off+span], nil
}

// ReaderView returns the full partitions*slotsPerPartition*stride region.
// By convention it is treated as read-only by the sole consumer; the
// backing mapping is the same one writers hold sub-slices of.
func (t *Table) ReaderView() []byte {
	return t.data
}

// SlotStride returns the configured stride S.
func (t *Table) SlotStride() int { return t.stride }

// SlotsPerPartition returns M.
func (t *Table) SlotsPerPartition() int { return t.slotsPerPartition }

// Partitions returns P.
func (t *Table) Partitions() int { return t.partitions }

// Close unmaps the region and closes the backing file. Callers must ensure
// every producer and the consumer have stopped touching their views first
// (the orchestrator's scoped parallelism boundary).
func (t *Table) Close() error {
	if err := unix.Munmap(t.data); err != nil {
		t.file.Close()
		return fmt.Errorf("slottable: munmap: %w", err)
	}
	return t.file.Close()
}
