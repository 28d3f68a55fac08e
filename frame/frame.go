// Package frame defines the slot framing grammar shared by the writer and
// the reader: a colon-separated ASCII header followed by a NUL-terminated
// payload. See shm_block_writer.rs / shm_reader.rs in the cashengine
// source this grammar was carried over from.
package frame

import (
	"bytes"
	"strconv"
)

// MaxUint64Digits is the decimal digit width of the largest 64-bit machine
// word (18446744073709551615 has 20 digits). The absolute slot offset is
// zero-padded to this width so the header has a fixed length on a given
// machine and the payload begins at a known offset.
const MaxUint64Digits = 20

// HeaderMaxLen is the worst-case byte length of a framing header: writer_id,
// sequence and start_ts_micros bounded to MaxUint64Digits each, the
// zero-padded absolute offset at MaxUint64Digits, and the four colon
// separators that follow each field.
const HeaderMaxLen = 4*MaxUint64Digits + 4

// MinStride is the smallest slot stride that can hold a full header, a
// one-byte payload and the terminating NUL.
const MinStride = HeaderMaxLen + 2

// Header is a slot's parsed framing envelope.
type Header struct {
	WriterID       uint64
	Sequence       uint64
	StartTSMicros  uint64
	AbsoluteOffset uint64
	Payload        []byte
}

// Parse recovers a Header from a raw slot snapshot. It returns ok=false if
// any numeric field fails to parse, or no payload-terminating NUL is found
// — both cases indicate a torn read and the snapshot must be discarded
// without error (§5).
func Parse(raw []byte) (Header, bool) {
	parts := bytes.SplitN(raw, []byte(":"), 5)
	if len(parts) != 5 {
		return Header{}, false
	}

	writerID, err := strconv.ParseUint(string(parts[0]), 10, 64)
	if err != nil {
		return Header{}, false
	}
	sequence, err := strconv.ParseUint(string(parts[1]), 10, 64)
	if err != nil {
		return Header{}, false
	}
	startTS, err := strconv.ParseUint(string(parts[2]), 10, 64)
	if err != nil {
		return Header{}, false
	}
	absOffset, err := strconv.ParseUint(string(parts[3]), 10, 64)
	if err != nil {
		return Header{}, false
	}

	nul := bytes.IndexByte(parts[4], 0)
	if nul < 0 {
		return Header{}, false
	}

	return Header{
		WriterID:       writerID,
		Sequence:       sequence,
		StartTSMicros:  startTS,
		AbsoluteOffset: absOffset,
		Payload:        parts[4][:nul],
	}, true
}
