package transport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Inflater decompresses gzip-compressed WebSocket binary frames into a
// fixed-size buffer. Per §9's "global mutable state" note, an Inflater is
// owned by exactly one feed worker's goroutine and never shared — there is
// no process-wide scratch buffer.
type Inflater struct {
	limit int
	buf   []byte // len is limit+1: the extra byte lets Inflate detect overflow
	src   *bytes.Reader
	gz    *gzip.Reader
}

// NewInflater builds an Inflater whose output buffer holds at most limit
// bytes (the slot stride S, per §4.4).
func NewInflater(limit int) *Inflater {
	return &Inflater{
		limit: limit,
		buf:   make([]byte, limit+1),
		src:   bytes.NewReader(nil),
	}
}

// Inflate decompresses compressed into the Inflater's internal buffer and
// returns the decompressed slice, valid until the next call to Inflate. If
// the decompressed size exceeds limit, it returns an error — a transient,
// per-frame condition per §7 ("inflate failure on a single frame"), not a
// fatal one.
func (inf *Inflater) Inflate(compressed []byte) ([]byte, error) {
	inf.src.Reset(compressed)

	if inf.gz == nil {
		gz, err := gzip.NewReader(inf.src)
		if err != nil {
			return nil, fmt.Errorf("inflate: %w", err)
		}
		inf.gz = gz
	} else if err := inf.gz.Reset(inf.src); err != nil {
		return nil, fmt.Errorf("inflate: reset: %w", err)
	}

	n, err := io.ReadFull(inf.gz, inf.buf)
	switch {
	case err == nil:
		// Filled limit+1 bytes: the message does not fit in the buffer.
	case err == io.ErrUnexpectedEOF, err == io.EOF:
		err = nil
	default:
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if err != nil {
		return nil, err
	}
	if n > inf.limit {
		return nil, fmt.Errorf("inflate: decompressed size exceeds buffer limit %d", inf.limit)
	}
	return inf.buf[:n], nil
}
