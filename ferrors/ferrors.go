// Package ferrors carries the fatal/transient error taxonomy of §7: a
// Fatal halts the owning worker and, via the orchestrator's error group,
// the whole process; anything else is transient and handled inline by the
// caller (logged and discarded, not counted).
package ferrors

import "fmt"

// Kind distinguishes the two fatal error classes named in §7.
type Kind string

const (
	// Configuration covers stride-too-small, mapping resize failure, and
	// every failure of the instrument catalog fetch: zero instruments after
	// filtering, and an error status reported by the exchange, are both
	// reported with this kind.
	Configuration Kind = "configuration"
	// Protocol covers routing misses and inbound frames the feed worker
	// cannot classify. A frame exceeding the slot stride is not reported
	// through a Fatal: writer.Write panics instead.
	Protocol Kind = "protocol"
)

// Fatal is a configuration or protocol fatal condition. Its presence on an
// error returned from a feed worker or the orchestrator means the process
// must halt with a non-zero exit code.
type Fatal struct {
	Kind Kind
	Err  error
}

func (f *Fatal) Error() string { return fmt.Sprintf("%s fatal: %v", f.Kind, f.Err) }
func (f *Fatal) Unwrap() error { return f.Err }

// Configf builds a Configuration fatal.
func Configf(format string, args ...any) error {
	return &Fatal{Kind: Configuration, Err: fmt.Errorf(format, args...)}
}

// Protocolf builds a Protocol fatal.
func Protocolf(format string, args ...any) error {
	return &Fatal{Kind: Protocol, Err: fmt.Errorf(format, args...)}
}
