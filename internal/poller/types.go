// internal/poller/types.go
package poller

import "time"

// PollResult is the outcome of one status read.
type PollResult struct {
	Hub string
	At  time.Time

	// Word is the raw status word. Only meaningful when Err is nil.
	Word uint16

	Err error // non-nil means the read failed
}

// OK reports whether the poll produced a word.
func (r PollResult) OK() bool { return r.Err == nil }
