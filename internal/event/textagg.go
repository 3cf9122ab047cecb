package event

import (
	"strings"
	"time"
)

// TextAggregator folds consecutive printable keystrokes into one text run.
// It is a two-state machine: idle when the buffer is empty, accumulating
// otherwise. A printable key appends to the buffer and re-arms the quiet
// timer. The buffer is flushed as a single text event when the quiet
// timeout elapses, or immediately before any non-text action (non-printable
// key, click, scroll, stop), so a recorded text run never spans past a
// user action.
type TextAggregator struct {
	quiet time.Duration
	buf   strings.Builder
	last  time.Time
}

// NewTextAggregator creates an aggregator with the given quiet timeout.
func NewTextAggregator(quiet time.Duration) *TextAggregator {
	return &TextAggregator{quiet: quiet}
}

// Append adds a printable character at the given instant and re-arms the
// quiet timer.
func (a *TextAggregator) Append(ch rune, now time.Time) {
	a.buf.WriteRune(ch)
	a.last = now
}

// Pending reports whether characters are buffered.
func (a *TextAggregator) Pending() bool { return a.buf.Len() > 0 }

// FlushIfQuiet returns the buffered text when the quiet timeout has elapsed
// since the last keystroke. Called on every processed event.
func (a *TextAggregator) FlushIfQuiet(now time.Time) (string, bool) {
	if a.buf.Len() == 0 || now.Sub(a.last) < a.quiet {
		return "", false
	}
	return a.Flush()
}

// Flush unconditionally drains the buffer, returning false when empty.
func (a *TextAggregator) Flush() (string, bool) {
	if a.buf.Len() == 0 {
		return "", false
	}
	s := a.buf.String()
	a.buf.Reset()
	return s, true
}
