package event

import (
	"testing"
	"time"
)

func TestTextAggregator_SingleRun(t *testing.T) {
	a := NewTextAggregator(300 * time.Millisecond)
	now := time.Unix(0, 0)

	for i, ch := range "hello" {
		a.Append(ch, now.Add(time.Duration(i)*50*time.Millisecond))
	}
	// Still within the quiet window.
	if _, ok := a.FlushIfQuiet(now.Add(260 * time.Millisecond)); ok {
		t.Fatal("flushed while still within quiet timeout")
	}
	s, ok := a.FlushIfQuiet(now.Add(600 * time.Millisecond))
	if !ok || s != "hello" {
		t.Fatalf("expected one flush of %q, got %q ok=%v", "hello", s, ok)
	}
	if a.Pending() {
		t.Fatal("buffer should be empty after flush")
	}
}

func TestTextAggregator_TwoRuns(t *testing.T) {
	a := NewTextAggregator(300 * time.Millisecond)
	now := time.Unix(0, 0)

	a.Append('h', now)
	a.Append('i', now.Add(50*time.Millisecond))

	// Pause past the timeout, then the next activity observes the flush.
	s, ok := a.FlushIfQuiet(now.Add(500 * time.Millisecond))
	if !ok || s != "hi" {
		t.Fatalf("first run: got %q ok=%v", s, ok)
	}

	for i, ch := range "there" {
		a.Append(ch, now.Add(time.Duration(600+i*50)*time.Millisecond))
	}
	s, ok = a.FlushIfQuiet(now.Add(2 * time.Second))
	if !ok || s != "there" {
		t.Fatalf("second run: got %q ok=%v", s, ok)
	}
}

func TestTextAggregator_ForcedFlush(t *testing.T) {
	a := NewTextAggregator(300 * time.Millisecond)
	a.Append('a', time.Unix(0, 0))

	s, ok := a.Flush()
	if !ok || s != "a" {
		t.Fatalf("forced flush: got %q ok=%v", s, ok)
	}
	if _, ok := a.Flush(); ok {
		t.Fatal("empty buffer must not flush")
	}
}
