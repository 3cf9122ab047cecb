// Package workflow defines the recorded workflow container and its on-disk
// storage.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/louis030195/bigbrother/internal/event"
)

// Workflow is a named, ordered recording of events representing one user
// session. Insertion order is the chronology contract: producers are
// independent goroutines funneled through one queue, so stored order is
// "as delivered to the consumer", not a strict cross-thread wall-clock
// ordering.
type Workflow struct {
	ID        string        `json:"id"         yaml:"id"`
	Name      string        `json:"name"       yaml:"name"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Events    []event.Event `json:"events"     yaml:"events"`
}

// New creates an empty workflow anchored at the current time.
func New(name string) *Workflow {
	return &Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// Append adds one event. Timestamps are expected to be non-decreasing in
// append order.
func (w *Workflow) Append(ev event.Event) {
	w.Events = append(w.Events, ev)
}

// Duration returns the recorded span, the timestamp of the last event.
func (w *Workflow) Duration() time.Duration {
	if len(w.Events) == 0 {
		return 0
	}
	return time.Duration(w.Events[len(w.Events)-1].T) * time.Millisecond
}
