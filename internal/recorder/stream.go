package recorder

import "github.com/louis030195/bigbrother/internal/event"

// Stream is a live event sequence for direct consumption. Each call to
// Stream() on the recorder produces a fresh capture session; the sequence
// is lazy and not rewindable. The channel closes after Stop once buffered
// events have been delivered.
type Stream struct {
	h   *Handle
	out chan event.Event
}

// Stream begins capture and returns the live sequence.
func (r *Recorder) Stream() (*Stream, error) {
	h, err := r.startCapture()
	if err != nil {
		return nil, err
	}
	s := &Stream{h: h, out: make(chan event.Event)}
	go s.pump()
	return s, nil
}

func (s *Stream) pump() {
	defer close(s.out)
	for {
		select {
		case ev := <-s.h.ch:
			s.out <- ev
		case <-s.h.done:
			// Producers are joined; drain the remainder and end.
			for {
				select {
				case ev := <-s.h.ch:
					s.out <- ev
				default:
					return
				}
			}
		}
	}
}

// Events returns the receive side of the live sequence.
func (s *Stream) Events() <-chan event.Event { return s.out }

// Dropped reports queue-overflow losses so far.
func (s *Stream) Dropped() uint64 { return s.h.Dropped() }

// Running reports whether capture is still active.
func (s *Stream) Running() bool { return s.h.Running() }

// Stop ends capture. Buffered events still flow out before the channel
// closes.
func (s *Stream) Stop() error {
	return s.h.stopAndJoin()
}
