// Package recorder captures user interaction sessions. Two producers, the
// OS input hook and a focus poller, funnel shaped events through one
// bounded queue. The queue is the sole hand-off point; the producers share
// only an atomic stop flag and the enqueue path, which stamps events in
// non-decreasing time order.
//
// Capture is best-effort, at-most-once: when the queue is full the newest
// event is dropped rather than blocking the producer. Blocking the hook
// callback would stall system-wide input delivery, which is never an
// acceptable side effect of recording.
package recorder

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/louis030195/bigbrother/internal/event"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/selector"
	"github.com/louis030195/bigbrother/internal/workflow"
)

// Config holds recorder options.
type Config struct {
	// PointerMoveThreshold is the minimum pixel distance between recorded
	// moves.
	PointerMoveThreshold float64

	// TextQuietTimeout is the inactivity window that flushes aggregated
	// text as one event.
	TextQuietTimeout time.Duration

	// MaxBufferedEvents bounds the event queue. Overflow drops the newest
	// event.
	MaxBufferedEvents int

	// CaptureElementContext attaches a selector snapshot to click events so
	// replay can re-bind them to live elements.
	CaptureElementContext bool

	// FocusPollInterval is the frontmost-app sampling period.
	FocusPollInterval time.Duration

	// Log receives producer-side diagnostics. Individual delivery failures
	// are logged and swallowed so one bad raw event cannot halt capture.
	Log logr.Logger
}

// DefaultConfig mirrors the recorded-contract defaults: 5px move threshold,
// 300ms text quiet timeout, 10000 buffered events, context capture off.
func DefaultConfig() Config {
	return Config{
		PointerMoveThreshold: 5.0,
		TextQuietTimeout:     300 * time.Millisecond,
		MaxBufferedEvents:    10000,
		FocusPollInterval:    100 * time.Millisecond,
		Log:                  logr.Discard(),
	}
}

// Recorder starts capture sessions against the platform capabilities.
type Recorder struct {
	cfg   Config
	hook  platform.InputHook
	focus platform.Focuser
	tree  platform.Tree // only consulted for context capture; may be nil
}

// New creates a recorder. tree may be nil when context capture is disabled.
func New(hook platform.InputHook, focus platform.Focuser, tree platform.Tree, cfg Config) *Recorder {
	if cfg.MaxBufferedEvents <= 0 {
		cfg.MaxBufferedEvents = DefaultConfig().MaxBufferedEvents
	}
	if cfg.FocusPollInterval <= 0 {
		cfg.FocusPollInterval = DefaultConfig().FocusPollInterval
	}
	if cfg.Log.GetSink() == nil {
		cfg.Log = logr.Discard()
	}
	return &Recorder{cfg: cfg, hook: hook, focus: focus, tree: tree}
}

// Handle controls one running capture session.
type Handle struct {
	ch       chan event.Event
	stop     atomic.Bool
	stopOnce sync.Once
	done     chan struct{} // closed once producers have been joined
	wg       sync.WaitGroup
	drops    atomic.Uint64
	hook     platform.InputHook
	shaper   *shaper
	started  time.Time

	pushMu sync.Mutex
	lastT  uint64 // high-water timestamp, guarded by pushMu
}

// Start begins capture into a new workflow. The workflow fills on Drain and
// Stop; events observed in between stay buffered in the queue.
func (r *Recorder) Start(name string) (*workflow.Workflow, *Handle, error) {
	w := workflow.New(name)
	h, err := r.startCapture()
	if err != nil {
		return nil, nil, err
	}
	return w, h, nil
}

// Drain moves currently buffered events into the workflow without stopping
// capture. A pending text run is flushed first; an explicit drain must not
// hide input typed since the last flush.
func (h *Handle) Drain(w *workflow.Workflow) {
	if ev, ok := h.shaper.finish(); ok {
		h.push(ev)
	}
	for {
		select {
		case ev := <-h.ch:
			w.Append(ev)
		default:
			return
		}
	}
}

// Stop ends the session: sets the stop flag, asks the hook to stop, joins
// the producers, flushes any pending text run, and drains buffered events
// into the workflow. Shutdown is bounded in practice but a hook parked in a
// native call may delay the join until its next event fires.
func (h *Handle) Stop(w *workflow.Workflow) error {
	err := h.stopAndJoin()
	h.Drain(w)
	return err
}

// stopAndJoin is the idempotent shutdown path shared by Handle and Stream.
func (h *Handle) stopAndJoin() error {
	var err error
	h.stopOnce.Do(func() {
		h.stop.Store(true)
		err = h.hook.Stop()
		h.wg.Wait()
		if ev, ok := h.shaper.finish(); ok {
			h.push(ev)
		}
		close(h.done)
	})
	return err
}

// Running reports whether the session is still capturing.
func (h *Handle) Running() bool { return !h.stop.Load() }

// Dropped returns the number of events discarded due to a full queue.
// Capture is lossy by contract; this makes the loss observable.
func (h *Handle) Dropped() uint64 { return h.drops.Load() }

// push enqueues without ever blocking the caller. Overflow drops the event.
// A producer can stamp an event, lose the CPU, and enqueue after the other
// producer's later-stamped event; clamping to the high-water mark inside
// the same critical section as the send keeps stored timestamps
// non-decreasing. The send itself never blocks, so the lock is short-lived.
func (h *Handle) push(ev event.Event) {
	h.pushMu.Lock()
	defer h.pushMu.Unlock()
	if ev.T < h.lastT {
		ev.T = h.lastT
	} else {
		h.lastT = ev.T
	}
	select {
	case h.ch <- ev:
	default:
		h.drops.Add(1)
	}
}

func (h *Handle) elapsed() uint64 {
	return uint64(time.Since(h.started) / time.Millisecond)
}

func (r *Recorder) startCapture() (*Handle, error) {
	h := &Handle{
		ch:      make(chan event.Event, r.cfg.MaxBufferedEvents),
		done:    make(chan struct{}),
		hook:    r.hook,
		started: time.Now(),
	}
	h.shaper = newShaper(r, h)

	if err := r.hook.Start(h.shaper.onRaw); err != nil {
		return nil, err
	}

	// Focus poller: the second producer. It shares only the stop flag and
	// the enqueue path with the hook callback.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		var tracker event.FocusTracker
		for !h.stop.Load() {
			info, err := r.focus.FrontmostApp()
			if err != nil {
				r.cfg.Log.V(1).Info("focus poll failed", "err", err.Error())
			} else {
				for _, ev := range tracker.Observe(h.elapsed(), info.Name, info.PID, info.Window) {
					h.push(ev)
				}
			}
			time.Sleep(r.cfg.FocusPollInterval)
		}
	}()

	return h, nil
}

// shaper applies the per-recording aggregation state to raw hook events.
// The hook delivers callbacks from a single OS thread, but Stop may flush
// concurrently, so the state is mutex-protected.
type shaper struct {
	mu      sync.Mutex
	r       *Recorder
	h       *Handle
	sampler *event.PointerSampler
	text    *event.TextAggregator
}

func newShaper(r *Recorder, h *Handle) *shaper {
	return &shaper{
		r:       r,
		h:       h,
		sampler: event.NewPointerSampler(r.cfg.PointerMoveThreshold),
		text:    event.NewTextAggregator(r.cfg.TextQuietTimeout),
	}
}

// onRaw runs synchronously inside the OS hook delivery context. It must
// never block: every enqueue goes through the lossy push.
func (s *shaper) onRaw(raw platform.RawEvent) {
	if s.h.stop.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := s.h.elapsed()

	// A quiet text buffer flushes before whatever this event produces, so
	// a text run never spans past a later action.
	if txt, ok := s.text.FlushIfQuiet(now); ok {
		s.h.push(event.Event{T: t, Type: event.TypeText, S: txt})
	}

	switch raw.Kind {
	case platform.RawMove:
		if s.sampler.Sample(raw.X, raw.Y) {
			x, y := s.sampler.Position()
			s.h.push(event.Event{T: t, Type: event.TypeMove, X: x, Y: y})
		}

	case platform.RawButtonDown:
		s.flushText(t)
		// Clicks are stamped with the last reported pointer position; the
		// imprecision is bounded by the move threshold and is part of the
		// recorded contract.
		x, y := s.sampler.Position()
		ev := event.Event{T: t, Type: event.TypeClick, X: x, Y: y, B: raw.Button, N: clicks(raw.Clicks), M: raw.Modifiers}
		if s.r.cfg.CaptureElementContext {
			ev.Sel = s.contextSelector(x, y)
		}
		s.h.push(ev)

	case platform.RawScroll:
		s.flushText(t)
		x, y := s.sampler.Position()
		s.h.push(event.Event{T: t, Type: event.TypeScroll, X: x, Y: y, DX: raw.DX, DY: raw.DY})

	case platform.RawKeyDown:
		if raw.Printable {
			s.text.Append(raw.Char, now)
			return
		}
		s.flushText(t)
		s.h.push(event.Event{T: t, Type: event.TypeKey, K: raw.KeyCode, M: raw.Modifiers})

	default:
		s.r.cfg.Log.V(1).Info("unknown raw event kind", "kind", int(raw.Kind))
	}
}

func (s *shaper) flushText(t uint64) {
	if txt, ok := s.text.Flush(); ok {
		s.h.push(event.Event{T: t, Type: event.TypeText, S: txt})
	}
}

// finish flushes the pending text run at session end.
func (s *shaper) finish() (event.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txt, ok := s.text.Flush(); ok {
		return event.Event{T: s.h.elapsed(), Type: event.TypeText, S: txt}, true
	}
	return event.Event{}, false
}

// contextSelector snapshots a selector for the deepest element under the
// click point. Failures are logged and produce an empty snapshot; context
// capture never blocks or fails the recording.
func (s *shaper) contextSelector(x, y int) string {
	if s.r.tree == nil {
		return ""
	}
	root, err := s.r.tree.Desktop()
	if err != nil {
		s.r.cfg.Log.V(1).Info("context capture: no desktop root", "err", err.Error())
		return ""
	}
	n := deepestAt(root, x, y, 0, selector.DefaultMaxDepth)
	if n == nil {
		return ""
	}
	return selector.Describe(n)
}

// deepestAt hit-tests the tree for the deepest node containing the point.
// Nodes without readable bounds (the desktop root, app-level containers)
// are transparent: the point may still land in a descendant, but the node
// itself is never a hit.
func deepestAt(n platform.Node, x, y, depth, maxDepth int) platform.Node {
	if n == nil || depth > maxDepth {
		return nil
	}
	b, err := n.Bounds()
	if err != nil {
		return deepestChildAt(n, x, y, depth, maxDepth)
	}
	if !b.Contains(x, y) {
		return nil
	}
	if hit := deepestChildAt(n, x, y, depth, maxDepth); hit != nil {
		return hit
	}
	return n
}

func deepestChildAt(n platform.Node, x, y, depth, maxDepth int) platform.Node {
	children, err := n.Children()
	if err != nil {
		return nil
	}
	for _, c := range children {
		if hit := deepestAt(c, x, y, depth+1, maxDepth); hit != nil {
			return hit
		}
	}
	return nil
}

func clicks(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
