package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/louis030195/bigbrother/internal/event"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/platform/fake"
	"github.com/louis030195/bigbrother/internal/workflow"
)

// quietFocuser never produces focus events, keeping tests deterministic.
func quietFocuser() *fake.Focuser {
	return &fake.Focuser{Err: errors.New("no focus in this test")}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TextQuietTimeout = 20 * time.Millisecond
	cfg.FocusPollInterval = 5 * time.Millisecond
	return cfg
}

// session pairs a running capture with its workflow for terse tests.
type session struct {
	H *Handle
	W *workflow.Workflow
}

func start(t *testing.T, hook *fake.Hook, focus platform.Focuser, tree platform.Tree, cfg Config) (*Recorder, *session) {
	t.Helper()
	r := New(hook, focus, tree, cfg)
	w, h, err := r.Start("test")
	if err != nil {
		t.Fatal(err)
	}
	return r, &session{H: h, W: w}
}

func TestRecorder_MoveThresholdApplied(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 2, Y: 0})  // below 5px
	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 10, Y: 0}) // 10px from origin
	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 12, Y: 0}) // 2px from last reported

	if err := s.H.Stop(s.W); err != nil {
		t.Fatal(err)
	}

	moves := eventsOfType(s.W.Events, event.TypeMove)
	if len(moves) != 1 {
		t.Fatalf("expected exactly 1 recorded move, got %d: %+v", len(moves), moves)
	}
	if moves[0].X != 10 {
		t.Fatalf("recorded move at x=%d, want 10", moves[0].X)
	}
}

func TestRecorder_ClickUsesLastReportedPosition(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 100, Y: 100})
	// Drift below the threshold, then click: the click is stamped with the
	// last *reported* position, an imprecision bounded by the threshold.
	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 102, Y: 101})
	hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 0, Clicks: 1})

	s.H.Stop(s.W)

	clicks := eventsOfType(s.W.Events, event.TypeClick)
	if len(clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(clicks))
	}
	if clicks[0].X != 100 || clicks[0].Y != 100 {
		t.Fatalf("click at (%d,%d), want the reported (100,100)", clicks[0].X, clicks[0].Y)
	}
}

func TestRecorder_TextAggregation_SingleRun(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	for _, ch := range "hello" {
		hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: ch})
	}
	s.H.Stop(s.W)

	texts := eventsOfType(s.W.Events, event.TypeText)
	if len(texts) != 1 || texts[0].S != "hello" {
		t.Fatalf("expected one text event %q, got %+v", "hello", texts)
	}
}

func TestRecorder_TextAggregation_QuietTimeoutSplitsRuns(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	for _, ch := range "hi" {
		hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: ch})
	}
	time.Sleep(40 * time.Millisecond) // past the 20ms quiet timeout
	for _, ch := range "there" {
		hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: ch})
	}
	s.H.Stop(s.W)

	texts := eventsOfType(s.W.Events, event.TypeText)
	if len(texts) != 2 || texts[0].S != "hi" || texts[1].S != "there" {
		t.Fatalf("expected runs [hi there], got %+v", texts)
	}
}

func TestRecorder_ClickFlushesPendingText(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: 'a'})
	hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 0})
	s.H.Stop(s.W)

	evs := s.W.Events
	if len(evs) != 2 {
		t.Fatalf("expected [text click], got %+v", evs)
	}
	if evs[0].Type != event.TypeText || evs[0].S != "a" {
		t.Fatalf("text must be flushed before the click, got %+v", evs)
	}
	if evs[1].Type != event.TypeClick {
		t.Fatalf("expected click after flush, got %+v", evs)
	}
}

func TestRecorder_NonPrintableKeyFlushesText(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: 'x'})
	hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, KeyCode: 36}) // return
	s.H.Stop(s.W)

	evs := s.W.Events
	if len(evs) != 2 || evs[0].Type != event.TypeText || evs[1].Type != event.TypeKey {
		t.Fatalf("expected [text key], got %+v", evs)
	}
	if evs[1].K != 36 {
		t.Fatalf("key code lost: %+v", evs[1])
	}
}

func TestRecorder_DrainFlushesPendingText(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	for _, ch := range "hi" {
		hook.Emit(platform.RawEvent{Kind: platform.RawKeyDown, Printable: true, Char: ch})
	}
	s.H.Drain(s.W)

	texts := eventsOfType(s.W.Events, event.TypeText)
	if len(texts) != 1 || texts[0].S != "hi" {
		t.Fatalf("mid-session drain must flush the pending run, got %+v", s.W.Events)
	}

	s.H.Stop(s.W)
	if texts := eventsOfType(s.W.Events, event.TypeText); len(texts) != 1 {
		t.Fatalf("flushed run must not reappear on stop: %+v", texts)
	}
}

func TestRecorder_FocusEventsDeduplicated(t *testing.T) {
	hook := &fake.Hook{}
	focus := &fake.Focuser{}
	focus.Set("A", 1, "Win1")
	cfg := testConfig()
	_, s := start(t, hook, focus, nil, cfg)

	time.Sleep(30 * time.Millisecond)
	focus.Set("A", 1, "Win2")
	time.Sleep(30 * time.Millisecond)
	focus.Set("B", 2, "Win3")
	time.Sleep(30 * time.Millisecond)
	s.H.Stop(s.W)

	var kinds []string
	for _, ev := range s.W.Events {
		switch ev.Type {
		case event.TypeApp:
			kinds = append(kinds, "app:"+ev.A)
		case event.TypeWindow:
			kinds = append(kinds, "win:"+ev.W)
		}
	}
	want := []string{"app:A", "win:Win1", "win:Win2", "app:B", "win:Win3"}
	if len(kinds) != len(want) {
		t.Fatalf("focus events not deduplicated: %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("focus sequence mismatch at %d: %v want %v", i, kinds, want)
		}
	}
}

func TestRecorder_QueueOverflowDropsNewest(t *testing.T) {
	hook := &fake.Hook{}
	cfg := testConfig()
	cfg.MaxBufferedEvents = 10
	_, s := start(t, hook, quietFocuser(), nil, cfg)

	// Flood with no consumer: clicks are never coalesced, so each emits one
	// event until the queue is full.
	for i := 0; i < 100; i++ {
		hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 0})
	}

	if s.H.Dropped() == 0 {
		t.Fatal("flood past capacity must observably drop")
	}
	s.H.Stop(s.W)
	if len(s.W.Events) > 10 {
		t.Fatalf("queue exceeded its bound: %d events", len(s.W.Events))
	}
	if got := s.H.Dropped(); got != 90 {
		t.Fatalf("expected 90 drops, got %d", got)
	}
}

func TestRecorder_TimestampsNonDecreasing(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	for i := 0; i < 20; i++ {
		hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: float64(i * 10), Y: 0})
	}
	s.H.Stop(s.W)

	var last uint64
	for _, ev := range s.W.Events {
		if ev.T < last {
			t.Fatalf("timestamps must be non-decreasing in stored order: %d after %d", ev.T, last)
		}
		last = ev.T
	}
}

func TestRecorder_LateStampClampedToHighWater(t *testing.T) {
	// The focus poller can stamp an event, lose the CPU while the hook
	// enqueues a later-stamped one, and only then enqueue its own. The
	// stored sequence must still be non-decreasing.
	h := &Handle{ch: make(chan event.Event, 4)}
	h.push(event.Event{T: 100, Type: event.TypeClick})
	h.push(event.Event{T: 40, Type: event.TypeApp, A: "Mail"})
	h.push(event.Event{T: 120, Type: event.TypeMove})

	want := []uint64{100, 100, 120}
	for i, w := range want {
		if ev := <-h.ch; ev.T != w {
			t.Fatalf("event %d stored with t=%d, want %d", i, ev.T, w)
		}
	}
}

func TestRecorder_ContextCapture(t *testing.T) {
	root := fake.El("window", "Demo").WithBounds(0, 0, 1000, 1000)
	button := fake.El("button", "Send").WithBounds(90, 90, 40, 20)
	root.Kids = []*fake.Node{button}
	tree := &fake.Tree{Root: root}

	hook := &fake.Hook{}
	cfg := testConfig()
	cfg.CaptureElementContext = true
	_, s := start(t, hook, quietFocuser(), tree, cfg)

	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 100, Y: 100})
	hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 0})
	s.H.Stop(s.W)

	clicks := eventsOfType(s.W.Events, event.TypeClick)
	if len(clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(clicks))
	}
	if clicks[0].Sel != "role:button AND title:Send" {
		t.Fatalf("context selector = %q", clicks[0].Sel)
	}
}

// unboundedNode exposes children but no readable screen rectangle, like the
// desktop root and app-level accessibility elements.
type unboundedNode struct {
	*fake.Node
}

func (n unboundedNode) Bounds() (platform.Bounds, error) {
	return platform.Bounds{}, errors.New("no position attribute")
}

type unboundedRootTree struct {
	root platform.Node
}

func (t unboundedRootTree) Desktop() (platform.Node, error) { return t.root, nil }

func (t unboundedRootTree) App(string) (platform.Node, error) {
	return nil, errors.New("not scripted")
}

func TestRecorder_ContextCapture_UnboundedRootIsTransparent(t *testing.T) {
	app := fake.El("application", "Demo")
	button := fake.El("button", "Send").WithBounds(90, 90, 40, 20)
	app.Kids = []*fake.Node{button}
	tree := unboundedRootTree{root: unboundedNode{app}}

	hook := &fake.Hook{}
	cfg := testConfig()
	cfg.CaptureElementContext = true
	_, s := start(t, hook, quietFocuser(), tree, cfg)

	hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 100, Y: 100})
	hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 0})
	s.H.Stop(s.W)

	clicks := eventsOfType(s.W.Events, event.TypeClick)
	if len(clicks) != 1 {
		t.Fatalf("expected 1 click, got %d", len(clicks))
	}
	// Hit-testing must pass through the unbounded container to its bounded
	// descendant instead of treating it as a miss.
	if clicks[0].Sel != "role:button AND title:Send" {
		t.Fatalf("context selector = %q", clicks[0].Sel)
	}
}

func TestRecorder_StopStopsHookAndIsIdempotent(t *testing.T) {
	hook := &fake.Hook{}
	_, s := start(t, hook, quietFocuser(), nil, testConfig())

	if !s.H.Running() {
		t.Fatal("session should be running")
	}
	if err := s.H.Stop(s.W); err != nil {
		t.Fatal(err)
	}
	if s.H.Running() {
		t.Fatal("session should have stopped")
	}
	if !hook.Stopped {
		t.Fatal("hook must be asked to stop")
	}
	// Second stop is a no-op.
	if err := s.H.Stop(s.W); err != nil {
		t.Fatal(err)
	}
	// Events emitted after stop are ignored.
	before := len(s.W.Events)
	hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown})
	s.H.Drain(s.W)
	if len(s.W.Events) != before {
		t.Fatal("post-stop events must be discarded")
	}
}

func TestStream_DeliversAndCloses(t *testing.T) {
	hook := &fake.Hook{}
	r := New(hook, quietFocuser(), nil, testConfig())
	st, err := r.Stream()
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		hook.Emit(platform.RawEvent{Kind: platform.RawMove, X: 50, Y: 50})
		hook.Emit(platform.RawEvent{Kind: platform.RawButtonDown, Button: 1})
		st.Stop()
	}()

	var got []event.Event
	for ev := range st.Events() {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 streamed events, got %+v", got)
	}
	if got[0].Type != event.TypeMove || got[1].Type != event.TypeClick {
		t.Fatalf("stream order mismatch: %+v", got)
	}
	if got[1].B != 1 {
		t.Fatalf("button lost in stream: %+v", got[1])
	}
}

func eventsOfType(evs []event.Event, typ event.Type) []event.Event {
	var out []event.Event
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
