package replay

import (
	"errors"
	"testing"
	"time"

	"github.com/louis030195/bigbrother/internal/event"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/platform/fake"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/louis030195/bigbrother/internal/workflow"
)

func recorded() *workflow.Workflow {
	w := workflow.New("session")
	w.Append(event.Event{T: 0, Type: event.TypeApp, A: "Notes", P: 7})
	w.Append(event.Event{T: 10, Type: event.TypeMove, X: 30, Y: 40})
	w.Append(event.Event{T: 150, Type: event.TypeClick, X: 30, Y: 40, B: 0, N: 1})
	w.Append(event.Event{T: 420, Type: event.TypeText, S: "hello"})
	w.Append(event.Event{T: 600, Type: event.TypeKey, K: 36})
	w.Append(event.Event{T: 700, Type: event.TypeScroll, X: 30, Y: 40, DY: -2})
	return w
}

func newTestReplayer(input *fake.Inputter, tree *fake.Tree, focus *fake.Focuser) (*Replayer, *[]time.Duration) {
	r := New(input, treeOrNil(tree), focusOrNil(focus))
	var sleeps []time.Duration
	r.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return r, &sleeps
}

// treeOrNil avoids handing the replayer a typed-nil interface value.
func treeOrNil(t *fake.Tree) platform.Tree {
	if t == nil {
		return nil
	}
	return t
}

func focusOrNil(f *fake.Focuser) platform.Focuser {
	if f == nil {
		return nil
	}
	return f
}

func TestReplay_OrderAndCounts(t *testing.T) {
	input := &fake.Inputter{}
	focus := &fake.Focuser{}
	r, _ := newTestReplayer(input, nil, focus)

	stats, err := r.Replay(recorded())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Replayed != 6 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	want := []string{
		"move(30,40)",
		"click(30,40,b0,n1)",
		`type("hello")`,
		"key(36)",
		"scroll(30,40,0,-2)",
	}
	if len(input.Calls) != len(want) {
		t.Fatalf("calls = %v", input.Calls)
	}
	for i := range want {
		if input.Calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, input.Calls[i], want[i])
		}
	}
	if len(focus.Activated) != 1 || focus.Activated[0] != "Notes" {
		t.Fatalf("app event should activate, got %v", focus.Activated)
	}
}

func TestReplay_PacingUsesRecordedGaps(t *testing.T) {
	input := &fake.Inputter{}
	r, sleeps := newTestReplayer(input, nil, nil)

	if _, err := r.Replay(recorded()); err != nil {
		t.Fatal(err)
	}
	// Gaps: 10, 140, 270, 180, 100 ms (the t=0 event sleeps nothing).
	want := []time.Duration{10, 140, 270, 180, 100}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v", *sleeps)
	}
	var total time.Duration
	for i, d := range *sleeps {
		if d != want[i]*time.Millisecond {
			t.Fatalf("gap %d = %s, want %sms", i, d, want[i])
		}
		total += d
	}
	if total != 700*time.Millisecond {
		t.Fatalf("total pacing %s, want the recorded span 700ms", total)
	}
}

func TestReplay_SpeedFactorScalesGaps(t *testing.T) {
	input := &fake.Inputter{}
	r, sleeps := newTestReplayer(input, nil, nil)
	r.Speed(0.5)

	if _, err := r.Replay(recorded()); err != nil {
		t.Fatal(err)
	}
	if (*sleeps)[0] != 5*time.Millisecond {
		t.Fatalf("0.5x speed should halve the 10ms gap, got %s", (*sleeps)[0])
	}
}

func TestReplay_ContextSelectorRebinds(t *testing.T) {
	// The button moved since recording; the selector re-binds to its new
	// position instead of the recorded coordinates.
	tree := &fake.Tree{Root: fake.El("window", "Demo",
		fake.El("button", "Send").WithBounds(400, 400, 40, 20),
	)}
	input := &fake.Inputter{}
	r, _ := newTestReplayer(input, tree, nil)

	w := workflow.New("ctx")
	w.Append(event.Event{T: 0, Type: event.TypeClick, X: 10, Y: 10, Sel: "role:button AND title:Send"})

	stats, err := r.Replay(w)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Replayed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if input.Calls[0] != "click(420,410,b0,n1)" {
		t.Fatalf("click should land at the live element center, got %q", input.Calls[0])
	}
}

func TestReplay_BestEffortSkipsUnresolved(t *testing.T) {
	tree := &fake.Tree{Root: fake.El("window", "Demo")}
	input := &fake.Inputter{}
	r, _ := newTestReplayer(input, tree, nil)
	r.ResolveTimeout(30 * time.Millisecond)

	w := workflow.New("drift")
	w.Append(event.Event{T: 0, Type: event.TypeClick, X: 10, Y: 10, Sel: "role:button AND title:Gone"})
	w.Append(event.Event{T: 5, Type: event.TypeMove, X: 1, Y: 2})

	stats, err := r.Replay(w)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Replayed != 1 {
		t.Fatalf("best-effort should skip and continue: %+v", stats)
	}
	if len(input.Calls) != 1 || input.Calls[0] != "move(1,2)" {
		t.Fatalf("later events must still replay: %v", input.Calls)
	}
}

func TestReplay_FailFastAborts(t *testing.T) {
	tree := &fake.Tree{Root: fake.El("window", "Demo")}
	input := &fake.Inputter{}
	r, _ := newTestReplayer(input, tree, nil)
	r.SetMode(FailFast).ResolveTimeout(30 * time.Millisecond)

	w := workflow.New("drift")
	w.Append(event.Event{T: 0, Type: event.TypeClick, X: 10, Y: 10, Sel: "role:button AND title:Gone"})
	w.Append(event.Event{T: 5, Type: event.TypeMove, X: 1, Y: 2})

	stats, err := r.Replay(w)
	if uierr.CodeOf(err) != uierr.ElementNotFound {
		t.Fatalf("fail-fast should surface the resolution error, got %v", err)
	}
	if stats.Failed != 1 || stats.Replayed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(input.Calls) != 0 {
		t.Fatalf("no events should replay after the abort: %v", input.Calls)
	}
}

func TestReplay_InjectionFailureCountsAsFailed(t *testing.T) {
	input := &fake.Inputter{Err: errors.New("event tap rejected")}
	r, _ := newTestReplayer(input, nil, nil)

	w := workflow.New("bad")
	w.Append(event.Event{T: 0, Type: event.TypeMove, X: 1, Y: 1})
	w.Append(event.Event{T: 1, Type: event.TypeMove, X: 9, Y: 9})

	stats, err := r.Replay(w)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 2 || stats.Replayed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReplay_TextIsOneInsertionCall(t *testing.T) {
	input := &fake.Inputter{}
	r, _ := newTestReplayer(input, nil, nil)

	w := workflow.New("text")
	w.Append(event.Event{T: 0, Type: event.TypeText, S: "hello world"})

	if _, err := r.Replay(w); err != nil {
		t.Fatal(err)
	}
	if len(input.Calls) != 1 || input.Calls[0] != `type("hello world")` {
		t.Fatalf("text must replay as one insertion, got %v", input.Calls)
	}
}
