package event

import (
	"reflect"
	"testing"
)

// The deduplication contract: repeated polls of the same focus state emit
// nothing; a window change emits only a window event; an app change emits an
// app event followed by a window event.
func TestFocusTracker_Sequence(t *testing.T) {
	f := &FocusTracker{}
	var got []Event

	samples := []struct {
		app    string
		pid    int
		window string
	}{
		{"A", 1, "Win1"},
		{"A", 1, "Win1"},
		{"A", 1, "Win2"},
		{"B", 2, "Win3"},
	}
	for i, s := range samples {
		got = append(got, f.Observe(uint64(i*100), s.app, s.pid, s.window)...)
	}

	want := []Event{
		{T: 0, Type: TypeApp, A: "A", P: 1},
		{T: 0, Type: TypeWindow, A: "A", W: "Win1"},
		{T: 200, Type: TypeWindow, A: "A", W: "Win2"},
		{T: 300, Type: TypeApp, A: "B", P: 2},
		{T: 300, Type: TypeWindow, A: "B", W: "Win3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("focus sequence mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFocusTracker_PIDChangeIsAppChange(t *testing.T) {
	f := &FocusTracker{}
	f.Observe(0, "A", 1, "W")
	// Same name, new pid: app relaunched.
	evs := f.Observe(100, "A", 2, "W")
	if len(evs) != 2 || evs[0].Type != TypeApp || evs[1].Type != TypeWindow {
		t.Fatalf("pid change should emit app then window, got %+v", evs)
	}
}
