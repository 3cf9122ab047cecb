package event

// FocusTracker deduplicates focus-poll samples into app and window events.
// An app event is emitted only when (name, pid) changes; a window event when
// the title changes or the app changes. On an app change the window event
// always follows the app event, so a consumer sees app then window.
type FocusTracker struct {
	app    string
	pid    int
	window string
	seen   bool
}

// Observe takes one focus-poll sample and returns the zero, one, or two
// events it produces. The first sample always yields app then window.
func (f *FocusTracker) Observe(t uint64, app string, pid int, window string) []Event {
	appChanged := !f.seen || app != f.app || pid != f.pid
	windowChanged := appChanged || window != f.window

	var out []Event
	if appChanged {
		out = append(out, Event{T: t, Type: TypeApp, A: app, P: pid})
		f.app = app
		f.pid = pid
	}
	if windowChanged {
		out = append(out, Event{T: t, Type: TypeWindow, A: app, W: window})
		f.window = window
	}
	f.seen = true
	return out
}
