// Package platform defines the capability interfaces the automation core
// consumes: accessibility tree access, input injection, focus polling, the
// raw input hook, and the permission check. The core (selector, locator,
// recorder, replay) is implemented once against these interfaces; backend
// selection happens at startup via Provider registration, never inside the
// core logic.
package platform

// Attr names an accessibility attribute queryable on a Node.
type Attr string

const (
	AttrRole        Attr = "role"
	AttrTitle       Attr = "title"
	AttrValue       Attr = "value"
	AttrDescription Attr = "description"
)

// Node is an opaque reference to a live accessibility element. It is valid
// only within the current process and session and must never be persisted;
// recordings carry selector snapshots instead.
type Node interface {
	// Attr fetches one attribute value. A missing attribute is an error.
	Attr(a Attr) (string, error)

	// Children enumerates the element's direct children.
	Children() ([]Node, error)

	// Bounds returns the element's screen rectangle.
	Bounds() (Bounds, error)

	// Focus gives the element keyboard focus.
	Focus() error
}

// Tree provides traversal roots in the live accessibility tree.
type Tree interface {
	// Desktop returns the system-wide root.
	Desktop() (Node, error)

	// App returns the subtree root for the named running application.
	App(name string) (Node, error)
}

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	Scroll(x, y int, dx, dy int) error
	TypeText(text string, delayMs int) error
	PressKey(code uint16) error
	KeyCombo(keys []string) error
}

// AppInfo identifies the frontmost application and window.
type AppInfo struct {
	Name   string `json:"name"             yaml:"name"`
	PID    int    `json:"pid"              yaml:"pid"`
	Window string `json:"window,omitempty" yaml:"window,omitempty"`
}

// Focuser polls and drives application focus.
type Focuser interface {
	// FrontmostApp returns the currently focused application and window.
	FrontmostApp() (AppInfo, error)

	// Activate brings the named application to the front.
	Activate(name string) error
}

// RawKind discriminates raw device events delivered by an InputHook.
type RawKind int

const (
	RawMove RawKind = iota
	RawButtonDown
	RawScroll
	RawKeyDown
)

// RawEvent is one device event as delivered by the OS input hook, before
// any shaping or aggregation.
type RawEvent struct {
	Kind      RawKind
	X, Y      float64 // pointer position (move)
	Button    int     // 0=left 1=right 2=middle
	Clicks    int     // click count from the OS (double/triple)
	Modifiers int     // modifier mask
	DX, DY    int     // scroll deltas
	KeyCode   uint16  // virtual key code
	Char      rune    // printable character, when Printable
	Printable bool
}

// InputHook delivers raw device events to a callback from a dedicated OS
// hook thread. The callback runs synchronously inside the OS delivery
// context and must never block.
//
// Stop is best-effort: a hook parked inside a native blocking call may not
// observe the stop request until its next event fires, so shutdown latency
// is bounded in practice but not guaranteed promptly. Platform limitation,
// not a defect.
type InputHook interface {
	Start(fn func(RawEvent)) error
	Stop() error
}

// Permissions checks and acquires OS automation trust. Check is idempotent
// and cheap; callers invoke it once at startup, never inside hot paths.
type Permissions interface {
	// Check reports whether accessibility and input monitoring are granted.
	Check() PermissionStatus

	// Request triggers the OS permission prompt where applicable and
	// returns the resulting status.
	Request() PermissionStatus
}

// PermissionStatus reports per-capability permission grants.
type PermissionStatus struct {
	Accessibility   bool `json:"accessibility"    yaml:"accessibility"`
	InputMonitoring bool `json:"input_monitoring" yaml:"input_monitoring"`
}

// AllGranted reports whether every required permission is granted.
func (p PermissionStatus) AllGranted() bool {
	return p.Accessibility && p.InputMonitoring
}
