// Package event defines the canonical recorded event model and the
// per-recording aggregation state machines that shape raw input into it.
package event

// Type discriminates recorded event variants.
type Type string

const (
	TypeMove   Type = "move"
	TypeClick  Type = "click"
	TypeScroll Type = "scroll"
	TypeKey    Type = "key"
	TypeText   Type = "text"
	TypeApp    Type = "app"
	TypeWindow Type = "window"
)

// Event is one timestamped user action. T is milliseconds relative to the
// start of the recording session. Field names are abbreviated to keep
// persisted recordings compact for agent consumption, matching the element
// tree conventions. An Event is immutable once produced.
type Event struct {
	T    uint64 `json:"t"              yaml:"t"`
	Type Type   `json:"type"           yaml:"type"`

	// Pointer variants (move, click, scroll).
	X int `json:"x,omitempty"    yaml:"x,omitempty"`
	Y int `json:"y,omitempty"    yaml:"y,omitempty"`

	// Click fields: button (0=left 1=right 2=middle), click count, modifiers.
	B int `json:"b,omitempty"    yaml:"b,omitempty"`
	N int `json:"n,omitempty"    yaml:"n,omitempty"`
	M int `json:"m,omitempty"    yaml:"m,omitempty"`

	// Scroll deltas.
	DX int `json:"dx,omitempty"   yaml:"dx,omitempty"`
	DY int `json:"dy,omitempty"   yaml:"dy,omitempty"`

	// Key code (virtual key) for key events.
	K uint16 `json:"k,omitempty"    yaml:"k,omitempty"`

	// Aggregated text for text events.
	S string `json:"s,omitempty"    yaml:"s,omitempty"`

	// App / window identifiers (app, window events).
	A string `json:"a,omitempty"    yaml:"a,omitempty"`
	P int    `json:"p,omitempty"    yaml:"p,omitempty"`
	W string `json:"w,omitempty"    yaml:"w,omitempty"`

	// Sel is an optional selector snapshot captured at record time so the
	// replayer can re-bind this action to a live element. Element handles
	// themselves are never persisted.
	Sel string `json:"sel,omitempty"  yaml:"sel,omitempty"`
}
