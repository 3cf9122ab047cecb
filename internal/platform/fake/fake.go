// Package fake provides in-memory capability implementations for tests.
// The core packages are exercised against these the same way they run
// against the darwin backend.
package fake

import (
	"fmt"
	"sync"

	"github.com/louis030195/bigbrother/internal/platform"
)

// Node is a scriptable accessibility node.
type Node struct {
	Attrs   map[platform.Attr]string
	Kids    []*Node
	Rect    platform.Bounds
	Focused bool
}

// El is a convenience constructor for test trees.
func El(role, title string, kids ...*Node) *Node {
	return &Node{
		Attrs: map[platform.Attr]string{
			platform.AttrRole:  role,
			platform.AttrTitle: title,
		},
		Kids: kids,
	}
}

// WithAttr sets an attribute and returns the node for chaining in tree
// literals.
func (n *Node) WithAttr(a platform.Attr, v string) *Node {
	n.Attrs[a] = v
	return n
}

// WithBounds sets the node rectangle.
func (n *Node) WithBounds(x, y, w, h int) *Node {
	n.Rect = platform.Bounds{X: x, Y: y, Width: w, Height: h}
	return n
}

func (n *Node) Attr(a platform.Attr) (string, error) {
	v, ok := n.Attrs[a]
	if !ok {
		return "", fmt.Errorf("attribute %s not present", a)
	}
	return v, nil
}

func (n *Node) Children() ([]platform.Node, error) {
	out := make([]platform.Node, len(n.Kids))
	for i, k := range n.Kids {
		out[i] = k
	}
	return out, nil
}

func (n *Node) Bounds() (platform.Bounds, error) { return n.Rect, nil }

func (n *Node) Focus() error {
	n.Focused = true
	return nil
}

// Tree serves scripted roots. Swap Root under Mu to simulate UI change
// between locator polls.
type Tree struct {
	Mu   sync.Mutex
	Root *Node
	Apps map[string]*Node
}

func (t *Tree) Desktop() (platform.Node, error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	if t.Root == nil {
		return nil, fmt.Errorf("no desktop root")
	}
	return t.Root, nil
}

func (t *Tree) App(name string) (platform.Node, error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	if n, ok := t.Apps[name]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("app %q not running", name)
}

// Inputter records injected input as formatted call strings.
type Inputter struct {
	Mu    sync.Mutex
	Calls []string
	Err   error // returned from every call when set
}

func (i *Inputter) record(s string) error {
	i.Mu.Lock()
	defer i.Mu.Unlock()
	i.Calls = append(i.Calls, s)
	return i.Err
}

func (i *Inputter) Click(x, y int, button platform.MouseButton, count int) error {
	return i.record(fmt.Sprintf("click(%d,%d,b%d,n%d)", x, y, button, count))
}

func (i *Inputter) MoveMouse(x, y int) error {
	return i.record(fmt.Sprintf("move(%d,%d)", x, y))
}

func (i *Inputter) Scroll(x, y, dx, dy int) error {
	return i.record(fmt.Sprintf("scroll(%d,%d,%d,%d)", x, y, dx, dy))
}

func (i *Inputter) TypeText(text string, delayMs int) error {
	return i.record(fmt.Sprintf("type(%q)", text))
}

func (i *Inputter) PressKey(code uint16) error {
	return i.record(fmt.Sprintf("key(%d)", code))
}

func (i *Inputter) KeyCombo(keys []string) error {
	return i.record(fmt.Sprintf("combo(%v)", keys))
}

// CallCount returns the number of recorded calls.
func (i *Inputter) CallCount() int {
	i.Mu.Lock()
	defer i.Mu.Unlock()
	return len(i.Calls)
}

// Focuser serves a scripted frontmost-app state.
type Focuser struct {
	Mu        sync.Mutex
	Current   platform.AppInfo
	Activated []string
	Err       error
}

func (f *Focuser) FrontmostApp() (platform.AppInfo, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	return f.Current, f.Err
}

func (f *Focuser) Activate(name string) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.Activated = append(f.Activated, name)
	return f.Err
}

// Set changes the frontmost app observed by subsequent polls.
func (f *Focuser) Set(name string, pid int, window string) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.Current = platform.AppInfo{Name: name, PID: pid, Window: window}
}

// Hook is a scriptable input hook; tests deliver raw events with Emit.
type Hook struct {
	Mu      sync.Mutex
	fn      func(platform.RawEvent)
	Started bool
	Stopped bool
}

func (h *Hook) Start(fn func(platform.RawEvent)) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	h.fn = fn
	h.Started = true
	return nil
}

func (h *Hook) Stop() error {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	h.Stopped = true
	return nil
}

// Emit delivers one raw event to the registered callback, synchronously,
// the way the OS hook thread would.
func (h *Hook) Emit(ev platform.RawEvent) {
	h.Mu.Lock()
	fn := h.fn
	stopped := h.Stopped
	h.Mu.Unlock()
	if fn != nil && !stopped {
		fn(ev)
	}
}

// Permissions reports a scripted grant state.
type Permissions struct {
	Granted bool
}

func (p *Permissions) Check() platform.PermissionStatus {
	return platform.PermissionStatus{Accessibility: p.Granted, InputMonitoring: p.Granted}
}

func (p *Permissions) Request() platform.PermissionStatus { return p.Check() }
