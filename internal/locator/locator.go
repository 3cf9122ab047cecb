// Package locator resolves selectors against the live accessibility tree
// with polling, timeout, and disambiguation.
package locator

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/selector"
	"github.com/louis030195/bigbrother/internal/uierr"
)

const (
	// DefaultTimeout bounds Wait/Click/TypeText.
	DefaultTimeout = 5 * time.Second
	// DefaultInterval is the re-traversal polling interval.
	DefaultInterval = 250 * time.Millisecond
)

// Locator wraps a selector, a search scope, and a timeout. Wait-bounded
// operations terminate within timeout plus one polling interval; there is
// no unbounded blocking and no external cancel beyond the timeout.
//
// Disambiguation is first-match-wins in traversal order. That is a design
// choice, not an accident: agents usually narrow with role+title and the
// first visited match is the topmost one on screen. Strict() opts into
// failing with AmbiguousMatch instead.
type Locator struct {
	sel      *selector.Selector
	tree     platform.Tree
	input    platform.Inputter
	app      string // empty = desktop scope
	timeout  time.Duration
	interval time.Duration
	maxDepth int
	strict   bool
	log      logr.Logger

	// sleep is swapped in tests to avoid real waiting.
	sleep func(time.Duration)
}

// New parses the selector string and builds a locator scoped to the whole
// desktop.
func New(tree platform.Tree, input platform.Inputter, sel string) (*Locator, error) {
	parsed, err := selector.Parse(sel)
	if err != nil {
		return nil, err
	}
	return &Locator{
		sel:      parsed,
		tree:     tree,
		input:    input,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
		maxDepth: selector.DefaultMaxDepth,
		log:      logr.Discard(),
		sleep:    time.Sleep,
	}, nil
}

// InApp scopes the search to one application's subtree.
func (l *Locator) InApp(app string) *Locator {
	l.app = app
	return l
}

// Timeout sets the wait deadline.
func (l *Locator) Timeout(d time.Duration) *Locator {
	l.timeout = d
	return l
}

// Interval sets the polling interval.
func (l *Locator) Interval(d time.Duration) *Locator {
	l.interval = d
	return l
}

// MaxDepth bounds tree traversal.
func (l *Locator) MaxDepth(n int) *Locator {
	l.maxDepth = n
	return l
}

// Strict forbids first-match fallback: operations fail with AmbiguousMatch
// when more than one element matches.
func (l *Locator) Strict() *Locator {
	l.strict = true
	return l
}

// WithLogger attaches a logger for poll diagnostics.
func (l *Locator) WithLogger(log logr.Logger) *Locator {
	l.log = log
	return l
}

// Selector returns the parsed selector text.
func (l *Locator) Selector() string { return l.sel.String() }

func (l *Locator) root() (platform.Node, error) {
	if l.app != "" {
		n, err := l.tree.App(l.app)
		if err != nil {
			return nil, uierr.Wrap(uierr.PlatformError, "", err)
		}
		return n, nil
	}
	n, err := l.tree.Desktop()
	if err != nil {
		return nil, uierr.Wrap(uierr.PlatformError, "", err)
	}
	return n, nil
}

// FindAll performs one traversal and returns all current matches in
// visitation order. An empty result is not an error. The returned handles
// (and any index position) are valid only for this traversal.
func (l *Locator) FindAll() ([]platform.Node, error) {
	root, err := l.root()
	if err != nil {
		return nil, err
	}
	return l.sel.Resolve(root, l.maxDepth), nil
}

// Wait re-traverses at the polling interval until at least one match exists
// or the timeout elapses, then returns the chosen match.
func (l *Locator) Wait() (platform.Node, error) {
	deadline := time.Now().Add(l.timeout)
	for {
		matches, err := l.FindAll()
		if err != nil {
			return nil, err
		}
		if len(matches) > 1 && l.strict {
			return nil, uierr.Newf(uierr.AmbiguousMatch, "%d elements match %q", len(matches), l.sel.String())
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
		if time.Now().After(deadline) {
			return nil, uierr.Newf(uierr.ElementNotFound, "no element matching %q within %s", l.sel.String(), l.timeout)
		}
		l.sleep(l.interval)
	}
}

// Find is Wait under its historical name.
func (l *Locator) Find() (platform.Node, error) { return l.Wait() }

// ClickResult reports where a click landed.
type ClickResult struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Click waits for a match and clicks its center with the left button.
func (l *Locator) Click() (*ClickResult, error) {
	n, err := l.Wait()
	if err != nil {
		return nil, err
	}
	b, err := n.Bounds()
	if err != nil {
		return nil, uierr.Wrap(uierr.PlatformError, "element has no bounds", err)
	}
	x, y := b.Center()
	l.log.V(1).Info("clicking element", "selector", l.sel.String(), "x", x, "y", y)
	if err := l.input.Click(x, y, platform.MouseLeft, 1); err != nil {
		return nil, uierr.Wrap(uierr.PlatformError, "click failed", err)
	}
	return &ClickResult{X: x, Y: y}, nil
}

// TypeText waits for a match, focuses it, and types the text.
func (l *Locator) TypeText(text string) error {
	n, err := l.Wait()
	if err != nil {
		return err
	}
	if err := n.Focus(); err != nil {
		return uierr.Wrap(uierr.PlatformError, "focus failed", err)
	}
	if err := l.input.TypeText(text, 0); err != nil {
		return uierr.Wrap(uierr.PlatformError, "type failed", err)
	}
	return nil
}
