// Package replay reproduces recorded workflows against the live system.
package replay

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/louis030195/bigbrother/internal/event"
	"github.com/louis030195/bigbrother/internal/locator"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
	"github.com/louis030195/bigbrother/internal/workflow"
)

// Mode governs what happens when a step fails to re-resolve or inject.
type Mode int

const (
	// BestEffort skips the failing event, records the skip, and continues.
	BestEffort Mode = iota
	// FailFast aborts the remaining replay on the first failure.
	FailFast
)

// Stats summarizes one replay run.
type Stats struct {
	Replayed int `json:"replayed" yaml:"replayed"`
	Skipped  int `json:"skipped"  yaml:"skipped"`
	Failed   int `json:"failed"   yaml:"failed"`
}

// DefaultResolveTimeout bounds per-event selector re-resolution.
const DefaultResolveTimeout = 3 * time.Second

// Replayer drives a recorded workflow through the input capability,
// re-binding context-carrying events to live elements via the locator.
// Replay runs synchronously on the calling goroutine; its only suspension
// points are the pacing sleeps and the locator's bounded polling. Each
// injected action is fire-and-forget against live OS state: there is no
// rollback, and a failed step does not undo prior steps.
type Replayer struct {
	input          platform.Inputter
	tree           platform.Tree
	focus          platform.Focuser
	speed          float64
	mode           Mode
	resolveTimeout time.Duration
	log            logr.Logger

	// sleep is swapped in tests to observe pacing without real waiting.
	sleep func(time.Duration)
}

// New creates a replayer. tree may be nil: context selectors then fall back
// to recorded coordinates. focus may be nil: app events become no-ops.
func New(input platform.Inputter, tree platform.Tree, focus platform.Focuser) *Replayer {
	return &Replayer{
		input:          input,
		tree:           tree,
		focus:          focus,
		speed:          1.0,
		resolveTimeout: DefaultResolveTimeout,
		log:            logr.Discard(),
		sleep:          time.Sleep,
	}
}

// Speed sets the pacing multiplier: inter-event gaps are scaled by factor,
// so 0.5 replays twice as fast and 2.0 half as fast.
func (r *Replayer) Speed(factor float64) *Replayer {
	if factor > 0 {
		r.speed = factor
	}
	return r
}

// SetMode selects the failure policy.
func (r *Replayer) SetMode(m Mode) *Replayer {
	r.mode = m
	return r
}

// ResolveTimeout bounds per-event selector re-resolution.
func (r *Replayer) ResolveTimeout(d time.Duration) *Replayer {
	r.resolveTimeout = d
	return r
}

// WithLogger attaches a logger for per-step diagnostics.
func (r *Replayer) WithLogger(log logr.Logger) *Replayer {
	r.log = log
	return r
}

// Replay iterates the workflow's events in stored order, sleeping the
// recorded inter-event gap (scaled by the speed factor) before each action.
// In FailFast mode the first failure aborts and is returned alongside the
// stats so far; in BestEffort mode failures are aggregated into the stats
// and the returned error is nil.
func (r *Replayer) Replay(w *workflow.Workflow) (Stats, error) {
	var stats Stats
	var prev uint64

	for i := range w.Events {
		ev := w.Events[i]
		if ev.T > prev {
			gap := time.Duration(float64(ev.T-prev)*r.speed) * time.Millisecond
			r.sleep(gap)
		}
		prev = ev.T

		err := r.step(ev)
		switch {
		case err == nil:
			stats.Replayed++
		case r.mode == FailFast:
			stats.Failed++
			return stats, err
		case uierr.CodeOf(err) == uierr.ElementNotFound:
			// Layout drifted and the selector no longer re-binds: skip.
			r.log.V(1).Info("skipping event", "index", i, "err", err.Error())
			stats.Skipped++
		default:
			r.log.V(1).Info("event failed", "index", i, "err", err.Error())
			stats.Failed++
		}
	}
	return stats, nil
}

func (r *Replayer) step(ev event.Event) error {
	switch ev.Type {
	case event.TypeMove:
		return r.wrap(r.input.MoveMouse(ev.X, ev.Y))

	case event.TypeClick:
		x, y := ev.X, ev.Y
		if ev.Sel != "" && r.tree != nil {
			// Re-resolve to tolerate layout drift between recording and
			// replay. Coordinate-only clicks act at the literal recorded
			// position and stay fragile to layout change by design.
			nx, ny, err := r.resolve(ev.Sel)
			if err != nil {
				return err
			}
			x, y = nx, ny
		}
		return r.wrap(r.input.Click(x, y, platform.MouseButton(ev.B), clicks(ev.N)))

	case event.TypeScroll:
		return r.wrap(r.input.Scroll(ev.X, ev.Y, ev.DX, ev.DY))

	case event.TypeKey:
		return r.wrap(r.input.PressKey(ev.K))

	case event.TypeText:
		// One insertion call per recorded run, never per character.
		return r.wrap(r.input.TypeText(ev.S, 0))

	case event.TypeApp:
		if r.focus == nil {
			return nil
		}
		return r.wrap(r.focus.Activate(ev.A))

	case event.TypeWindow:
		// Window focus follows app activation; informational on replay.
		return nil

	default:
		return uierr.Newf(uierr.Unknown, "unknown event type %q", ev.Type)
	}
}

// resolve re-binds a captured selector to a live element and returns its
// center.
func (r *Replayer) resolve(sel string) (int, int, error) {
	loc, err := locator.New(r.tree, r.input, sel)
	if err != nil {
		return 0, 0, err
	}
	n, err := loc.Timeout(r.resolveTimeout).Wait()
	if err != nil {
		return 0, 0, err
	}
	b, err := n.Bounds()
	if err != nil {
		return 0, 0, uierr.Wrap(uierr.PlatformError, "element has no bounds", err)
	}
	x, y := b.Center()
	return x, y, nil
}

func (r *Replayer) wrap(err error) error {
	if err == nil {
		return nil
	}
	if uierr.CodeOf(err) != uierr.Unknown {
		return err
	}
	return uierr.Wrap(uierr.PlatformError, "", err)
}

func clicks(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
