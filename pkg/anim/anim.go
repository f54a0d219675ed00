// Package anim interpolates between successive layouts as the zoom factor
// changes.
//
// A [Controller] owns the current and target zoom and the live list of
// visual nodes. Each zoom request recomputes the layout at the new target and
// records where every node was displayed at that moment; [Controller.Tick]
// then moves the nodes from there to their new rectangles along an
// ease-in-out curve.
//
// Nodes are matched between layouts by path. A node with no counterpart in
// the previous layout grows from a zero-size rectangle at its own center.
//
// The controller is single threaded and never blocks. Time is always passed
// in by the caller.
package anim

import (
	"math"
	"time"

	"github.com/matzehuels/gitscroll/pkg/layout"
)

// Defaults.
const (
	DefaultDuration = 300 * time.Millisecond
	ZoomStep        = 0.1

	// Requests that move the target by less than this are ignored.
	minZoomDelta = 0.01
)

// LayoutFunc computes the node list for a zoom factor.
type LayoutFunc func(zoom float64) []layout.VisualNode

// Option configures a Controller.
type Option func(*Controller)

// WithDuration sets the transition length. Zero or negative durations make
// every transition complete on the next Tick.
func WithDuration(d time.Duration) Option {
	return func(c *Controller) { c.duration = d }
}

// WithZoom sets the initial zoom factor, clamped into the valid range.
func WithZoom(z float64) Option {
	return func(c *Controller) {
		c.current = layout.ClampZoom(z)
		c.target = c.current
	}
}

// Controller drives zoom transitions. The zero value is not usable; call New.
type Controller struct {
	layout LayoutFunc
	nodes  []layout.VisualNode

	current, target float64
	from            float64 // zoom at the start of the running transition
	animating       bool
	start           time.Time
	duration        time.Duration
}

// New returns an idle controller at MinZoom. fn is called on every
// transition with the new target zoom.
func New(fn LayoutFunc, opts ...Option) *Controller {
	c := &Controller{
		layout:   fn,
		current:  layout.MinZoom,
		target:   layout.MinZoom,
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Nodes returns the live node list. Callers may update interaction flags and
// drag offsets in place; geometry belongs to the controller.
func (c *Controller) Nodes() []layout.VisualNode { return c.nodes }

// Zoom returns the currently displayed zoom factor.
func (c *Controller) Zoom() float64 { return c.current }

// Target returns the zoom factor being animated towards.
func (c *Controller) Target() float64 { return c.target }

// Animating reports whether a transition is in flight.
func (c *Controller) Animating() bool { return c.animating }

// Duration returns the transition length.
func (c *Controller) Duration() time.Duration { return c.duration }

// RequestZoom moves the target by delta, clamped into [MinZoom, MaxZoom],
// and starts a transition from what is currently displayed. It returns false
// and does nothing when the clamped target moves by less than 0.01.
//
// A request during a transition supersedes it: the new transition starts
// from the interpolated rectangles and zoom of this instant.
func (c *Controller) RequestZoom(delta float64, now time.Time) bool {
	next := layout.ClampZoom(c.target + delta)
	// Drop accumulated float noise so repeated steps land on exact values.
	next = math.Round(next*1e9) / 1e9
	if math.Abs(next-c.target) < minZoomDelta {
		return false
	}
	c.target = next
	c.transition(now)
	return true
}

// Relayout recomputes the layout at the current target and animates to it.
// Use it when something other than zoom changed the layout, such as the mode,
// the canvas or the root directory.
func (c *Controller) Relayout(now time.Time) {
	c.transition(now)
}

// Replace installs nodes without animating and ends any running transition.
func (c *Controller) Replace(nodes []layout.VisualNode) {
	c.nodes = nodes
	c.finish()
}

// Reset recomputes the layout at the current target without animating.
func (c *Controller) Reset() {
	c.Replace(c.compute(c.target))
}

// Tick advances the running transition to now and reports whether it is
// still running afterwards. It is a no-op when idle.
func (c *Controller) Tick(now time.Time) bool {
	if !c.animating {
		return false
	}
	p := 1.0
	if c.duration > 0 {
		p = clamp01(float64(now.Sub(c.start)) / float64(c.duration))
	}
	if p >= 1 {
		c.finish()
		return false
	}

	e := EaseInOutQuad(p)
	c.current = c.from + (c.target-c.from)*e
	for i := range c.nodes {
		if c.nodes[i].PrevRect != nil {
			c.nodes[i].Progress = e
		}
	}
	return true
}

func (c *Controller) transition(now time.Time) {
	shown := make(map[string]layout.Rect, len(c.nodes))
	selected := make(map[string]bool)
	for i := range c.nodes {
		n := &c.nodes[i]
		r := n.Rect
		if n.PrevRect != nil {
			r = n.PrevRect.Lerp(n.Rect, n.Progress)
		}
		shown[n.Path] = r
		if n.Selected {
			selected[n.Path] = true
		}
	}

	next := c.compute(c.target)
	for i := range next {
		n := &next[i]
		prev, ok := shown[n.Path]
		if !ok {
			prev = layout.CenteredAt(n.Rect.Center(), 0, 0)
		}
		n.PrevRect = &prev
		n.Progress = 0
		n.Selected = selected[n.Path]
	}

	c.nodes = next
	c.from = c.current
	c.start = now
	c.animating = true
}

func (c *Controller) finish() {
	c.current = c.target
	c.animating = false
	for i := range c.nodes {
		c.nodes[i].PrevRect = nil
		c.nodes[i].Progress = 1
	}
}

func (c *Controller) compute(zoom float64) []layout.VisualNode {
	if c.layout == nil {
		return nil
	}
	return c.layout(zoom)
}

// EaseInOutQuad is the symmetric quadratic easing curve: 2t² up to the
// midpoint, then 1-(2-2t)²/2. t is clamped into [0, 1].
func EaseInOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
