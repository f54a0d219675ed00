// Package scene composes layout, animation and interaction into one
// frame-driven view of a directory tree.
//
// A host feeds a [Scene] a tree snapshot, zoom and mode requests and one
// [interact.Input] per frame, and gets back a [Frame] to draw:
//
//	sc := scene.New(layout.NewEngine(metric.Bytes{}), scene.WithCanvas(layout.Size{W: 800, H: 600}))
//	sc.SetTree(snap, time.Now())
//	for {
//	    f := sc.Frame(time.Now(), input)
//	    draw(f.Nodes)
//	}
//
// Like its parts, a Scene is single threaded and never blocks. Snapshots
// produced by background work are swapped in with SetTree between frames.
package scene

import (
	"strings"
	"time"

	"github.com/matzehuels/gitscroll/pkg/anim"
	"github.com/matzehuels/gitscroll/pkg/interact"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// DefaultCanvas is the canvas size used when none is configured.
var DefaultCanvas = layout.Size{W: 800, H: 600}

// Frame is everything a renderer needs for one frame.
type Frame struct {
	Nodes []layout.VisualNode

	Root      *tree.Node
	Zoom      float64
	Target    float64
	Mode      layout.Mode // resolved for Target
	Animating bool
	Events    []interact.Event

	Hovered  int // index into Nodes or interact.None
	Selected int

	// FileOpacity fades files in between zoom 1 and 2; DetailOpacity fades
	// directory details in between zoom 2 and 3.
	FileOpacity   float64
	DetailOpacity float64
}

// HoveredNode returns the hovered node, or nil.
func (f *Frame) HoveredNode() *layout.VisualNode { return f.at(f.Hovered) }

// SelectedNode returns the selected node, or nil.
func (f *Frame) SelectedNode() *layout.VisualNode { return f.at(f.Selected) }

func (f *Frame) at(i int) *layout.VisualNode {
	if i < 0 || i >= len(f.Nodes) {
		return nil
	}
	return &f.Nodes[i]
}

// Option configures a Scene.
type Option func(*config)

type config struct {
	canvas    layout.Size
	mode      layout.Mode
	zoom      float64
	duration  time.Duration
	autoDrill bool
}

// WithCanvas sets the initial canvas size.
func WithCanvas(s layout.Size) Option { return func(c *config) { c.canvas = s } }

// WithMode sets the initial layout mode.
func WithMode(m layout.Mode) Option { return func(c *config) { c.mode = m } }

// WithZoom sets the initial zoom factor.
func WithZoom(z float64) Option { return func(c *config) { c.zoom = z } }

// WithDuration sets the transition length.
func WithDuration(d time.Duration) Option { return func(c *config) { c.duration = d } }

// WithAutoDrill controls whether DrillDown events are applied by the scene
// itself. It defaults to true; hosts that want to confirm first turn it off
// and call DrillDown themselves.
func WithAutoDrill(on bool) Option { return func(c *config) { c.autoDrill = on } }

// Scene is the stateful view over one snapshot.
type Scene struct {
	cache *layout.Cache
	anim  *anim.Controller
	input *interact.Controller

	snap    *tree.Snapshot
	root    *tree.Node
	history []*tree.Node

	mode      layout.Mode
	canvas    layout.Size
	autoDrill bool
}

// New returns an empty scene drawing with e.
func New(e *layout.Engine, opts ...Option) *Scene {
	cfg := config{
		canvas:    DefaultCanvas,
		zoom:      layout.MinZoom,
		duration:  anim.DefaultDuration,
		autoDrill: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Scene{
		cache:     layout.NewCache(e),
		input:     interact.New(),
		mode:      cfg.mode,
		canvas:    cfg.canvas,
		autoDrill: cfg.autoDrill,
	}
	s.anim = anim.New(s.compute, anim.WithZoom(cfg.zoom), anim.WithDuration(cfg.duration))
	return s
}

func (s *Scene) compute(zoom float64) []layout.VisualNode {
	return s.cache.Get(s.root, zoom, s.mode, s.canvas)
}

// Snapshot returns the current snapshot, or nil.
func (s *Scene) Snapshot() *tree.Snapshot { return s.snap }

// Root returns the directory currently laid out.
func (s *Scene) Root() *tree.Node { return s.root }

// Depth returns how many DrillDown steps Up can undo.
func (s *Scene) Depth() int { return len(s.history) }

// Mode returns the configured (unresolved) mode.
func (s *Scene) Mode() layout.Mode { return s.mode }

// Canvas returns the canvas size.
func (s *Scene) Canvas() layout.Size { return s.canvas }

// DisplayZoom returns the zoom factor currently on screen, which lags the
// target while a transition runs.
func (s *Scene) DisplayZoom() float64 { return s.anim.Zoom() }

// Target returns the zoom factor being animated towards.
func (s *Scene) Target() float64 { return s.anim.Target() }

// Nodes returns the live node list.
func (s *Scene) Nodes() []layout.VisualNode { return s.anim.Nodes() }

// SetTree swaps in a new snapshot. Every cached layout is dropped. When the
// directory currently shown still exists in the new snapshot the scene stays
// there, with the drill-down history rebuilt from the new tree; otherwise it
// returns to the snapshot root. The selection is kept by path.
func (s *Scene) SetTree(snap *tree.Snapshot, now time.Time) {
	var prev string
	if s.root != nil {
		prev = s.root.Path
	}
	s.cache.Invalidate()
	s.snap = snap
	s.root, s.history = nil, nil
	if snap == nil || snap.Root == nil {
		s.anim.Replace(nil)
		s.input.Sync(nil)
		return
	}

	s.root = snap.Root
	if chain := ancestors(snap.Root, prev); chain != nil {
		if n, ok := snap.Find(prev); ok && n.IsDir {
			s.root, s.history = n, chain
		}
	}
	s.relayout(now)
}

// DrillDown makes dir the laid out directory. It returns false when dir is
// not a directory. Synthetic level-of-detail buckets are valid targets.
func (s *Scene) DrillDown(dir *tree.Node, now time.Time) bool {
	if dir == nil || !dir.IsDir || dir == s.root {
		return false
	}
	if s.root != nil {
		s.history = append(s.history, s.root)
	}
	s.root = dir
	s.relayout(now)
	return true
}

// Up returns to the directory shown before the last DrillDown. It returns
// false at the top.
func (s *Scene) Up(now time.Time) bool {
	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	s.root = s.history[last]
	s.history = s.history[:last]
	s.relayout(now)
	return true
}

// SetMode switches the layout mode with an animated relayout.
func (s *Scene) SetMode(m layout.Mode, now time.Time) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.relayout(now)
}

// Resize changes the canvas with an animated relayout.
func (s *Scene) Resize(size layout.Size, now time.Time) {
	if size == s.canvas {
		return
	}
	s.canvas = size
	s.relayout(now)
}

// Zoom moves the target zoom by delta. It reports whether a transition
// started.
func (s *Scene) Zoom(delta float64, now time.Time) bool {
	if !s.anim.RequestZoom(delta, now) {
		return false
	}
	s.input.Sync(s.anim.Nodes())
	return true
}

// ZoomIn zooms in by one step.
func (s *Scene) ZoomIn(now time.Time) bool { return s.Zoom(anim.ZoomStep, now) }

// ZoomOut zooms out by one step.
func (s *Scene) ZoomOut(now time.Time) bool { return s.Zoom(-anim.ZoomStep, now) }

// Frame advances the animation to now, applies input and returns what to
// draw. The returned nodes are a copy.
func (s *Scene) Frame(now time.Time, in interact.Input) Frame {
	s.anim.Tick(now)
	events := s.input.Update(s.anim.Nodes(), in)

	if s.autoDrill {
		for _, ev := range events {
			if ev.Kind == interact.DrillDown {
				s.DrillDown(ev.Node, now)
				break
			}
		}
	}

	zoom := s.anim.Zoom()
	return Frame{
		Nodes:         layout.CloneNodes(s.anim.Nodes()),
		Root:          s.root,
		Zoom:          zoom,
		Target:        s.anim.Target(),
		Mode:          layout.Resolve(s.mode, s.anim.Target()),
		Animating:     s.anim.Animating(),
		Events:        events,
		Hovered:       s.input.Hovered(),
		Selected:      s.input.Selected(),
		FileOpacity:   clamp01(zoom - 1),
		DetailOpacity: clamp01(zoom - 2),
	}
}

func (s *Scene) relayout(now time.Time) {
	s.anim.Relayout(now)
	s.input.Sync(s.anim.Nodes())
}

// ancestors returns the directories from root down to, but excluding, the
// node at target. It returns nil when target is root or is not reachable
// through directories.
func ancestors(root *tree.Node, target string) []*tree.Node {
	var chain []*tree.Node
	n := root
	for depth := 0; n != nil && depth < tree.MaxDepth; depth++ {
		if n.Path == target {
			return chain
		}
		chain = append(chain, n)
		n = childToward(n, target)
	}
	return nil
}

func childToward(n *tree.Node, target string) *tree.Node {
	for _, c := range n.Children {
		if c.IsDir && (c.Path == target || strings.HasPrefix(target, c.Path+"/")) {
			return c
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
