package layout

import (
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Strategy lays out the direct children of a directory inside a canvas.
//
// Implementations are pure: they must not modify dir, must return the same
// output for the same input, and must not keep state between calls.
type Strategy interface {
	Layout(dir *tree.Node, zoom float64, canvas Size, w metric.Provider) []VisualNode
}

// StrategyFunc adapts a function to a Strategy.
type StrategyFunc func(dir *tree.Node, zoom float64, canvas Size, w metric.Provider) []VisualNode

// Layout calls f.
func (f StrategyFunc) Layout(dir *tree.Node, zoom float64, canvas Size, w metric.Provider) []VisualNode {
	return f(dir, zoom, canvas, w)
}

// Engine maps a directory, a zoom factor, a mode and a canvas to a list of
// positioned visual nodes. It is safe for concurrent use as long as its
// strategies are.
type Engine struct {
	weights    metric.Provider
	strategies map[Mode]Strategy
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStrategy replaces the strategy used for a concrete mode.
func WithStrategy(m Mode, s Strategy) EngineOption {
	return func(e *Engine) {
		if m != Auto && s != nil {
			e.strategies[m] = s
		}
	}
}

// NewEngine returns an engine that sizes rectangles with p. A nil provider
// falls back to metric.Bytes.
func NewEngine(p metric.Provider, opts ...EngineOption) *Engine {
	if p == nil {
		p = metric.Bytes{}
	}
	e := &Engine{
		weights: p,
		strategies: map[Mode]Strategy{
			Grid:          GridStrategy{},
			Treemap:       TreemapStrategy{},
			ForceDirected: ForceStrategy{},
			Detailed:      DetailedStrategy{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the weight provider the engine sizes rectangles with.
func (e *Engine) Provider() metric.Provider { return e.weights }

// Compute lays out the children of root. Zoom is clamped into
// [MinZoom, MaxZoom] and Auto is resolved from it. A nil or non-directory
// root, a directory without children or an empty canvas yields an empty list.
func (e *Engine) Compute(root *tree.Node, zoom float64, mode Mode, canvas Size) []VisualNode {
	if root == nil || !root.IsDir || len(root.Children) == 0 || canvas.Empty() {
		return nil
	}
	zoom = ClampZoom(zoom)
	s, ok := e.strategies[Resolve(mode, zoom)]
	if !ok {
		return nil
	}
	return s.Layout(root, zoom, canvas, e.weights)
}

// =============================================================================
// Helpers shared by the strategies
// =============================================================================

// item is one child scheduled for placement.
type item struct {
	node      *tree.Node
	weight    float64
	synthetic bool
}

func itemsOf(nodes []*tree.Node, w metric.Provider) []item {
	out := make([]item, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, item{node: n, weight: w.Weight(n)})
	}
	return out
}

func totalWeight(items []item) float64 {
	var sum float64
	for _, it := range items {
		if it.weight > 0 {
			sum += it.weight
		}
	}
	if sum <= 0 {
		return 1
	}
	return sum
}

func newVisual(it item, r Rect, total float64) VisualNode {
	return VisualNode{
		Node:      it.node,
		Path:      it.node.Path,
		Rect:      r,
		Weight:    clamp(it.weight/total, 0, 1),
		Synthetic: it.synthetic,
	}
}
