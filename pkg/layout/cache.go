package layout

import (
	"context"
	"math"

	"github.com/matzehuels/gitscroll/pkg/observability"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// ZoomQuantum is the zoom step used for cache keys.
const ZoomQuantum = 0.1

// zoomEpsilon absorbs the float error of zoom steps summed one by one, so
// 1.9+0.1 quantizes to 2.0 rather than 1.9.
const zoomEpsilon = 1e-6

// QuantizeZoom clamps zoom and rounds it down to a multiple of ZoomQuantum.
// Rounding down never carries a zoom across a mode threshold, because the
// thresholds are multiples of ZoomQuantum.
func QuantizeZoom(zoom float64) float64 {
	q := math.Floor(ClampZoom(zoom)/ZoomQuantum+zoomEpsilon) * ZoomQuantum
	// Round again to drop the binary noise of the multiplication.
	return math.Round(q*1e6) / 1e6
}

type cacheKey struct {
	path   string
	zoom   float64
	mode   Mode
	canvas Size
}

// Cache memoizes an Engine for a single root at a time. It is not safe for
// concurrent use.
//
// Auto is resolved against the exact zoom, then zoom is quantized before
// lookup and the engine is invoked with the resolved mode and the quantized
// value. A cached list is therefore identical to a fresh computation at the
// same key, and its strategy is the one Resolve picks for the caller's zoom.
// Asking for a different root node clears every entry.
type Cache struct {
	engine  *Engine
	root    *tree.Node
	entries map[cacheKey][]VisualNode

	hits, misses int
}

// NewCache returns an empty cache in front of e.
func NewCache(e *Engine) *Cache {
	return &Cache{engine: e, entries: make(map[cacheKey][]VisualNode)}
}

// Engine returns the wrapped engine.
func (c *Cache) Engine() *Engine { return c.engine }

// Get returns the layout for the given inputs, computing it on a miss. The
// returned slice is a copy the caller may modify freely.
func (c *Cache) Get(root *tree.Node, zoom float64, mode Mode, canvas Size) []VisualNode {
	if root != c.root {
		c.Invalidate()
		c.root = root
	}
	mode = Resolve(mode, ClampZoom(zoom))
	key := cacheKey{zoom: QuantizeZoom(zoom), mode: mode, canvas: canvas}
	if root != nil {
		key.path = root.Path
	}

	ctx := context.Background()
	if nodes, ok := c.entries[key]; ok {
		c.hits++
		observability.Cache().OnCacheHit(ctx, "frame")
		return CloneNodes(nodes)
	}
	c.misses++
	observability.Cache().OnCacheMiss(ctx, "frame")

	nodes := c.engine.Compute(root, key.zoom, mode, canvas)
	c.entries[key] = CloneNodes(nodes)
	observability.Cache().OnCacheSet(ctx, "frame", len(nodes))
	return nodes
}

// Invalidate drops every entry. Call it when the tree under the current root
// changed without the root pointer changing, such as after a filter change.
func (c *Cache) Invalidate() {
	clear(c.entries)
	c.root = nil
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns the hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.misses }
