package layout

import (
	"math"

	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Relaxation parameters.
const (
	ForceIterations = 50
	forceDamping    = 0.1
	forceMinDist    = 0.1
	forceRadius     = 0.8
	forceK          = 0.3
)

// ForceStrategy spreads children out with a repulsion-only relaxation.
//
// Children start evenly spaced on a circle around the canvas center and are
// pushed apart for a fixed number of iterations. There are no attractive
// forces. Each iteration is O(n²), so very large directories are expensive;
// callers that care should bound n, for example through level-of-detail
// grouping.
type ForceStrategy struct{}

// Layout implements Strategy.
func (ForceStrategy) Layout(dir *tree.Node, _ float64, canvas Size, w metric.Provider) []VisualNode {
	items := itemsOf(dir.Children, w)
	n := len(items)
	if n == 0 {
		return nil
	}

	sizes := make([]float64, n)
	for i, it := range items {
		sizes[i] = forceNodeSize(it.node)
	}
	pos := circlePlacement(n, canvas)
	relax(pos, sizes, canvas, ForceIterations)

	total := totalWeight(items)
	out := make([]VisualNode, 0, n)
	for i, it := range items {
		out = append(out, newVisual(it, CenteredAt(pos[i], sizes[i], sizes[i]), total))
	}
	return out
}

// forceNodeSize is the side length of a node's square: directories grow with
// their child count up to 80, files with their size in KiB up to 50.
func forceNodeSize(n *tree.Node) float64 {
	if n.IsDir {
		return math.Min(30+math.Sqrt(float64(len(n.Children)))*5, 80)
	}
	kb := math.Max(float64(n.Size), 0) / 1024
	return math.Min(20+math.Sqrt(kb)*2, 50)
}

func circlePlacement(n int, canvas Size) []Point {
	c := Point{canvas.W / 2, canvas.H / 2}
	r := forceRadius * math.Min(canvas.W, canvas.H) / 2
	pos := make([]Point, n)
	for i := range pos {
		a := 2 * math.Pi * float64(i) / float64(n)
		pos[i] = Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return pos
}

func relax(pos []Point, sizes []float64, canvas Size, iterations int) {
	n := len(pos)
	k := math.Sqrt(canvas.W*canvas.H/float64(n)) * forceK
	k2 := k * k
	disp := make([]Point, n)

	for range iterations {
		clear(disp)
		for i := range pos {
			for j := range pos {
				if i == j {
					continue
				}
				d := pos[i].Sub(pos[j])
				dist := math.Max(math.Hypot(d.X, d.Y), forceMinDist)
				f := k2 / dist
				disp[i].X += d.X / dist * f
				disp[i].Y += d.Y / dist * f
			}
		}
		for i := range pos {
			half := sizes[i] / 2
			pos[i].X = clampAxis(pos[i].X+disp[i].X*forceDamping, half, canvas.W-half)
			pos[i].Y = clampAxis(pos[i].Y+disp[i].Y*forceDamping, half, canvas.H-half)
		}
	}
}

// clampAxis clamps v into [lo, hi], collapsing to the midpoint when the node
// is larger than the canvas.
func clampAxis(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return clamp(v, lo, hi)
}
