package layout

import (
	"math"

	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// GridPadding is the space reserved on every side of a grid cell.
const GridPadding = 10.0

// Bounds of the per-cell size factor.
const (
	minSizeFactor = 0.5
	maxSizeFactor = 1.5
)

// GridDims returns the column and row count for n cells on a canvas with the
// given aspect ratio (width/height). It always satisfies cols*rows >= n, and
// returns 0×0 for n <= 0.
func GridDims(n int, aspect float64) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	cols = int(math.Ceil(math.Sqrt(float64(n) * aspect)))
	cols = max(1, min(n, cols))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// GridStrategy packs children into a uniform grid. Below TreemapZoom only
// directories are placed; from TreemapZoom on, files are included too.
type GridStrategy struct{}

// Layout implements Strategy.
func (GridStrategy) Layout(dir *tree.Node, zoom float64, canvas Size, w metric.Provider) []VisualNode {
	children := dir.Children
	if zoom < TreemapZoom {
		children = dir.Dirs()
	}
	items := itemsOf(children, w)
	return packGrid(items, RectFromSize(canvas), GridPadding)
}

// packGrid places items row-major into area. Each rectangle is the cell minus
// padding, scaled by clamp(sqrt(weight/mean), 0.5, 1.5), capped at the cell
// and centered in it.
func packGrid(items []item, area Rect, padding float64) []VisualNode {
	n := len(items)
	if n == 0 || area.Size().Empty() {
		return nil
	}
	cols, rows := GridDims(n, area.Size().Aspect())
	cellW := area.W / float64(cols)
	cellH := area.H / float64(rows)

	total := totalWeight(items)
	mean := total / float64(n)

	out := make([]VisualNode, 0, n)
	for i, it := range items {
		cell := Rect{
			MinX: area.MinX + float64(i%cols)*cellW,
			MinY: area.MinY + float64(i/cols)*cellH,
			W:    cellW,
			H:    cellH,
		}
		inner := cell.Inset(padding)
		f := sizeFactor(it.weight, mean)
		r := CenteredAt(cell.Center(), math.Min(inner.W*f, cell.W), math.Min(inner.H*f, cell.H))
		out = append(out, newVisual(it, r, total))
	}
	return out
}

func sizeFactor(w, mean float64) float64 {
	if !(mean > 0) || !(w > 0) {
		return minSizeFactor
	}
	return clamp(math.Sqrt(w/mean), minSizeFactor, maxSizeFactor)
}
