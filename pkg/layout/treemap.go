package layout

import (
	"sort"

	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// TreemapPadding is the inset applied to the canvas before slicing.
const TreemapPadding = 5.0

// TreemapStrategy tiles the padded canvas with one slice per child.
//
// It is the one-pass slice approximation of a squarified treemap: children are
// taken in descending weight order and each one cuts a full-width or
// full-height strip off the remaining rectangle, along its longer side. There
// is no backtracking for aspect ratio. The last child receives the remaining
// rectangle exactly, so the slices tile the padded canvas without gaps.
type TreemapStrategy struct{}

// Layout implements Strategy.
func (TreemapStrategy) Layout(dir *tree.Node, _ float64, canvas Size, w metric.Provider) []VisualNode {
	items := itemsOf(dir.Children, w)
	return sliceTreemap(items, RectFromSize(canvas).Inset(TreemapPadding))
}

func sliceTreemap(items []item, area Rect) []VisualNode {
	if len(items) == 0 || area.Size().Empty() {
		return nil
	}
	sortByWeight(items)

	total := totalWeight(items)
	full := area.Area()
	rest := area

	out := make([]VisualNode, 0, len(items))
	for i, it := range items {
		if i == len(items)-1 {
			out = append(out, newVisual(it, rest, total))
			break
		}
		share := 0.0
		if it.weight > 0 {
			share = it.weight / total
		}
		itemArea := full * share

		var r Rect
		if rest.W >= rest.H {
			iw := 0.0
			if rest.H > 0 {
				iw = min(itemArea/rest.H, rest.W)
			}
			r = Rect{MinX: rest.MinX, MinY: rest.MinY, W: iw, H: rest.H}
			rest = Rect{MinX: rest.MinX + iw, MinY: rest.MinY, W: rest.W - iw, H: rest.H}
		} else {
			ih := 0.0
			if rest.W > 0 {
				ih = min(itemArea/rest.W, rest.H)
			}
			r = Rect{MinX: rest.MinX, MinY: rest.MinY, W: rest.W, H: ih}
			rest = Rect{MinX: rest.MinX, MinY: rest.MinY + ih, W: rest.W, H: rest.H - ih}
		}
		out = append(out, newVisual(it, r, total))
	}
	return out
}

// sortByWeight orders items by descending weight with ties broken by name,
// which keeps the result deterministic.
func sortByWeight(items []item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].weight != items[j].weight {
			return items[i].weight > items[j].weight
		}
		return items[i].node.Name < items[j].node.Name
	})
}
