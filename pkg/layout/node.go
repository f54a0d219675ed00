package layout

import "github.com/matzehuels/gitscroll/pkg/tree"

// OthersName is the display name of the synthetic level-of-detail bucket.
const OthersName = "Others"

// VisualNode is one positioned rectangle for one frame.
type VisualNode struct {
	// Node is the tree entry this rectangle stands for. It is shared with the
	// snapshot and must not be modified.
	Node *tree.Node
	Path string

	Rect   Rect
	Weight float64 // share of the laid-out siblings' total weight

	Selected bool
	Hovered  bool

	// PrevRect is the rectangle the node animates from. Nil when idle.
	PrevRect *Rect
	Progress float64

	// Offset is a transient drag translation applied on top of the layout.
	Offset Point

	// Synthetic marks the level-of-detail "Others" bucket.
	Synthetic bool
}

// Display returns the rectangle currently shown on screen: the interpolation
// between PrevRect and Rect at Progress, translated by Offset.
func (v *VisualNode) Display() Rect {
	r := v.Rect
	if v.PrevRect != nil {
		r = v.PrevRect.Lerp(v.Rect, v.Progress)
	}
	return r.Translate(v.Offset)
}

// IsDir reports whether the node is a directory (synthetic buckets included).
func (v *VisualNode) IsDir() bool {
	return v.Node != nil && v.Node.IsDir
}

// Name returns the display name of the node.
func (v *VisualNode) Name() string {
	if v.Node == nil {
		return ""
	}
	return v.Node.Name
}

// CloneNodes returns a shallow copy of nodes with independent PrevRect values.
// Tree nodes stay shared.
func CloneNodes(nodes []VisualNode) []VisualNode {
	if nodes == nil {
		return nil
	}
	out := make([]VisualNode, len(nodes))
	copy(out, nodes)
	for i := range out {
		if out[i].PrevRect != nil {
			r := *out[i].PrevRect
			out[i].PrevRect = &r
		}
	}
	return out
}

// IndexByPath maps each node's path to its position in nodes.
func IndexByPath(nodes []VisualNode) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i := range nodes {
		if _, dup := idx[nodes[i].Path]; !dup {
			idx[nodes[i].Path] = i
		}
	}
	return idx
}
