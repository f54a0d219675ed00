// Package layout turns a directory and a zoom factor into positioned
// rectangles.
//
// # Overview
//
// An [Engine] lays out the direct children of one directory on a canvas.
// Each call returns a fresh list of [VisualNode] values, one per placed
// child, in canvas-local float coordinates:
//
//	eng := layout.NewEngine(metric.Bytes{})
//	nodes := eng.Compute(snap.Root, 2.5, layout.Auto, layout.Size{W: 800, H: 600})
//
// Compute is pure and deterministic. It never modifies the tree and never
// fails: degenerate input (no children, a file as root, an empty canvas)
// yields an empty list.
//
// # Strategies
//
// Every [Mode] other than Auto maps to a [Strategy]:
//
//   - [GridStrategy]: uniform grid, directories only below zoom 2, cells
//     scaled by relative weight
//   - [TreemapStrategy]: slice-and-dice tiling of the padded canvas in
//     descending weight order
//   - [ForceStrategy]: circle placement followed by 50 rounds of pairwise
//     repulsion
//   - [DetailedStrategy]: directory band over a file band, with
//     level-of-detail grouping of light files into a synthetic "Others" node
//
// Auto resolves to Grid below zoom 2, Treemap below zoom 3 and Detailed from
// zoom 3 on. See [Resolve].
//
// # Caching
//
// [Cache] memoizes an engine for one root at a time. Zoom is quantized to
// 0.1 for the key, so small floating point drift during animation does not
// defeat it.
//
// # Serialization
//
// [Document] is the JSON/BSON form of a computed layout. Use [Export] to
// build one and [WriteFile]/[ReadFile] to persist it.
package layout
