// Package tree defines the directory tree data model shared by every stage of
// gitscroll.
//
// A tree is built once per scan or filter operation by the scanner
// (see [github.com/matzehuels/gitscroll/pkg/scan]) and then published as an
// immutable [Snapshot]. Layouts, animations and renderers hold plain *Node
// pointers into the snapshot; nothing in the module deep-copies a subtree,
// so a relayout allocates only the visual nodes it produces.
//
// # Invariants
//
//   - A node with IsDir == false has no children.
//   - Paths are unique within a snapshot and act as the node identity across
//     snapshots (selection and animation are matched by path).
//   - Trees are acyclic. Every recursive walk in this module stops at
//     [MaxDepth] regardless.
//
// # Serialization
//
// [Document] is the JSON (and BSON) wire format used by tree.json files, the
// snapshot stores and the HTTP API:
//
//	snap, err := tree.ReadFile("tree.json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(tree.Count(snap.Root))
package tree
