package tree

import (
	"path"
	"strings"
)

// MaxDepth bounds every recursive walk over a tree.
const MaxDepth = 256

// Node is a single directory entry.
type Node struct {
	Name  string
	Path  string
	IsDir bool

	// Size is the size in bytes. Directories carry the sum of their subtree,
	// zero means unknown.
	Size int64

	// Tokens and Binary are annotations written by the analyzer before the
	// snapshot is published.
	Tokens int
	Binary bool

	Children []*Node
}

// NewFile creates a file node.
func NewFile(p string, size int64) *Node {
	return &Node{Name: path.Base(p), Path: p, Size: size}
}

// NewDir creates a directory node with the given children. The directory size
// is the sum of the children's sizes.
func NewDir(p string, children ...*Node) *Node {
	n := &Node{Name: path.Base(p), Path: p, IsDir: true, Children: children}
	for _, c := range children {
		n.Size += c.Size
	}
	return n
}

// Ext returns the lower-case file extension without the dot.
func (n *Node) Ext() string {
	if n == nil || n.IsDir {
		return ""
	}
	ext := path.Ext(n.Name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Dirs returns the directory children in order.
func (n *Node) Dirs() []*Node {
	return n.filter(true)
}

// Files returns the file children in order.
func (n *Node) Files() []*Node {
	return n.filter(false)
}

func (n *Node) filter(dirs bool) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.IsDir == dirs {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls fn for n and every descendant in pre-order. Returning false from
// fn skips the node's children. Recursion stops at MaxDepth.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || depth > MaxDepth {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Find resolves a node by path with a depth-first search.
// Prefer Snapshot.Find, which uses an index.
func Find(root *Node, p string) *Node {
	var found *Node
	Walk(root, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Path == p {
			found = n
			return false
		}
		return true
	})
	return found
}
