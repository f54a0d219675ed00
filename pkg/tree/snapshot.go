package tree

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is a published, immutable tree. Consumers swap whole snapshots
// between frames; they never patch one in place.
type Snapshot struct {
	Root *Node

	// Fingerprint identifies the tree content (paths, sizes, kinds).
	// Two snapshots of an unchanged directory have equal fingerprints.
	Fingerprint uint64

	index map[string]*Node
}

// NewSnapshot indexes root and computes its fingerprint.
func NewSnapshot(root *Node) *Snapshot {
	s := &Snapshot{Root: root, index: make(map[string]*Node)}
	d := xxhash.New()
	Walk(root, func(n *Node, depth int) bool {
		s.index[n.Path] = n
		_, _ = d.WriteString(n.Path)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(strconv.FormatInt(n.Size, 10))
		if n.IsDir {
			_, _ = d.WriteString("/")
		}
		_, _ = d.WriteString("\x00")
		return true
	})
	s.Fingerprint = d.Sum64()
	return s
}

// Find returns the node with the given path.
func (s *Snapshot) Find(p string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	n, ok := s.index[p]
	return n, ok
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.index)
}

// Hash returns the fingerprint as a fixed-width hex string, suitable for
// cache keys.
func (s *Snapshot) Hash() string {
	h := strconv.FormatUint(s.Fingerprint, 16)
	for len(h) < 16 {
		h = "0" + h
	}
	return h
}

// Stats summarizes a tree.
type Stats struct {
	Files      int            `json:"files"`
	Dirs       int            `json:"dirs"`
	TotalBytes int64          `json:"total_bytes"`
	MaxDepth   int            `json:"max_depth"`
	Extensions map[string]int `json:"extensions,omitempty"`
}

// ComputeStats walks the tree rooted at root and collects its statistics.
// The root itself counts as a directory at depth 0.
func ComputeStats(root *Node) Stats {
	st := Stats{Extensions: make(map[string]int)}
	Walk(root, func(n *Node, depth int) bool {
		if depth > st.MaxDepth {
			st.MaxDepth = depth
		}
		if n.IsDir {
			st.Dirs++
			return true
		}
		st.Files++
		st.TotalBytes += n.Size
		if ext := n.Ext(); ext != "" {
			st.Extensions[ext]++
		}
		return true
	})
	return st
}
