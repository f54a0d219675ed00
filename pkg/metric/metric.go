// Package metric supplies the scalar weights that size layout rectangles.
//
// A [Provider] maps a tree node to a positive weight. Layout strategies only
// ever compare weights among siblings, so providers need not be normalized.
package metric

import (
	"fmt"
	"math"

	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Floor is the minimum weight of a file, and the per-item unit used as a
// directory size proxy.
const Floor = 1000

// Kind names a built-in provider.
type Kind string

// Built-in provider kinds.
const (
	KindBytes  Kind = "bytes"
	KindItems  Kind = "items"
	KindTokens Kind = "tokens"
)

// Kinds lists the built-in provider kinds in display order.
var Kinds = []Kind{KindBytes, KindItems, KindTokens}

// Provider supplies a sizing weight for a node.
type Provider interface {
	Weight(n *tree.Node) float64
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(n *tree.Node) float64

// Weight calls f(n).
func (f ProviderFunc) Weight(n *tree.Node) float64 { return f(n) }

// ForKind returns the built-in provider for k.
func ForKind(k Kind) (Provider, error) {
	switch k {
	case KindBytes, "":
		return Bytes{}, nil
	case KindItems:
		return Items{}, nil
	case KindTokens:
		return Tokens{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", k)
	}
}

// Bytes weighs files by their byte size (floored at Floor) and directories by
// their on-disk size when known, else by (children+1)*Floor.
type Bytes struct{}

// Weight implements Provider.
func (Bytes) Weight(n *tree.Node) float64 {
	if n == nil {
		return 0
	}
	if n.IsDir {
		if n.Size > 0 {
			return float64(n.Size)
		}
		return dirProxy(n)
	}
	return math.Max(float64(n.Size), Floor)
}

// Items weighs every file as 1 and every directory as its direct child count
// plus one.
type Items struct{}

// Weight implements Provider.
func (Items) Weight(n *tree.Node) float64 {
	if n == nil {
		return 0
	}
	if n.IsDir {
		return float64(len(n.Children) + 1)
	}
	return 1
}

// Tokens weighs files by their analyzed token count and directories by the sum
// over their subtree. Files without a count weigh 1.
type Tokens struct{}

// Weight implements Provider.
func (Tokens) Weight(n *tree.Node) float64 {
	if n == nil {
		return 0
	}
	if !n.IsDir {
		return math.Max(float64(n.Tokens), 1)
	}
	var sum float64
	tree.Walk(n, func(c *tree.Node, _ int) bool {
		if !c.IsDir {
			sum += math.Max(float64(c.Tokens), 1)
		}
		return true
	})
	return math.Max(sum, 1)
}

func dirProxy(n *tree.Node) float64 {
	return float64(len(n.Children)+1) * Floor
}
