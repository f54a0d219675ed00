package scene

import (
	"fmt"
	"strings"

	"github.com/matzehuels/gitscroll/pkg/layout"
)

// Tooltip returns the hover text for n at the given zoom. Past zoom 3.5 it
// adds a files/directories split for directories and size details for files.
func Tooltip(n *layout.VisualNode, zoom float64) string {
	if n == nil || n.Node == nil {
		return ""
	}
	detailed := clamp01(zoom-3) > 0.5
	node := n.Node

	var b strings.Builder
	b.WriteString(node.Name)
	if node.IsDir {
		items := len(node.Children)
		fmt.Fprintf(&b, "\n%d items", items)
		if detailed && items > 0 {
			files := len(node.Files())
			fmt.Fprintf(&b, " (%d files, %d dirs)", files, items-files)
		}
		return b.String()
	}
	if detailed {
		fmt.Fprintf(&b, "\nSize: %d KB", node.Size/1024)
		if node.Tokens > 0 {
			fmt.Fprintf(&b, "\nTokens: %d", node.Tokens)
		}
		if node.Binary {
			b.WriteString("\nbinary")
		}
	}
	return b.String()
}
