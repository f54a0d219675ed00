package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitscroll/pkg/tree"
)

// DOTOptions bounds the node-link diagram so large repositories stay
// renderable.
type DOTOptions struct {
	// MaxDepth limits how many directory levels below the root are drawn.
	// Zero means DefaultDOTDepth.
	MaxDepth int
	// MaxNodes caps the number of drawn nodes. Zero means DefaultDOTNodes.
	MaxNodes int
	// Detailed adds sizes and token counts to node labels.
	Detailed bool
}

const (
	DefaultDOTDepth = 3
	DefaultDOTNodes = 500
)

func (o DOTOptions) withDefaults() DOTOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultDOTDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultDOTNodes
	}
	return o
}

// ToDOT converts a tree to Graphviz DOT. Directories past MaxDepth, and
// children past the MaxNodes budget, collapse into a single "+N more" node
// under their parent.
func ToDOT(root *tree.Node, opts DOTOptions) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"sans-serif\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.15;\n")
	buf.WriteString("\n")

	w := dotWriter{buf: &buf, opts: opts}
	w.node(root)
	w.walk(root, 0)

	buf.WriteString("}\n")
	return buf.String()
}

type dotWriter struct {
	buf   *bytes.Buffer
	opts  DOTOptions
	count int
}

func (w *dotWriter) walk(n *tree.Node, depth int) {
	if !n.IsDir || len(n.Children) == 0 {
		return
	}
	if depth >= w.opts.MaxDepth {
		w.more(n, len(n.Children))
		return
	}
	for i, c := range n.Children {
		if w.count >= w.opts.MaxNodes {
			w.more(n, len(n.Children)-i)
			return
		}
		w.node(c)
		fmt.Fprintf(w.buf, "  %q -> %q;\n", n.Path, c.Path)
		w.walk(c, depth+1)
	}
}

func (w *dotWriter) node(n *tree.Node) {
	w.count++
	fill := DirColor
	font := "white"
	if !n.IsDir {
		fill = ColorFor(n.Ext())
		font = "black"
	}
	fmt.Fprintf(w.buf, "  %q [label=%q, fillcolor=%q, fontcolor=%s];\n",
		n.Path, dotLabel(n, w.opts.Detailed), fill.Hex(), font)
}

func (w *dotWriter) more(parent *tree.Node, hidden int) {
	id := parent.Path + "/(more)"
	fmt.Fprintf(w.buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=%q];\n",
		id, fmt.Sprintf("+%d more", hidden), OthersColor.Hex())
	fmt.Fprintf(w.buf, "  %q -> %q;\n", parent.Path, id)
}

func dotLabel(n *tree.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{n.Name, "size: " + formatBytes(n.Size)}
	if n.Tokens > 0 {
		parts = append(parts, "tokens: "+strconv.Itoa(n.Tokens))
	}
	if n.Binary {
		parts = append(parts, "binary")
	}
	return strings.Join(parts, "\n")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel viewBox so the SVG scales like the layout exports.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
