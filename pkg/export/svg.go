package export

import (
	"bytes"
	"fmt"
	"html"
	"unicode/utf8"

	"github.com/matzehuels/gitscroll/pkg/layout"
)

const (
	labelMinWidth  = 40
	labelMinHeight = 14
	labelFontSize  = 11
	charWidth      = 6.5 // average glyph advance at labelFontSize
)

// RenderLayoutSVG draws every box in doc as a rounded rectangle coloured by
// kind and extension, with a label where it fits and a hover title.
func RenderLayoutSVG(doc layout.Document) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		doc.Width, doc.Height, doc.Width, doc.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="#f0f0f0"/>`+"\n")

	for _, b := range doc.Nodes {
		renderBox(&buf, b)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderBox(buf *bytes.Buffer, b layout.Box) {
	fill := boxColor(b)
	stroke, width := "#323232", 1.0
	if b.Selected {
		stroke, width = SelectedColor.Hex(), 3
	}
	name := html.EscapeString(b.Name)

	fmt.Fprintf(buf, `  <g class="box" data-path="%s">`+"\n", html.EscapeString(b.Path))
	fmt.Fprintf(buf, "    <title>%s</title>\n", name)
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="4" fill="%s" stroke="%s" stroke-width="%.0f"/>`+"\n",
		b.X, b.Y, b.Width, b.Height, fill.Hex(), stroke, width)

	if b.Width >= labelMinWidth && b.Height >= labelMinHeight {
		label := fitLabel(b.Name, b.Width-8)
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%d" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			b.X+b.Width/2, b.Y+b.Height/2, labelFontSize, TextColor.Hex(), html.EscapeString(label))
	}
	buf.WriteString("  </g>\n")
}

func boxColor(b layout.Box) RGB {
	switch {
	case b.Synthetic:
		return OthersColor
	case b.Dir:
		return DirColor
	default:
		return ColorFor(b.Ext)
	}
}

// fitLabel truncates s with an ellipsis so it fits in width pixels.
func fitLabel(s string, width float64) string {
	max := int(width / charWidth)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return ""
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
