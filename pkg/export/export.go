// Package export renders trees and computed layouts into files.
//
// # Formats
//
//   - json: the layout.Document itself
//   - csv: one row per laid out box
//   - svg: the laid out boxes as coloured rectangles
//   - dot: the tree as a Graphviz node-link diagram
//   - tree-svg: the DOT diagram rendered in-process with Graphviz
//
// Layout formats need a layout.Document. Tree formats need the tree root.
package export

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Format names an export format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatSVG     Format = "svg"
	FormatDOT     Format = "dot"
	FormatTreeSVG Format = "tree-svg"
)

// Formats lists every format in help order.
var Formats = []Format{FormatJSON, FormatCSV, FormatSVG, FormatDOT, FormatTreeSVG}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatTreeSVG:
		return "tree.svg"
	default:
		return string(f)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatSVG, FormatTreeSVG:
		return "image/svg+xml"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", s, FormatList())
	}
	return f, nil
}

// ParseFormats parses a comma-separated list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no formats given")
	}
	return out, nil
}

// FormatList returns the format names joined by ", ".
func FormatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Input is what Render draws from. Doc is required by json, csv and svg;
// Root by dot and tree-svg.
type Input struct {
	Doc  *layout.Document
	Root *tree.Node
	DOT  DOTOptions
}

// Render produces the bytes of one format.
func Render(ctx context.Context, f Format, in Input) ([]byte, error) {
	switch f {
	case FormatJSON, FormatCSV, FormatSVG:
		if in.Doc == nil {
			return nil, errors.New(errors.ErrCodeExportFailed, "%s export needs a layout", f)
		}
	case FormatDOT, FormatTreeSVG:
		if in.Root == nil {
			return nil, errors.New(errors.ErrCodeExportFailed, "%s export needs a tree", f)
		}
	}

	switch f {
	case FormatJSON:
		return layout.Marshal(*in.Doc)
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, *in.Doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatSVG:
		return RenderLayoutSVG(*in.Doc), nil
	case FormatDOT:
		return []byte(ToDOT(in.Root, in.DOT)), nil
	case FormatTreeSVG:
		return RenderSVG(ctx, ToDOT(in.Root, in.DOT))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
	}
}
