package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Document - serialized layout
// =============================================================================

// Document is the serialization format of one computed layout. It is what the
// layout command writes, what the cache stores and what the HTTP API returns.
type Document struct {
	Root   string  `json:"root" bson:"root"`
	Tree   string  `json:"tree,omitempty" bson:"tree,omitempty"` // snapshot fingerprint
	Mode   string  `json:"mode" bson:"mode"`                     // resolved mode
	Zoom   float64 `json:"zoom" bson:"zoom"`
	Metric string  `json:"metric,omitempty" bson:"metric,omitempty"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Nodes  []Box   `json:"nodes" bson:"nodes"`
}

// Box is one positioned rectangle in a Document.
type Box struct {
	Path      string  `json:"path" bson:"path"`
	Name      string  `json:"name" bson:"name"`
	Dir       bool    `json:"dir,omitempty" bson:"dir,omitempty"`
	Ext       string  `json:"ext,omitempty" bson:"ext,omitempty"`
	Size      int64   `json:"size,omitempty" bson:"size,omitempty"`
	X         float64 `json:"x" bson:"x"`
	Y         float64 `json:"y" bson:"y"`
	Width     float64 `json:"width" bson:"width"`
	Height    float64 `json:"height" bson:"height"`
	Weight    float64 `json:"weight" bson:"weight"`
	Synthetic bool    `json:"synthetic,omitempty" bson:"synthetic,omitempty"`
	Selected  bool    `json:"selected,omitempty" bson:"selected,omitempty"`
	Hovered   bool    `json:"hovered,omitempty" bson:"hovered,omitempty"`
}

// Export converts visual nodes into a Document. Boxes use the displayed
// rectangle, so a mid-animation frame exports what is on screen.
func Export(nodes []VisualNode, rootPath string, zoom float64, mode Mode, canvas Size) Document {
	doc := Document{
		Root:   rootPath,
		Mode:   Resolve(mode, zoom).String(),
		Zoom:   zoom,
		Width:  canvas.W,
		Height: canvas.H,
		Nodes:  make([]Box, 0, len(nodes)),
	}
	for i := range nodes {
		v := &nodes[i]
		r := v.Display()
		b := Box{
			Path:      v.Path,
			Name:      v.Name(),
			Dir:       v.IsDir(),
			X:         r.MinX,
			Y:         r.MinY,
			Width:     r.W,
			Height:    r.H,
			Weight:    v.Weight,
			Synthetic: v.Synthetic,
			Selected:  v.Selected,
			Hovered:   v.Hovered,
		}
		if v.Node != nil {
			b.Ext = v.Node.Ext()
			b.Size = v.Node.Size
		}
		doc.Nodes = append(doc.Nodes, b)
	}
	return doc
}

// Rect returns the box's rectangle.
func (b Box) Rect() Rect { return Rect{MinX: b.X, MinY: b.Y, W: b.Width, H: b.Height} }

// =============================================================================
// Serialization API
// =============================================================================

// Marshal serializes a Document to pretty-printed JSON bytes.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Document.
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if _, err := ParseMode(doc.Mode); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	return doc, nil
}

// Write encodes doc as JSON to w.
func Write(doc Document, w io.Writer) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes a Document to a JSON file.
func WriteFile(doc Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Document from a JSON file.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
