package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// =============================================================================
// Document - Serialization Format
// =============================================================================

// Document is the canonical serialization format for a scanned tree.
// It is used for tree.json files, snapshot stores and API responses.
type Document struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Source    string    `json:"source,omitempty" bson:"source,omitempty"` // URL or local path that was scanned
	ScannedAt time.Time `json:"scanned_at,omitempty" bson:"scanned_at,omitempty"`
	Stats     *Stats    `json:"stats,omitempty" bson:"stats,omitempty"`
	Root      DocNode   `json:"root" bson:"root"`
}

// DocNode is the serialized form of a Node.
type DocNode struct {
	Name     string    `json:"name" bson:"name"`
	Path     string    `json:"path" bson:"path"`
	Dir      bool      `json:"dir,omitempty" bson:"dir,omitempty"`
	Size     int64     `json:"size,omitempty" bson:"size,omitempty"`
	Tokens   int       `json:"tokens,omitempty" bson:"tokens,omitempty"`
	Binary   bool      `json:"binary,omitempty" bson:"binary,omitempty"`
	Children []DocNode `json:"children,omitempty" bson:"children,omitempty"`
}

// =============================================================================
// Node <-> Document Conversion
// =============================================================================

// ToDocument converts a snapshot into its serialization format.
func ToDocument(s *Snapshot, source string) Document {
	st := ComputeStats(s.Root)
	return Document{
		Source:    source,
		ScannedAt: time.Now().UTC(),
		Stats:     &st,
		Root:      toDocNode(s.Root, 0),
	}
}

func toDocNode(n *Node, depth int) DocNode {
	d := DocNode{
		Name:   n.Name,
		Path:   n.Path,
		Dir:    n.IsDir,
		Size:   n.Size,
		Tokens: n.Tokens,
		Binary: n.Binary,
	}
	if depth >= MaxDepth {
		return d
	}
	if len(n.Children) > 0 {
		d.Children = make([]DocNode, len(n.Children))
		for i, c := range n.Children {
			d.Children[i] = toDocNode(c, depth+1)
		}
	}
	return d
}

// FromDocument rebuilds a snapshot from its serialization format.
// Files with children are rejected.
func FromDocument(doc Document) (*Snapshot, error) {
	root, err := fromDocNode(doc.Root, 0)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(root), nil
}

func fromDocNode(d DocNode, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("tree deeper than %d levels at %q", MaxDepth, d.Path)
	}
	if !d.Dir && len(d.Children) > 0 {
		return nil, fmt.Errorf("file %q has children", d.Path)
	}
	n := &Node{
		Name:   d.Name,
		Path:   d.Path,
		IsDir:  d.Dir,
		Size:   d.Size,
		Tokens: d.Tokens,
		Binary: d.Binary,
	}
	if len(d.Children) > 0 {
		n.Children = make([]*Node, len(d.Children))
		for i, c := range d.Children {
			child, err := fromDocNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			n.Children[i] = child
		}
	}
	return n, nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal serializes a document to pretty-printed JSON.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a document as JSON to w.
func Write(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON document from r.
func Read(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	if doc.Root.Path == "" && doc.Root.Name == "" {
		return Document{}, fmt.Errorf("tree document has no root")
	}
	return doc, nil
}

// WriteFile writes a document to a JSON file.
func WriteFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(doc, f)
}

// ReadFile reads a tree.json file and returns the decoded snapshot.
func ReadFile(path string) (*Snapshot, error) {
	doc, err := ReadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// ReadDocumentFile reads a tree.json file without converting it.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
