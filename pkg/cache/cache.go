// Package cache stores scanned trees, computed layouts and rendered exports
// between runs.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, used with --no-cache
//
// # Keys
//
// A [Keyer] derives keys from the inputs of each stage. Trees are keyed by
// their source and scan options, layouts by the tree fingerprint and layout
// options, artifacts by the layout hash and format. Any change to an input
// yields a different key, so entries never need explicit invalidation.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A missing or expired key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Entry lifetimes per stage.
const (
	TTLTree     = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	TreeKey(source string, opts TreeKeyOpts) string
	LayoutKey(treeHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// TreeKeyOpts are the scan inputs that change a tree.
type TreeKeyOpts struct {
	Ref      string   `json:"ref,omitempty"`
	Ignore   []string `json:"ignore,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
	Analyze  bool     `json:"analyze,omitempty"`
}

// LayoutKeyOpts are the layout inputs that change a layout. Zoom should
// already be quantized.
type LayoutKeyOpts struct {
	Root   string  `json:"root,omitempty"`
	Mode   string  `json:"mode"`
	Metric string  `json:"metric"`
	Zoom   float64 `json:"zoom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ArtifactKeyOpts are the export inputs that change an artifact. The DOT
// fields only matter for the tree formats.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	DOTDepth int    `json:"dot_depth,omitempty"`
	DOTNodes int    `json:"dot_nodes,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TreeKey returns the key for a scanned tree.
func (DefaultKeyer) TreeKey(source string, opts TreeKeyOpts) string {
	return hashKey("tree", source, opts)
}

// LayoutKey returns the key for a computed layout.
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey returns the key for a rendered export.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	key := "artifact:" + opts.Format + ":" + layoutHash
	if opts.DOTDepth != 0 || opts.DOTNodes != 0 || opts.Detailed {
		data, _ := json.Marshal(opts)
		key += ":" + Hash(data)[:12]
	}
	return key
}
