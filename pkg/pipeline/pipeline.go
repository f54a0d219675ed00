// Package pipeline runs the scan → layout → export pipeline for gitscroll.
//
// The CLI and the HTTP server both go through this package so that a tree
// scanned, laid out or exported by one is found in the cache by the other.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Scan: clone a repository or read a local directory into a tree
//     snapshot, optionally counting tokens per file
//  2. Layout: lay out one directory of the snapshot at a zoom level
//  3. Export: render the layout (or the tree) into files
//
// Each stage can be run on its own or as part of [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    ".",
//	    Mode:    "treemap",
//	    Formats: []string{"svg", "csv"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/matzehuels/gitscroll/pkg/cache"
	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/scan"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 600.0

	// DefaultZoom is the zoom a layout is computed at when none is given.
	DefaultZoom = layout.MinZoom

	// DefaultMode lets the zoom level pick the strategy.
	DefaultMode = "auto"

	// DefaultMetric sizes rectangles by bytes on disk.
	DefaultMetric = string(metric.KindBytes)
)

// DefaultFormats is what Export renders when no format is requested.
var DefaultFormats = []string{string(export.FormatSVG)}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Scan options. Exactly one of Path and URL is set.
	Path     string   `json:"path,omitempty"`
	URL      string   `json:"url,omitempty"`
	Ref      string   `json:"ref,omitempty"`
	Ignore   []string `json:"ignore,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
	Analyze  bool     `json:"analyze,omitempty"` // count tokens per file
	Workers  int      `json:"workers,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass the tree cache

	// Layout options
	Root   string  `json:"root,omitempty"` // node path to lay out, default the tree root
	Mode   string  `json:"mode,omitempty"`
	Metric string  `json:"metric,omitempty"`
	Zoom   float64 `json:"zoom,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Export options
	Formats  []string `json:"formats,omitempty"`
	DOTDepth int      `json:"dot_depth,omitempty"`
	DOTNodes int      `json:"dot_nodes,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the scanned tree.
	Snapshot *tree.Snapshot

	// Source is the directory or URL the tree was read from.
	Source string

	// Layout is the computed layout document.
	Layout layout.Document

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Files      int
	Tokens     int
	Boxes      int
	ScanTime   time.Duration
	LayoutTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TreeHit   bool // Whether the tree came from cache
	LayoutHit bool // Whether the layout came from cache
	ExportHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are known.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if _, err := export.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode checks that a layout mode is known.
func ValidateMode(mode string) error {
	if _, err := layout.ParseMode(mode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMode, err, "invalid mode")
	}
	return nil
}

// ValidateMetric checks that a metric is known.
func ValidateMetric(m string) error {
	if _, err := metric.ForKind(metric.Kind(m)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMetric, err, "invalid metric")
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForScan(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForScan checks the source and applies scan defaults.
func (o *Options) ValidateForScan() error {
	switch {
	case o.Path == "" && o.URL == "":
		return errors.New(errors.ErrCodeInvalidInput, "path or url is required")
	case o.Path != "" && o.URL != "":
		return errors.New(errors.ErrCodeInvalidInput, "path and url are mutually exclusive")
	case o.URL != "":
		if err := errors.ValidateRepoURL(o.URL); err != nil {
			return err
		}
	}
	for _, p := range o.Ignore {
		if err := errors.ValidateIgnorePattern(p); err != nil {
			return err
		}
	}
	if o.MaxDepth <= 0 || o.MaxDepth > tree.MaxDepth {
		o.MaxDepth = tree.MaxDepth
	}
	if o.Ignore == nil {
		o.Ignore = append([]string(nil), scan.DefaultIgnore...)
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Metric == "" {
		o.Metric = DefaultMetric
	}
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := ValidateMetric(o.Metric); err != nil {
		return err
	}
	return errors.ValidateCanvas(o.Width, o.Height)
}

// SetExportDefaults sets default values for exporting.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
}

// ValidateForExport validates and sets defaults for exporting.
func (o *Options) ValidateForExport() error {
	o.SetLayoutDefaults()
	o.SetExportDefaults()
	return ValidateFormats(o.Formats)
}

// Source returns the URL when set, else the directory.
func (o *Options) Source() string {
	if o.URL != "" {
		return o.URL
	}
	return o.Path
}

// TreeKeyOpts returns cache key options for a scanned tree.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{
		Ref:      o.Ref,
		Ignore:   o.Ignore,
		MaxDepth: o.MaxDepth,
		Analyze:  o.Analyze,
	}
}

// LayoutKeyOpts returns cache key options for layout computation. Auto is
// resolved against the exact zoom, as Runner.Layout does.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	mode := o.Mode
	if m, err := layout.ParseMode(o.Mode); err == nil {
		mode = layout.Resolve(m, layout.ClampZoom(o.Zoom)).String()
	}
	return cache.LayoutKeyOpts{
		Root:   o.Root,
		Mode:   mode,
		Metric: o.Metric,
		Zoom:   layout.QuantizeZoom(o.Zoom),
		Width:  o.Width,
		Height: o.Height,
	}
}

// ArtifactKeyOpts returns cache key options for an exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch export.Format(format) {
	case export.FormatDOT, export.FormatTreeSVG:
		k.DOTDepth, k.DOTNodes, k.Detailed = o.DOTDepth, o.DOTNodes, o.Detailed
	}
	return k
}

// DOTOptions returns the export options for the tree formats.
func (o *Options) DOTOptions() export.DOTOptions {
	return export.DOTOptions{MaxDepth: o.DOTDepth, MaxNodes: o.DOTNodes, Detailed: o.Detailed}
}
