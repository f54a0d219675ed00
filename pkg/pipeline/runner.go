package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitscroll/pkg/analyze"
	"github.com/matzehuels/gitscroll/pkg/cache"
	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/export"
	"github.com/matzehuels/gitscroll/pkg/layout"
	"github.com/matzehuels/gitscroll/pkg/metric"
	"github.com/matzehuels/gitscroll/pkg/observability"
	"github.com/matzehuels/gitscroll/pkg/scan"
	"github.com/matzehuels/gitscroll/pkg/source"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so that they share cache entries.
//
// The Runner is stateless except for the cache, the clone provider and the
// logger. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Source *source.Provider
	Logger *log.Logger

	// TTL, when set, replaces the per-kind cache TTLs.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Source: source.NewProvider(source.WithLogger(logger)),
		Logger: logger,
	}
}

// Execute runs the complete scan → layout → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Source: opts.Source()}

	// Stage 1: Scan
	scanStart := time.Now()
	snap, treeHit, err := r.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Snapshot = snap
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.Nodes = snap.Len()
	result.Stats.Files = tree.ComputeStats(snap.Root).Files
	result.Stats.Tokens = snap.Root.Tokens
	result.CacheInfo.TreeHit = treeHit

	r.Logger.Info("scanned tree",
		"nodes", result.Stats.Nodes,
		"files", result.Stats.Files,
		"duration", result.Stats.ScanTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	doc, layoutHit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = doc
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Boxes = len(doc.Nodes)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"mode", doc.Mode,
		"boxes", len(doc.Nodes),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Export
	exportStart := time.Now()
	root, _ := snap.Find(doc.Root)
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, doc, root, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// =============================================================================
// Scan
// =============================================================================

// ScanWithCacheInfo reads the tree named by opts and reports whether it came
// from cache. Only cloned repositories are cached; local directories change
// under the user and are always scanned.
func (r *Runner) ScanWithCacheInfo(ctx context.Context, opts Options) (*tree.Snapshot, bool, error) {
	if err := opts.ValidateForScan(); err != nil {
		return nil, false, err
	}

	if opts.URL == "" {
		dir, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", opts.Path)
		}
		snap, err := r.scanDir(ctx, dir, opts)
		return snap, false, err
	}

	key := r.Keyer.TreeKey(opts.URL, opts.TreeKeyOpts())
	if !opts.Refresh {
		if data, hit := r.lookup(ctx, "tree", key); hit {
			doc, err := tree.Read(bytes.NewReader(data))
			if err == nil {
				if snap, err := tree.FromDocument(doc); err == nil {
					return snap, true, nil
				}
			}
			r.Logger.Debug("discarding unreadable cached tree", "key", key)
		}
	}

	co, err := r.Source.Clone(ctx, opts.URL, opts.Ref)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err := co.Cleanup(); err != nil {
			r.Logger.Warn("remove checkout", "dir", co.Dir, "error", err)
		}
	}()
	r.Logger.Info("cloned repository", "url", opts.URL, "revision", co.Revision)

	snap, err := r.scanDir(ctx, co.Dir, opts)
	if err != nil {
		return nil, false, err
	}
	if data, err := tree.Marshal(tree.ToDocument(snap, opts.URL)); err == nil {
		r.store(ctx, "tree", key, data, cache.TTLTree)
	}
	return snap, false, nil
}

// Scan is a convenience wrapper that calls ScanWithCacheInfo and discards the cache hit info.
func (r *Runner) Scan(ctx context.Context, opts Options) (*tree.Snapshot, error) {
	snap, _, err := r.ScanWithCacheInfo(ctx, opts)
	return snap, err
}

func (r *Runner) scanDir(ctx context.Context, dir string, opts Options) (*tree.Snapshot, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnScanStart(ctx, dir)

	b := scan.New(scan.WithIgnore(opts.Ignore...), scan.WithMaxDepth(opts.MaxDepth))
	snap, err := b.Build(ctx, dir)
	if err != nil {
		hooks.OnScanComplete(ctx, dir, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnScanComplete(ctx, dir, snap.Len(), time.Since(start), nil)

	if !opts.Analyze {
		return snap, nil
	}

	start = time.Now()
	var aopts []analyze.Option
	if opts.Workers > 0 {
		aopts = append(aopts, analyze.WithWorkers(opts.Workers))
	}
	sum, err := analyze.New(aopts...).Annotate(ctx, dir, snap)
	hooks.OnAnalyzeComplete(ctx, sum.Files, sum.Tokens, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if sum.Failed > 0 {
		r.Logger.Warn("some files could not be analyzed", "failed", sum.Failed)
	}
	r.Logger.Debug("analyzed files",
		"files", sum.Files,
		"tokens", sum.Tokens,
		"binary", sum.Binary,
		"skipped", sum.Skipped)
	return snap, nil
}

// =============================================================================
// Layout
// =============================================================================

// LayoutWithCacheInfo lays out opts.Root (the tree root when empty) and
// reports whether the layout came from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, snap *tree.Snapshot, opts Options) (layout.Document, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Document{}, false, err
	}

	dir, err := layoutRoot(snap, opts.Root)
	if err != nil {
		return layout.Document{}, false, err
	}

	key := r.Keyer.LayoutKey(treeHash(snap, opts.Metric), opts.LayoutKeyOpts())
	if data, hit := r.lookup(ctx, "layout", key); hit {
		if doc, err := layout.Unmarshal(data); err == nil {
			return doc, true, nil
		}
	}

	doc, err := ComputeLayout(ctx, snap, dir, opts)
	if err != nil {
		return layout.Document{}, false, err
	}
	if data, err := layout.Marshal(doc); err == nil {
		r.store(ctx, "layout", key, data, cache.TTLLayout)
	}
	return doc, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, snap *tree.Snapshot, opts Options) (layout.Document, error) {
	doc, _, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	return doc, err
}

// ComputeLayout lays out dir without caching. Options must already be
// validated.
func ComputeLayout(ctx context.Context, snap *tree.Snapshot, dir *tree.Node, opts Options) (doc layout.Document, err error) {
	mode, err := layout.ParseMode(opts.Mode)
	if err != nil {
		return layout.Document{}, errors.Wrap(errors.ErrCodeInvalidMode, err, "invalid mode")
	}
	p, err := metric.ForKind(metric.Kind(opts.Metric))
	if err != nil {
		return layout.Document{}, errors.Wrap(errors.ErrCodeInvalidMetric, err, "invalid metric")
	}

	hooks := observability.Pipeline()
	mode = layout.Resolve(mode, layout.ClampZoom(opts.Zoom))
	zoom := layout.QuantizeZoom(opts.Zoom)
	resolved := mode.String()
	start := time.Now()
	hooks.OnLayoutStart(ctx, resolved, len(dir.Children))
	defer func() { hooks.OnLayoutComplete(ctx, resolved, time.Since(start), err) }()

	canvas := layout.Size{W: opts.Width, H: opts.Height}
	nodes := layout.NewEngine(p).Compute(dir, zoom, mode, canvas)
	doc = layout.Export(nodes, dir.Path, zoom, mode, canvas)
	doc.Tree = snap.Hash()
	doc.Metric = opts.Metric
	return doc, nil
}

func layoutRoot(snap *tree.Snapshot, p string) (*tree.Node, error) {
	if snap == nil || snap.Root == nil {
		return nil, errors.New(errors.ErrCodeTreeNotFound, "no tree to lay out")
	}
	if p == "" {
		return snap.Root, nil
	}
	n, ok := snap.Find(p)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "path %q is not in the tree", p)
	}
	if !n.IsDir {
		return nil, errors.New(errors.ErrCodeInvalidPath, "path %q is not a directory", p)
	}
	return n, nil
}

// treeHash identifies the layout input. The fingerprint ignores token
// counts, so the tokens metric also keys on the root total.
func treeHash(snap *tree.Snapshot, m string) string {
	h := snap.Hash()
	if metric.Kind(m) == metric.KindTokens {
		h += ":t" + strconv.Itoa(snap.Root.Tokens)
	}
	return h
}

// =============================================================================
// Export
// =============================================================================

// ExportWithCacheInfo renders every format in opts.Formats from doc and the
// laid out directory root. It reports a hit only when all formats came
// from cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, doc layout.Document, root *tree.Node, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}

	layoutData, err := layout.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, ok := r.lookup(ctx, "artifact", key)
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnExportStart(ctx, opts.Formats)
	defer func() { hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err) }()

	in := export.Input{Doc: &doc, Root: root, DOT: opts.DOTOptions()}
	for _, format := range opts.Formats {
		if _, ok := artifacts[format]; ok {
			continue
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return nil, false, err
		}
		data, err := export.Render(ctx, f, in)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeExportFailed, err, "export %s", format)
		}
		artifacts[format] = data
		r.store(ctx, "artifact", r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards the cache hit info.
func (r *Runner) Export(ctx context.Context, doc layout.Document, root *tree.Node, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.ExportWithCacheInfo(ctx, doc, root, opts)
	return artifacts, err
}

// =============================================================================
// Helpers
// =============================================================================

// lookup reads key from the cache. Backend errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "type", keyType, "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyType)
	return data, true
}

// store writes key to the cache. Failures are logged, not returned.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
