package pipeline

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitscroll/pkg/cache"
	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/scan"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "repo")
	files := map[string]string{
		"README.md":      "# hello world\n",
		"main.go":        "package main\n\nfunc main() {}\n",
		"src/lib.rs":     "fn lib() -> u32 { 42 }\n",
		"src/util.py":    "def util():\n    return 1\n",
		"node_modules/x": "ignored",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		formats []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"svg", "csv"}, false},
		{[]string{"json", "dot", "tree-svg"}, false},
		{[]string{"svg", "png"}, true},
		{[]string{""}, true},
	}
	for _, tt := range tests {
		err := ValidateFormats(tt.formats)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
		}
	}
}

func TestValidateModeAndMetric(t *testing.T) {
	for _, m := range []string{"auto", "grid", "treemap", "force", "detailed"} {
		if err := ValidateMode(m); err != nil {
			t.Errorf("ValidateMode(%q) = %v", m, err)
		}
	}
	if err := ValidateMode("spiral"); errors.GetCode(err) != errors.ErrCodeInvalidMode {
		t.Errorf("ValidateMode(spiral) = %v, want INVALID_MODE", err)
	}
	for _, m := range []string{"bytes", "items", "tokens"} {
		if err := ValidateMetric(m); err != nil {
			t.Errorf("ValidateMetric(%q) = %v", m, err)
		}
	}
	if err := ValidateMetric("lines"); errors.GetCode(err) != errors.ErrCodeInvalidMetric {
		t.Errorf("ValidateMetric(lines) = %v, want INVALID_METRIC", err)
	}
}

func TestOptionsValidateForScan(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing source", Options{}, errors.ErrCodeInvalidInput},
		{"both sources", Options{Path: ".", URL: "https://example.com/r.git"}, errors.ErrCodeInvalidInput},
		{"bad url", Options{URL: "ftp://example.com/r"}, errors.ErrCodeInvalidURL},
		{"bad ignore", Options{Path: ".", Ignore: []string{"a/b"}}, errors.ErrCodeInvalidConfig},
		{"path", Options{Path: "."}, ""},
		{"url", Options{URL: "https://example.com/r.git"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForScan()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestScanDefaults(t *testing.T) {
	opts := Options{Path: ".", MaxDepth: -3}
	if err := opts.ValidateForScan(); err != nil {
		t.Fatal(err)
	}
	if opts.MaxDepth != tree.MaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, tree.MaxDepth)
	}
	if strings.Join(opts.Ignore, ",") != strings.Join(scan.DefaultIgnore, ",") {
		t.Errorf("Ignore = %v", opts.Ignore)
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()

	if opts.Mode != DefaultMode {
		t.Errorf("Mode should be %s, got %s", DefaultMode, opts.Mode)
	}
	if opts.Metric != DefaultMetric {
		t.Errorf("Metric should be %s, got %s", DefaultMetric, opts.Metric)
	}
	if opts.Zoom != DefaultZoom {
		t.Errorf("Zoom should be %f, got %f", DefaultZoom, opts.Zoom)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("canvas should be %fx%f, got %fx%f", DefaultWidth, DefaultHeight, opts.Width, opts.Height)
	}
}

func TestValidateForLayoutRejectsCanvas(t *testing.T) {
	opts := Options{Width: -1}
	if err := opts.ValidateForLayout(); errors.GetCode(err) != errors.ErrCodeInvalidCanvas {
		t.Errorf("err = %v, want INVALID_CANVAS", err)
	}
}

func TestSetExportDefaults(t *testing.T) {
	opts := Options{}
	opts.SetExportDefaults()
	if len(opts.Formats) != 1 || opts.Formats[0] != "svg" {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Path: "."}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	before := opts.LayoutKeyOpts()

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.LayoutKeyOpts() != before {
		t.Error("layout options changed on second call")
	}
}

func TestLayoutKeyOptsQuantizesZoom(t *testing.T) {
	a := Options{Zoom: 1.52, Mode: "auto"}
	b := Options{Zoom: 1.58, Mode: "auto"}
	if a.LayoutKeyOpts().Zoom != b.LayoutKeyOpts().Zoom {
		t.Errorf("zoom %v and %v should share a key", a.Zoom, b.Zoom)
	}

	below := Options{Zoom: 1.9999999, Mode: "auto"}
	at := Options{Zoom: 2, Mode: "auto"}
	if b, a := below.LayoutKeyOpts(), at.LayoutKeyOpts(); b.Mode != "grid" || a.Mode != "treemap" {
		t.Errorf("resolved modes = %s/%s, want grid/treemap", b.Mode, a.Mode)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{DOTDepth: 2, Detailed: true}
	if k := opts.ArtifactKeyOpts("svg"); k.DOTDepth != 0 || k.Detailed {
		t.Errorf("layout formats should ignore DOT options: %+v", k)
	}
	if k := opts.ArtifactKeyOpts("dot"); k.DOTDepth != 2 || !k.Detailed {
		t.Errorf("dot should carry DOT options: %+v", k)
	}
}

func TestExecuteLocal(t *testing.T) {
	dir := writeRepo(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{Path: dir, Mode: "treemap", Analyze: true, Formats: []string{"svg", "csv", "dot"}}
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.Files != 4 {
		t.Errorf("files = %d, want 4 (node_modules ignored)", res.Stats.Files)
	}
	if res.Stats.Tokens == 0 {
		t.Error("analyze should count tokens")
	}
	if res.Layout.Mode != "treemap" || res.Layout.Root != "repo" {
		t.Errorf("layout = %s at %s", res.Layout.Mode, res.Layout.Root)
	}
	// README.md, main.go and src
	if len(res.Layout.Nodes) != 3 {
		t.Errorf("boxes = %d, want 3", len(res.Layout.Nodes))
	}
	if res.Layout.Tree != res.Snapshot.Hash() {
		t.Error("layout should record the tree fingerprint")
	}
	for _, f := range opts.Formats {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if res.CacheInfo != (CacheInfo{}) {
		t.Errorf("first run should miss everywhere: %+v", res.CacheInfo)
	}

	again, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	want := CacheInfo{TreeHit: false, LayoutHit: true, ExportHit: true}
	if again.CacheInfo != want {
		t.Errorf("second run cache info = %+v, want %+v", again.CacheInfo, want)
	}
	if string(again.Artifacts["csv"]) != string(res.Artifacts["csv"]) {
		t.Error("cached csv differs")
	}
}

func TestLayoutRoot(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	snap, err := r.Scan(context.Background(), Options{Path: writeRepo(t)})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := r.Layout(context.Background(), snap, Options{Root: "repo/src", Mode: "treemap"})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Root != "repo/src" || len(doc.Nodes) != 2 {
		t.Errorf("sub layout = %s with %d boxes", doc.Root, len(doc.Nodes))
	}

	tests := []struct {
		root string
		code errors.Code
	}{
		{"repo/missing", errors.ErrCodeNotFound},
		{"repo/main.go", errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		_, err := r.Layout(context.Background(), snap, Options{Root: tt.root})
		if got := errors.GetCode(err); got != tt.code {
			t.Errorf("Layout(%s) code = %q, want %q", tt.root, got, tt.code)
		}
	}
}

func TestExportRefreshesMissingFormats(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	ctx := context.Background()

	snap, err := r.Scan(ctx, Options{Path: writeRepo(t)})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := r.Layout(ctx, snap, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, hit, err := r.ExportWithCacheInfo(ctx, doc, snap.Root, Options{Formats: []string{"csv"}}); err != nil || hit {
		t.Fatalf("first export hit=%v err=%v", hit, err)
	}
	arts, hit, err := r.ExportWithCacheInfo(ctx, doc, snap.Root, Options{Formats: []string{"csv", "json"}})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("json was never exported, so this cannot be a full hit")
	}
	if len(arts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(arts))
	}
}

func TestScanURLCachesTree(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	src := writeRepo(t)
	for _, args := range [][]string{
		{"init", "-q"},
		{"add", "."},
		{"-c", "user.name=test", "-c", "user.email=test@example.com", "commit", "-q", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = src
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	ctx := context.Background()
	opts := Options{URL: "file://" + filepath.ToSlash(src)}

	first, hit, err := r.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first scan should miss")
	}
	second, hit, err := r.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second scan should hit the tree cache")
	}
	if first.Fingerprint != second.Fingerprint {
		t.Error("cached tree differs from the scanned one")
	}

	opts.Refresh = true
	if _, hit, err := r.ScanWithCacheInfo(ctx, opts); err != nil || hit {
		t.Errorf("refresh should bypass the cache: hit=%v err=%v", hit, err)
	}
}
