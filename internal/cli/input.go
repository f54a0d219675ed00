package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gitscroll/pkg/config"
	"github.com/matzehuels/gitscroll/pkg/pipeline"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// scanFlags are the source flags shared by scan, layout, export and view.
type scanFlags struct {
	ref      string
	ignore   []string
	maxDepth int
	analyze  bool
	workers  int
	refresh  bool
	noCache  bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ref, "ref", "", "branch, tag or commit to check out (repositories only)")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "names to skip (default from config)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "maximum directory depth")
	cmd.Flags().BoolVar(&f.analyze, "analyze", false, "count tokens per file")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "token counting workers (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass the cached tree")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options builds scan options for arg, filling unset flags from cfg. arg is
// a directory or a repository URL.
func (f *scanFlags) options(cmd *cobra.Command, cfg config.Config, arg string) pipeline.Options {
	opts := pipeline.Options{
		Ref:      f.ref,
		Ignore:   f.ignore,
		MaxDepth: f.maxDepth,
		Analyze:  f.analyze || cfg.Scan.Analyze,
		Workers:  f.workers,
		Refresh:  f.refresh,
	}
	if !cmd.Flags().Changed("ignore") {
		opts.Ignore = cfg.Scan.Ignore
	}
	if !cmd.Flags().Changed("max-depth") {
		opts.MaxDepth = cfg.Scan.MaxDepth
	}
	if !cmd.Flags().Changed("workers") {
		opts.Workers = cfg.Scan.Workers
	}
	if isDir(arg) {
		opts.Path = arg
	} else {
		opts.URL = arg
	}
	return opts
}

// layoutFlags are the layout flags shared by layout, export and view.
type layoutFlags struct {
	root   string
	mode   string
	metric string
	zoom   float64
	width  float64
	height float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "directory to lay out (default the tree root)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "layout mode: auto, grid, treemap, force, detailed")
	cmd.Flags().StringVar(&f.metric, "metric", "", "size metric: bytes, items, tokens")
	cmd.Flags().Float64VarP(&f.zoom, "zoom", "z", 0, "zoom level in [1, 4]")
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height")
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)
	_ = cmd.RegisterFlagCompletionFunc("metric", completeMetrics)
}

// apply copies the layout flags into opts. Flags left unset take the config
// values.
func (f *layoutFlags) apply(cmd *cobra.Command, cfg config.Config, opts *pipeline.Options) {
	opts.Root = f.root
	opts.Mode = pick(cmd, "mode", f.mode, cfg.Layout.Mode)
	opts.Metric = pick(cmd, "metric", f.metric, cfg.Layout.Metric)
	opts.Zoom = pick(cmd, "zoom", f.zoom, cfg.Layout.Zoom)
	opts.Width = pick(cmd, "width", f.width, cfg.Layout.Width)
	opts.Height = pick(cmd, "height", f.height, cfg.Layout.Height)
}

func pick[T any](cmd *cobra.Command, flag string, v, fallback T) T {
	if cmd.Flags().Changed(flag) {
		return v
	}
	return fallback
}

// loadTree reads the tree named by arg: a tree.json written by scan, a
// directory or a repository URL. It returns the snapshot and a description
// of where it came from.
func (c *CLI) loadTree(ctx context.Context, cmd *cobra.Command, runner *pipeline.Runner, sf *scanFlags, arg string) (*tree.Snapshot, string, bool, error) {
	if isTreeFile(arg) {
		snap, err := tree.ReadFile(arg)
		return snap, arg, false, err
	}

	opts := sf.options(cmd, c.Config, arg)
	if err := opts.ValidateForScan(); err != nil {
		return nil, "", false, err
	}

	spinner := newSpinnerWithContext(ctx, "Scanning "+opts.Source()+"...")
	spinner.Start()
	snap, hit, err := runner.ScanWithCacheInfo(ctx, opts)
	spinner.Stop()
	if err != nil {
		return nil, "", false, err
	}
	return snap, opts.Source(), hit, nil
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isTreeFile(p string) bool {
	if !strings.EqualFold(filepath.Ext(p), ".json") {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
