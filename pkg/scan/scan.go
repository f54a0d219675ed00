// Package scan builds tree snapshots from directories on disk.
//
// A [Builder] walks a directory, skipping entries whose name matches an
// ignore pattern, and returns a fully formed [tree.Snapshot]. [Builder.Watch]
// keeps watching the directory and publishes a new snapshot whenever its
// content changes.
//
// Symlinks are never followed, so the resulting tree cannot contain cycles.
package scan

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// DefaultIgnore is the ignore list used when none is configured.
var DefaultIgnore = []string{".git", "node_modules", "target", ".DS_Store"}

// Builder scans directories into snapshots. A Builder is safe for
// concurrent use once configured.
type Builder struct {
	ignore   []string
	maxDepth int
}

// Option configures a Builder.
type Option func(*Builder)

// WithIgnore replaces the ignore patterns.
func WithIgnore(patterns ...string) Option {
	return func(b *Builder) { b.ignore = slices.Clone(patterns) }
}

// WithMaxDepth stops descending below depth d. Directories at depth d are
// kept but have no children. Values outside 1..tree.MaxDepth mean
// tree.MaxDepth.
func WithMaxDepth(d int) Option {
	return func(b *Builder) { b.maxDepth = d }
}

// New returns a Builder that ignores DefaultIgnore unless configured
// otherwise.
func New(opts ...Option) *Builder {
	b := &Builder{ignore: slices.Clone(DefaultIgnore)}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxDepth <= 0 || b.maxDepth > tree.MaxDepth {
		b.maxDepth = tree.MaxDepth
	}
	return b
}

// AddIgnore appends an ignore pattern.
func (b *Builder) AddIgnore(pattern string) error {
	if err := errors.ValidateIgnorePattern(pattern); err != nil {
		return err
	}
	if !slices.Contains(b.ignore, pattern) {
		b.ignore = append(b.ignore, pattern)
	}
	return nil
}

// IgnorePatterns returns a copy of the ignore patterns.
func (b *Builder) IgnorePatterns() []string { return slices.Clone(b.ignore) }

// MaxDepth returns the effective depth limit.
func (b *Builder) MaxDepth() int { return b.maxDepth }

// Ignored reports whether an entry name matches a pattern. A pattern matches
// when it equals the name or occurs anywhere in it.
func (b *Builder) Ignored(name string) bool {
	for _, p := range b.ignore {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Build scans dir and returns its snapshot. The root node is named after the
// directory and every path is slash separated and relative to dir's parent.
func (b *Builder) Build(ctx context.Context, dir string) (*tree.Snapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScanFailed, err, "path does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeScanFailed, "path is not a directory: %s", dir)
	}

	name := filepath.Base(abs)
	if name == string(filepath.Separator) || name == "." {
		name = "root"
	}
	root, err := b.scanDir(ctx, abs, name, 0)
	if err != nil {
		return nil, err
	}
	return tree.NewSnapshot(root), nil
}

func (b *Builder) scanDir(ctx context.Context, abs, rel string, depth int) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := &tree.Node{Name: path.Base(rel), Path: rel, IsDir: true}
	if depth >= b.maxDepth {
		return n, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if depth == 0 {
			return nil, errors.Wrap(errors.ErrCodeScanFailed, err, "read %s", abs)
		}
		// Unreadable subdirectories stay in the tree, empty.
		return n, nil
	}

	for _, e := range entries {
		name := e.Name()
		if b.Ignored(name) || e.Type()&os.ModeSymlink != 0 {
			continue
		}
		childAbs := filepath.Join(abs, name)
		childRel := path.Join(rel, name)

		if e.IsDir() {
			child, err := b.scanDir(ctx, childAbs, childRel, depth+1)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			n.Size += child.Size
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		n.Children = append(n.Children, tree.NewFile(childRel, fi.Size()))
		n.Size += fi.Size()
	}
	return n, nil
}

// AbsPath joins a node path produced by Build back onto the scanned
// directory.
func AbsPath(dir, nodePath string) string {
	_, rest, found := strings.Cut(nodePath, "/")
	if !found {
		return dir
	}
	return filepath.Join(dir, filepath.FromSlash(rest))
}
