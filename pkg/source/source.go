// Package source fetches repositories to scan.
//
// [Provider.Clone] checks a git repository out into a temporary directory
// (or a persistent clone directory when repositories are kept) and returns a
// [Checkout]. Cloning runs in the background and honors context
// cancellation; transient network failures are retried with backoff, and a
// failing https URL is retried once with a ".git" suffix.
package source

import (
	"context"
	stderrors "errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/vcs"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/gitscroll/pkg/cache"
	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/observability"
)

// Checkout is a repository on local disk.
type Checkout struct {
	URL      string
	Dir      string // working tree root
	Ref      string // requested ref, empty for the default branch
	Revision string // checked out commit

	cleanup string // directory to remove on Cleanup, empty when kept
}

// Cleanup removes a temporary checkout. Kept checkouts are left alone.
func (c *Checkout) Cleanup() error {
	if c == nil || c.cleanup == "" {
		return nil
	}
	dir := c.cleanup
	c.cleanup = ""
	return os.RemoveAll(dir)
}

// Kept reports whether the checkout outlives Cleanup.
func (c *Checkout) Kept() bool { return c.cleanup == "" }

// Provider clones repositories.
type Provider struct {
	cloneDir string
	keep     bool
	backoff  cache.Backoff
	logger   *log.Logger
	onRetry  func(attempt int, err error)
}

// Option configures a Provider.
type Option func(*Provider)

// WithKeep keeps checkouts under dir instead of a temporary directory.
// Re-cloning a kept repository updates it in place.
func WithKeep(dir string) Option {
	return func(p *Provider) {
		p.keep = true
		p.cloneDir = dir
	}
}

// WithBackoff overrides the retry policy for transient failures.
func WithBackoff(b cache.Backoff) Option {
	return func(p *Provider) { p.backoff = b }
}

// WithOnRetry registers fn to be called before each retried clone attempt.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Provider) { p.onRetry = fn }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider returns a Provider that clones into temporary directories.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{backoff: cache.DefaultBackoff}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Clone checks out url at ref. An empty ref means the remote's default
// branch.
func (p *Provider) Clone(ctx context.Context, url, ref string) (co *Checkout, err error) {
	url = strings.TrimSpace(url)
	if err := errors.ValidateRepoURL(url); err != nil {
		return nil, err
	}

	hooks := observability.Source()
	start := time.Now()
	hooks.OnCloneStart(ctx, url)
	defer func() { hooks.OnCloneComplete(ctx, url, time.Since(start), err) }()

	dest, cleanup, err := p.destination(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCloneFailed, err, "prepare clone directory")
	}

	var repo *vcs.GitRepo
	for i, candidate := range candidates(url) {
		if i > 0 {
			p.logger.Debug("retrying clone", "url", candidate)
		}
		repo, err = p.fetch(ctx, candidate, dest)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		if cleanup != "" {
			_ = os.RemoveAll(cleanup)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeCloneFailed, err, "clone %s", url)
	}

	if ref != "" {
		if err := run(ctx, func() error { return repo.UpdateVersion(ref) }); err != nil {
			if cleanup != "" {
				_ = os.RemoveAll(cleanup)
			}
			return nil, errors.Wrap(errors.ErrCodeCloneFailed, err, "checkout %s", ref)
		}
	}
	rev, _ := repo.Version()
	p.logger.Debug("cloned", "url", url, "dir", dest, "revision", rev)

	return &Checkout{URL: url, Dir: dest, Ref: ref, Revision: rev, cleanup: cleanup}, nil
}

// fetch clones url into dest, or updates dest when it already holds a
// checkout. Transient failures are retried.
func (p *Provider) fetch(ctx context.Context, url, dest string) (*vcs.GitRepo, error) {
	repo, err := vcs.NewGitRepo(url, dest)
	if err != nil {
		return nil, err
	}

	b := p.backoff
	b.OnRetry = func(attempt int, err error) {
		observability.Source().OnCloneRetry(ctx, url, attempt, err)
		p.logger.Warn("clone failed, retrying", "url", url, "attempt", attempt, "error", err)
		if p.onRetry != nil {
			p.onRetry(attempt, err)
		}
	}
	err = cache.RetryWithPolicy(ctx, b, func() error {
		var err error
		if repo.CheckLocal() {
			err = run(ctx, repo.Update)
		} else {
			err = run(ctx, repo.Get)
		}
		if err != nil && transient(err) {
			return cache.Retryable(err)
		}
		return err
	})
	if err != nil {
		// A failed clone may leave a partial directory behind.
		if !repo.CheckLocal() {
			_ = os.RemoveAll(dest)
		}
		return nil, err
	}
	return repo, nil
}

// run executes a blocking vcs call and returns early when ctx is done.
// The git process itself is not interrupted; its result is discarded.
func run(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) destination(url string) (dest, cleanup string, err error) {
	name := RepoName(url)
	if p.keep {
		dir := p.cloneDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "gitscroll-repos")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", "", err
		}
		return filepath.Join(dir, name), "", nil
	}
	tmp, err := os.MkdirTemp("", "gitscroll-*")
	if err != nil {
		return "", "", err
	}
	return filepath.Join(tmp, name), tmp, nil
}

// candidates lists the URLs to try: url itself, then url with ".git" for
// https remotes that lack it.
func candidates(url string) []string {
	out := []string{url}
	if strings.HasPrefix(url, "https://") && !strings.HasSuffix(url, ".git") {
		out = append(out, strings.TrimSuffix(url, "/")+".git")
	}
	return out
}

// RepoName returns the last path segment of url without ".git".
func RepoName(url string) string {
	u := strings.TrimSuffix(strings.TrimSpace(url), "/")
	u = strings.TrimSuffix(u, ".git")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	u = path.Clean(u)
	if u == "" || u == "." || u == ".." {
		return "repo"
	}
	return u
}

var transientMarkers = []string{
	"could not resolve host",
	"connection timed out",
	"connection reset",
	"connection refused",
	"early eof",
	"rpc failed",
	"the remote end hung up",
	"operation timed out",
	"temporary failure",
}

// transient reports whether a vcs error looks like a network hiccup rather
// than a bad URL or missing repository.
func transient(err error) bool {
	msg := strings.ToLower(err.Error())
	var re *vcs.RemoteError
	if stderrors.As(err, &re) {
		msg += " " + strings.ToLower(re.Out())
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
