// Package analyze annotates scanned trees with per-file token counts and a
// binary flag.
//
// Files are read in parallel with a bounded number of workers. Results are
// streamed as they complete ([Analyzer.Stream]) or written straight into the
// tree before it is published ([Analyzer.Annotate]).
package analyze

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"runtime"
	"unicode"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gitscroll/pkg/scan"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// DefaultMaxFileSize is the largest file whose tokens are counted.
const DefaultMaxFileSize = 10 << 20

// headerSize is how many leading bytes filetype needs to match every
// signature it knows.
const headerSize = 262

// Result is the analysis of a single file.
type Result struct {
	Path    string
	Tokens  int
	Binary  bool
	Skipped bool // larger than the size limit, tokens not counted
	Err     error
}

// Summary aggregates an Annotate run.
type Summary struct {
	Files   int `json:"files"`
	Tokens  int `json:"tokens"`
	Binary  int `json:"binary"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Analyzer reads files and counts their tokens.
type Analyzer struct {
	workers     int
	maxFileSize int64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers bounds the number of files read at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithMaxFileSize sets the token counting size limit.
func WithMaxFileSize(n int64) Option {
	return func(a *Analyzer) { a.maxFileSize = n }
}

// New returns an Analyzer with one worker per CPU.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{workers: runtime.NumCPU(), maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = 1
	}
	return a
}

// Stream analyzes every file in snap, reading it from dir, and sends one
// Result per file on out. Per-file failures are reported in Result.Err;
// Stream itself only fails when ctx is done. out is not closed.
func (a *Analyzer) Stream(ctx context.Context, dir string, snap *tree.Snapshot, out chan<- Result) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var files []*tree.Node
	tree.Walk(snap.Root, func(n *tree.Node, _ int) bool {
		if !n.IsDir {
			files = append(files, n)
		}
		return true
	})

	for _, n := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r := a.File(scan.AbsPath(dir, n.Path))
			r.Path = n.Path
			select {
			case out <- r:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Annotate analyzes snap and writes Tokens and Binary into its nodes.
// Directory token counts become the sum over their subtree. The snapshot
// must not have been published yet.
func (a *Analyzer) Annotate(ctx context.Context, dir string, snap *tree.Snapshot) (Summary, error) {
	results := make(chan Result, a.workers)
	errc := make(chan error, 1)
	go func() {
		errc <- a.Stream(ctx, dir, snap, results)
		close(results)
	}()

	var sum Summary
	for r := range results {
		sum.Files++
		switch {
		case r.Err != nil:
			sum.Failed++
			continue
		case r.Skipped:
			sum.Skipped++
		}
		if r.Binary {
			sum.Binary++
		}
		sum.Tokens += r.Tokens
		if n, ok := snap.Find(r.Path); ok {
			n.Tokens = r.Tokens
			n.Binary = r.Binary
		}
	}
	if err := <-errc; err != nil {
		return sum, err
	}
	sumDirTokens(snap.Root, 0)
	return sum, nil
}

func sumDirTokens(n *tree.Node, depth int) int {
	if !n.IsDir || depth > tree.MaxDepth {
		return n.Tokens
	}
	total := 0
	for _, c := range n.Children {
		total += sumDirTokens(c, depth+1)
	}
	n.Tokens = total
	return total
}

// File analyzes a single file on disk.
func (a *Analyzer) File(path string) Result {
	r := Result{Path: path}
	f, err := os.Open(path)
	if err != nil {
		r.Err = err
		return r
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(headerSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		r.Err = err
		return r
	}
	if IsBinary(head) {
		r.Binary = true
		return r
	}

	fi, err := f.Stat()
	if err == nil && a.maxFileSize > 0 && fi.Size() > a.maxFileSize {
		r.Skipped = true
		return r
	}
	data, err := io.ReadAll(br)
	if err != nil {
		r.Err = err
		return r
	}
	r.Tokens = CountTokens(data)
	return r
}

// IsBinary reports whether a file header looks like binary content: a known
// binary signature, a NUL byte, or invalid UTF-8.
func IsBinary(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return true
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	if utf8.Valid(head) {
		return false
	}
	// The header may end in the middle of a multi-byte rune.
	for cut := 1; cut < utf8.UTFMax && cut < len(head); cut++ {
		if utf8.Valid(head[:len(head)-cut]) {
			return false
		}
	}
	return true
}

// CountTokens estimates the token count of text. Every run of letters,
// digits and underscores counts one token per four characters (at least
// one). Every other non-space character counts one.
func CountTokens(data []byte) int {
	tokens, run := 0, 0
	flush := func() {
		if run > 0 {
			tokens += max(1, (run+3)/4)
			run = 0
		}
	}
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			run++
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens++
		}
	}
	flush()
	return tokens
}
