package errors

import (
	"math"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// repoURLRegex accepts https and ssh remotes, file URLs and absolute paths.
var repoURLRegex = regexp.MustCompile(`^(https://|git@|file://|/).*(\.git)?$`)

// ValidateRepoURL checks that url names a cloneable repository.
func ValidateRepoURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return New(ErrCodeInvalidURL, "repository URL cannot be empty")
	}
	if len(url) > 2048 {
		return New(ErrCodeInvalidURL, "repository URL too long")
	}
	for _, r := range url {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidURL, "repository URL contains invalid characters")
		}
	}
	if !repoURLRegex.MatchString(url) {
		return New(ErrCodeInvalidURL, "invalid git URL %q (expected https://, git@, file:// or an absolute path)", url)
	}
	return nil
}

// ValidatePath checks a node path inside a tree: relative, slash separated,
// no traversal.
//
// The root of a tree may be named "." or by its own base name, so both are
// accepted.
func ValidatePath(p string) error {
	if p == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	const maxPathLength = 4096
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}
	for _, r := range p {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(p, "/") {
		return New(ErrCodeInvalidPath, "path must be relative")
	}
	if strings.Contains(p, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain ..")
		}
	}
	if p != "." && path.Clean(p) != p {
		return New(ErrCodeInvalidPath, "path %q is not clean", p)
	}
	return nil
}

// MaxCanvas bounds each canvas dimension.
const MaxCanvas = 100_000

// ValidateCanvas checks canvas dimensions: finite, positive, bounded.
func ValidateCanvas(w, h float64) error {
	for _, v := range []float64{w, h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidCanvas, "canvas size must be finite")
		}
		if v <= 0 {
			return New(ErrCodeInvalidCanvas, "canvas size must be positive, got %gx%g", w, h)
		}
		if v > MaxCanvas {
			return New(ErrCodeInvalidCanvas, "canvas size %gx%g exceeds %d", w, h, MaxCanvas)
		}
	}
	return nil
}

// ValidateIgnorePattern rejects empty patterns and patterns containing a
// path separator, which could never match a single entry name.
func ValidateIgnorePattern(p string) error {
	if strings.TrimSpace(p) == "" {
		return New(ErrCodeInvalidConfig, "ignore pattern cannot be empty")
	}
	if strings.ContainsAny(p, "/\\") {
		return New(ErrCodeInvalidConfig, "ignore pattern %q cannot contain path separators", p)
	}
	return nil
}
