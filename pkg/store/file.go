package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

// FileStore keeps one JSON file per tree in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir.
// If baseDir is empty, defaults to <user config dir>/gitscroll/trees.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "gitscroll", "trees")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) docPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Put(ctx context.Context, doc tree.Document) (string, error) {
	prepare(&doc)
	if !ValidID(doc.ID) {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid tree id %q", doc.ID)
	}
	data, err := tree.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal tree: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.docPath(doc.ID), data, 0o644); err != nil {
		return "", fmt.Errorf("write tree file: %w", err)
	}
	return doc.ID, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (tree.Document, error) {
	if !ValidID(id) {
		return tree.Document{}, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.docPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return tree.Document{}, notFound(id)
		}
		return tree.Document{}, fmt.Errorf("read tree file: %w", err)
	}
	defer f.Close()
	return tree.Read(f)
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if !ValidID(strings.TrimSuffix(entry.Name(), ".json")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		// Decoding into Summary skips the node tree.
		var sum Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			continue
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.docPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove tree file: %w", err)
	}
	return nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// Path returns the base directory for tree files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
}

var _ Store = (*FileStore)(nil)
