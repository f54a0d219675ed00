package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/tree"
)

func sampleDoc(source string) tree.Document {
	root := tree.NewDir("repo",
		tree.NewFile("repo/a.go", 10),
		tree.NewDir("repo/pkg", tree.NewFile("repo/pkg/b.go", 20)),
	)
	return tree.ToDocument(tree.NewSnapshot(root), source)
}

// exercise runs the same contract checks against any backend.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	older := sampleDoc("/old")
	older.ScannedAt = time.Now().Add(-time.Hour).UTC()
	oldID, err := s.Put(ctx, older)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !ValidID(oldID) {
		t.Errorf("Put assigned %q, want a UUID", oldID)
	}

	newID, err := s.Put(ctx, sampleDoc("https://example.com/r.git"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, newID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != newID || got.Source != "https://example.com/r.git" {
		t.Errorf("Get = %s from %s", got.ID, got.Source)
	}
	snap, err := tree.FromDocument(got)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 4 {
		t.Errorf("stored tree has %d nodes, want 4", snap.Len())
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != newID || list[1].ID != oldID {
		t.Errorf("List = %+v, want newest first", list)
	}
	if list[0].Stats == nil || list[0].Stats.Files != 2 {
		t.Errorf("summary stats = %+v", list[0].Stats)
	}

	// Put with an existing ID overwrites.
	got.Source = "renamed"
	if id, err := s.Put(ctx, got); err != nil || id != newID {
		t.Fatalf("overwrite: id=%s err=%v", id, err)
	}
	if again, _ := s.Get(ctx, newID); again.Source != "renamed" {
		t.Errorf("overwrite lost: source = %q", again.Source)
	}

	if err := s.Delete(ctx, oldID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, oldID); errors.GetCode(err) != errors.ErrCodeTreeNotFound {
		t.Errorf("Get after Delete: err = %v, want TREE_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, oldID); errors.GetCode(err) != errors.ErrCodeTreeNotFound {
		t.Errorf("second Delete: err = %v, want TREE_NOT_FOUND", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())
	exercise(t, s)
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	doc := sampleDoc("/x")
	doc.ID = "../escape"
	if _, err := s.Put(ctx, doc); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("Put(../escape) err = %v", err)
	}
	if _, err := s.Get(ctx, "../escape"); errors.GetCode(err) != errors.ErrCodeTreeNotFound {
		t.Errorf("Get(../escape) err = %v", err)
	}
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/notes.json", []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/"+"123e4567-e89b-12d3-a456-426614174000.json", []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List = %+v, want empty", list)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("GITSCROLL_TEST_MONGO")
	if uri == "" {
		t.Skip("GITSCROLL_TEST_MONGO not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := "gitscroll_test_" + time.Now().Format("20060102150405")
	s, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.client.Database(db).Drop(context.Background())
		_ = s.Close(context.Background())
	}()
	exercise(t, s)
}
