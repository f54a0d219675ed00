package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("hit on empty cache")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	u, err := c.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if u.Entries != 2 || u.Expired != 1 {
		t.Errorf("Usage = %+v, want 2 entries, 1 expired", u)
	}
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("ttl 0 entry should never expire")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCachePruneAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "a", []byte("1"), time.Nanosecond)
	_ = c.Set(ctx, "b", []byte("2"), time.Hour)
	time.Sleep(time.Millisecond)

	n, err := c.Prune()
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v; want 1", n, err)
	}
	if u, _ := c.Usage(); u.Entries != 1 {
		t.Errorf("after Prune: %+v", u)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if u, _ := c.Usage(); u.Entries != 0 {
		t.Errorf("after Clear: %+v", u)
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the cache directory: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GITSCROLL_TEST_REDIS")
	if addr == "" {
		t.Skip("GITSCROLL_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	key := "gitscroll:test:" + t.Name()
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("hit after Delete")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("len = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	t1 := k.TreeKey("/repo", TreeKeyOpts{MaxDepth: 10})
	t2 := k.TreeKey("/repo", TreeKeyOpts{MaxDepth: 20})
	if t1 == t2 || !strings.HasPrefix(t1, "tree:") {
		t.Errorf("TreeKey: %q vs %q", t1, t2)
	}

	l1 := k.LayoutKey("abc", LayoutKeyOpts{Mode: "grid", Zoom: 1, Width: 800, Height: 600})
	l2 := k.LayoutKey("abc", LayoutKeyOpts{Mode: "treemap", Zoom: 1, Width: 800, Height: 600})
	if l1 == l2 {
		t.Error("different modes should produce different layout keys")
	}
	if l1 != k.LayoutKey("abc", LayoutKeyOpts{Mode: "grid", Zoom: 1, Width: 800, Height: 600}) {
		t.Error("LayoutKey should be deterministic")
	}

	if got := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"}); got != "artifact:svg:abc" {
		t.Errorf("ArtifactKey = %q", got)
	}
	d1 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "dot", DOTDepth: 2})
	d2 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "dot", DOTDepth: 3})
	if d1 == d2 || !strings.HasPrefix(d1, "artifact:dot:abc:") || len(d1) != len("artifact:dot:abc:")+12 {
		t.Errorf("DOT artifact keys: %q vs %q", d1, d2)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "server:")
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "csv"}); got != "server:artifact:csv:h" {
		t.Errorf("ArtifactKey = %q", got)
	}
	if got := scoped.TreeKey("/r", TreeKeyOpts{}); !strings.HasPrefix(got, "server:tree:") {
		t.Errorf("TreeKey = %q", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"}); got != "p:artifact:dot:h" {
		t.Errorf("nil inner: %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should be retryable and unwrap to ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(ErrNotFound) {
		t.Error("plain error should not be retryable")
	}
}

func TestRetryWithPolicy(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, true, 1, false},
		{"retry then success", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
		{"not retryable", 5, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, retries := 0, 0
			b := fast
			b.OnRetry = func(int, error) { retries++ }
			err := RetryWithPolicy(ctx, b, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(ErrNetwork)
				}
				return ErrNotFound
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if retries != max(calls-1, 0) && tt.retryable {
				t.Errorf("OnRetry called %d times for %d calls", retries, calls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
