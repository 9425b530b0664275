package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	kbs []string
}

func (r *recorder) onChange(kb string) {
	r.mu.Lock()
	r.kbs = append(r.kbs, kb)
	r.mu.Unlock()
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.kbs...)
	sort.Strings(out)
	return out
}

func startWatcher(t *testing.T, root string, rec *recorder, opts ...WatcherOption) *Watcher {
	t.Helper()
	opts = append([]WatcherOption{WithDebounce(50 * time.Millisecond)}, opts...)
	w := NewWatcher(root, rec.onChange, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Stop)
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcher_coalescesPerKnowledgeBase(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0755))
	rec := &recorder{}
	startWatcher(t, root, rec, WithDebounce(300*time.Millisecond))

	writeFile(t, filepath.Join(root, "docs", "a.md"), "one")
	writeFile(t, filepath.Join(root, "docs", "sub", "b.md"), "two")
	writeFile(t, filepath.Join(root, "docs", "a.md"), "one again")

	require.Eventually(t, func() bool { return len(rec.seen()) >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, []string{"docs"}, rec.seen())
}

func TestWatcher_newKnowledgeBaseDirectory(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0755))
	// Give the watcher a moment to add the new directory before writing into it.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "notes", "n.md"), "note")

	require.Eventually(t, func() bool {
		seen := rec.seen()
		return len(seen) > 0 && seen[len(seen)-1] == "notes"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_ignoresHiddenAndIndexPaths(t *testing.T) {
	root := t.TempDir()
	indexPath := filepath.Join(root, "docs", "vectors")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", ".index"), 0755))
	require.NoError(t, os.MkdirAll(indexPath, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".faiss"), 0755))
	rec := &recorder{}
	w := startWatcher(t, root, rec, WithIgnore(indexPath))

	writeFile(t, filepath.Join(root, "docs", ".index", "a.md"), "digest")
	writeFile(t, filepath.Join(root, ".faiss", "model_name.txt"), "mock")
	writeFile(t, filepath.Join(indexPath, "index.bin"), "bytes")
	writeFile(t, filepath.Join(root, "top-level.md"), "not in a kb")
	writeFile(t, filepath.Join(root, "docs", ".hidden.md"), "hidden")

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.seen())
	assert.Empty(t, w.Pending())
}

func TestWatcher_stopDropsPending(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	rec := &recorder{}
	w := NewWatcher(root, rec.onChange, WithDebounce(time.Hour))
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, filepath.Join(root, "docs", "a.md"), "x")
	require.Eventually(t, func() bool { return len(w.Pending()) == 1 }, 3*time.Second, 20*time.Millisecond)
	w.Stop()
	assert.Empty(t, w.Pending())
	assert.Empty(t, rec.seen())
	w.Stop()
}

func TestWatcher_Start_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing", "kb")
	startWatcher(t, root, &recorder{})
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestKnowledgeBaseFor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	writeFile(t, filepath.Join(root, "loose.md"), "x")
	w := NewWatcher(root, nil, WithIgnore(filepath.Join(root, "docs", "idx")))

	tests := []struct {
		path   string
		wantKB string
		wantOK bool
	}{
		{filepath.Join(root, "docs", "a.md"), "docs", true},
		{filepath.Join(root, "docs", "deep", "b.md"), "docs", true},
		{filepath.Join(root, "docs"), "docs", true},
		{filepath.Join(root, "loose.md"), "", false},
		{filepath.Join(root, "docs", ".index", "a.md"), "", false},
		{filepath.Join(root, "docs", "idx", "index.bin"), "", false},
		{filepath.Join(root, ".faiss", "docstore.json"), "", false},
		{root, "", false},
		{filepath.Dir(root), "", false},
	}
	for _, tt := range tests {
		kb, ok := w.knowledgeBaseFor(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.wantKB, kb, tt.path)
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
		{"/tmp/a", "/tmp/ab", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
