package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "f1.txt")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub", "deeper")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{f1}, 5},
		{"directory", []string{filepath.Join(dir, "sub")}, 2},
		{"whole tree", []string{dir}, 7},
		{"missing and empty paths", []string{filepath.Join(dir, "nope"), ""}, 0},
		{"several", []string{f1, filepath.Join(dir, "sub")}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestLedgerUsage(t *testing.T) {
	root := t.TempDir()
	for kb, content := range map[string]string{"docs": "0123456789", "notes": "abc"} {
		side := filepath.Join(root, kb, ".index", "nested")
		if err := os.MkdirAll(side, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(side, "a.md"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		// Source documents are not part of the ledger.
		if err := os.WriteFile(filepath.Join(root, kb, "a.md"), []byte("source"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := LedgerUsage(root, []string{"docs", "notes", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if got != 13 {
		t.Errorf("LedgerUsage = %d, want 13", got)
	}
}

func TestIndexUsage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".faiss")
	if got, err := IndexUsage(dir); err != nil || got != 0 {
		t.Fatalf("missing index: %d, %v", got, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "faiss.index"), 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "model_name.txt"), []byte("mock"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "faiss.index", "index.bin"), []byte("12345678"), 0644)
	got, err := IndexUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12 {
		t.Errorf("IndexUsage = %d, want 12", got)
	}
}
