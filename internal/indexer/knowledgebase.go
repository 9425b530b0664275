package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidKnowledgeBase is returned for names that are empty, hidden, or contain path elements.
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base name")
	// ErrKnowledgeBaseNotFound is returned when a named knowledge base is not a directory under the root.
	ErrKnowledgeBaseNotFound = errors.New("knowledge base not found")
)

// ValidateName checks that name can only refer to a direct child of the root.
func ValidateName(name string) error {
	switch {
	case name == "", strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q", ErrInvalidKnowledgeBase, name)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return fmt.Errorf("%w: %q", ErrInvalidKnowledgeBase, name)
	}
	return nil
}

// ListKnowledgeBases returns the sorted names of the non-hidden directories
// under root. A missing root has no knowledge bases.
func ListKnowledgeBases(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read knowledge base root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if isDir(filepath.Join(root, e.Name()), e) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// isDir reports whether the entry is a directory, following symlinks.
func isDir(path string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func resolveKnowledgeBase(root, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(root, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrKnowledgeBaseNotFound, name)
	}
	return path, nil
}
