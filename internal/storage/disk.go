// Package storage measures the on-disk footprint of the index and the change ledger.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/kbase/internal/ledger"
)

// DiskUsageBytes returns the total size in bytes of the given paths. Each path
// may be a file or a directory (recursively summed). Missing paths count as 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		n, err := treeSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// IndexUsage is the size of everything under the index path: the model marker and the store.
func IndexUsage(indexPath string) (int64, error) {
	return DiskUsageBytes(indexPath)
}

// LedgerUsage is the combined size of the sidecar directories of the named knowledge bases.
func LedgerUsage(root string, knowledgeBases []string) (int64, error) {
	paths := make([]string, len(knowledgeBases))
	for i, kb := range knowledgeBases {
		paths[i] = filepath.Join(root, kb, ledger.SidecarDir)
	}
	return DiskUsageBytes(paths...)
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			// Files can vanish mid-walk while a save renames temp files.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	return total, nil
}
