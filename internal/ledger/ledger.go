package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SidecarDir is the reserved directory inside each knowledge base that mirrors
// the source tree with one digest file per document.
const SidecarDir = ".index"

// Ledger reads and writes change records.
type Ledger struct {
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// New creates a Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordPath returns the sidecar path for relPath inside the knowledge base at kbPath.
func (l *Ledger) RecordPath(kbPath, relPath string) string {
	return filepath.Join(kbPath, SidecarDir, filepath.Clean(relPath))
}

// Load returns the recorded digest for relPath. A missing or unreadable record
// is reported as absent; the caller then treats the document as changed.
func (l *Ledger) Load(kbPath, relPath string) (string, bool) {
	data, err := os.ReadFile(l.RecordPath(kbPath, relPath))
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Debug("ledger record unreadable, treating as absent",
				zap.String("kb", kbPath), zap.String("path", relPath), zap.Error(err))
		}
		return "", false
	}
	return string(data), true
}

// Store overwrites the record for relPath with digest. The write goes through a
// temp file and rename so a crash never leaves a truncated record behind.
func (l *Ledger) Store(kbPath, relPath, digest string) error {
	path := l.RecordPath(kbPath, relPath)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".record-*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(digest); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write ledger record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close ledger record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename ledger record: %w", err)
	}
	return nil
}
