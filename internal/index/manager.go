// Package index manages the lifecycle of the persisted vector index: model
// staleness checks on startup, first construction, incremental adds, and a
// persist after every batch.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kbase/internal/embedding"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/hyperjump/kbase/internal/vector"
	"go.uber.org/zap"
)

// On-disk names under the index path.
const (
	MarkerFile = "model_name.txt"
	StoreDir   = "faiss.index"
)

// ErrNotInitialized is returned by searches before any index has been built or loaded.
var ErrNotInitialized = errors.New("vector index is not initialized")

// PersistError reports a failed save of the vector index. It aborts the current maintenance pass.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist vector index to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Manager owns the in-memory vector store handle. It is not safe for
// concurrent use; callers serialize access.
type Manager struct {
	indexPath string
	embedder  embedding.Embedder
	backend   vector.IndexType
	store     *vector.Store
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBackend selects the vector index backend for newly built indexes.
func WithBackend(t vector.IndexType) Option {
	return func(m *Manager) {
		if t != "" {
			m.backend = t
		}
	}
}

// NewManager returns a manager for the index rooted at indexPath. Call Initialize before use.
func NewManager(indexPath string, embedder embedding.Embedder, opts ...Option) *Manager {
	m := &Manager{
		indexPath: indexPath,
		embedder:  embedder,
		backend:   vector.IndexTypeMemory,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IndexPath is the directory holding the marker and the store.
func (m *Manager) IndexPath() string { return m.indexPath }

// StorePath is the directory holding the persisted vector store.
func (m *Manager) StorePath() string { return filepath.Join(m.indexPath, StoreDir) }

// MarkerPath is the file recording the model that built the persisted index.
func (m *Manager) MarkerPath() string { return filepath.Join(m.indexPath, MarkerFile) }

// ModelName is the configured embedding model.
func (m *Manager) ModelName() string { return m.embedder.ModelName() }

// Initialize discards a persisted index built by a different model, loads the
// persisted index otherwise, and records the current model name.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(m.indexPath, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	model := m.ModelName()

	recorded, err := os.ReadFile(m.MarkerPath())
	switch {
	case err == nil && strings.TrimSpace(string(recorded)) != model:
		m.logger.Info("Embedding model changed, discarding index",
			zap.String("previous", strings.TrimSpace(string(recorded))),
			zap.String("current", model))
		if err := os.RemoveAll(m.StorePath()); err != nil {
			return fmt.Errorf("remove stale index: %w", err)
		}
		m.reset()
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read model marker: %w", err)
	case vector.Exists(m.StorePath()):
		store, err := vector.Load(m.StorePath(), m.embedder)
		if err != nil {
			// The next maintenance pass rebuilds from source documents.
			m.logger.Warn("Failed to load vector index, starting empty",
				zap.String("path", m.StorePath()), zap.Error(err))
			m.reset()
			break
		}
		m.reset()
		m.store = store
		m.logger.Info("Loaded vector index",
			zap.String("path", m.StorePath()), zap.Int("chunks", store.Size()))
	}

	if err := os.WriteFile(m.MarkerPath(), []byte(model), 0644); err != nil {
		return fmt.Errorf("write model marker: %w", err)
	}
	return nil
}

func (m *Manager) reset() {
	if m.store != nil {
		_ = m.store.Close()
		m.store = nil
	}
}

// Ready reports whether an index handle is present.
func (m *Manager) Ready() bool { return m.store != nil }

// Size returns the number of indexed chunks.
func (m *Manager) Size() int {
	if m.store == nil {
		return 0
	}
	return m.store.Size()
}

// AddChunks builds the index from chunks when none exists, or appends to it,
// then persists. If persisting fails the in-memory handle is rolled back to its
// state before the call and a *PersistError is returned.
func (m *Manager) AddChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if m.store == nil {
		store, err := vector.FromChunks(ctx, chunks, m.embedder, m.backend)
		if err != nil {
			return err
		}
		if err := store.Save(m.StorePath()); err != nil {
			_ = store.Close()
			return &PersistError{Path: m.StorePath(), Err: err}
		}
		m.store = store
		m.logger.Info("Built vector index", zap.Int("chunks", len(chunks)))
		return nil
	}

	before := m.store.Size()
	if err := m.store.AddChunks(ctx, chunks); err != nil {
		return err
	}
	if err := m.store.Save(m.StorePath()); err != nil {
		if terr := m.store.Truncate(before); terr != nil {
			m.logger.Error("Failed to roll back vector index", zap.Error(terr))
			m.reset()
		}
		return &PersistError{Path: m.StorePath(), Err: err}
	}
	m.logger.Debug("Added chunks to vector index", zap.Int("chunks", len(chunks)), zap.Int("total", m.store.Size()))
	return nil
}

// Rebuild replaces the index with one built from chunks alone, then persists.
// The current handle is kept if building or persisting fails.
func (m *Manager) Rebuild(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	store, err := vector.FromChunks(ctx, chunks, m.embedder, m.backend)
	if err != nil {
		return err
	}
	if err := store.Save(m.StorePath()); err != nil {
		_ = store.Close()
		return &PersistError{Path: m.StorePath(), Err: err}
	}
	m.reset()
	m.store = store
	m.logger.Info("Rebuilt vector index", zap.Int("chunks", len(chunks)))
	return nil
}

// SimilaritySearch returns the k chunks nearest to query with their distances.
func (m *Manager) SimilaritySearch(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if m.store == nil {
		return nil, ErrNotInitialized
	}
	return m.store.SimilaritySearchWithScore(ctx, query, k)
}

// Close releases the in-memory index.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}
