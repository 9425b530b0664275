package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hyperjump/kbase/internal/embedding"
	"github.com/hyperjump/kbase/internal/models"
)

// DocstoreFile is written last on every save; its presence marks a complete store directory.
const DocstoreFile = "docstore.json"

const docstoreVersion = 1

// Store pairs a VectorIndex with the chunk behind each vector. Position i in
// the index belongs to ids[i].
type Store struct {
	backend  IndexType
	embedder embedding.Embedder
	index    VectorIndex
	ids      []string
	docs     map[string]*models.Chunk
	mu       sync.RWMutex
}

type docEntry struct {
	ID string `json:"id"`
	models.Chunk
}

type docstore struct {
	Version    int        `json:"version"`
	Backend    IndexType  `json:"backend"`
	Dimensions int        `json:"dimensions"`
	Entries    []docEntry `json:"entries"`
}

// NewStore returns an empty store. The index itself is created on the first add,
// once the vector length is known.
func NewStore(embedder embedding.Embedder, backend IndexType) *Store {
	if backend == "" {
		backend = IndexTypeMemory
	}
	return &Store{backend: backend, embedder: embedder, docs: make(map[string]*models.Chunk)}
}

// FromChunks embeds chunks and builds a new store from them.
func FromChunks(ctx context.Context, chunks []*models.Chunk, embedder embedding.Embedder, backend IndexType) (*Store, error) {
	s := NewStore(embedder, backend)
	if err := s.AddChunks(ctx, chunks); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// AddChunks embeds chunks and appends them. On error the store is unchanged.
func (s *Store) AddChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created := false
	if s.index == nil {
		idx, err := NewVectorIndex(s.backend, len(vectors[0]))
		if err != nil {
			return fmt.Errorf("create %s index: %w", s.backend, err)
		}
		s.index = idx
		created = true
	}
	if err := s.index.Add(ctx, vectors); err != nil {
		if created {
			_ = s.index.Close()
			s.index = nil
		}
		return fmt.Errorf("add vectors: %w", err)
	}
	for _, c := range chunks {
		id := uuid.New().String()
		s.ids = append(s.ids, id)
		s.docs[id] = c
	}
	return nil
}

// SimilaritySearchWithScore embeds query and returns the k nearest chunks,
// most similar first. Score is the squared L2 distance.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	s.mu.RLock()
	empty := s.index == nil
	s.mu.RUnlock()
	if empty || k <= 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	results := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(s.ids) {
			continue
		}
		results = append(results, &models.SearchResult{
			Chunk: s.docs[s.ids[h.Position]],
			Score: h.Distance,
			Rank:  len(results) + 1,
		})
	}
	return results, nil
}

// Size returns the number of stored chunks.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Backend returns the index type.
func (s *Store) Backend() IndexType { return s.backend }

// Truncate drops every chunk added after the first n.
func (s *Store) Truncate(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > len(s.ids) {
		return fmt.Errorf("truncate to %d: store has %d chunks", n, len(s.ids))
	}
	if s.index != nil {
		if err := s.index.Truncate(n); err != nil {
			return err
		}
	}
	for _, id := range s.ids[n:] {
		delete(s.docs, id)
	}
	s.ids = s.ids[:n]
	return nil
}

// Save writes the store into dir. Each file is written to a temporary name and
// renamed into place; the docstore goes last.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	ds := docstore{Version: docstoreVersion, Backend: s.backend, Entries: make([]docEntry, len(s.ids))}
	indexPath := filepath.Join(dir, indexFile(s.backend))
	if s.index != nil {
		ds.Dimensions = s.index.Dimensions()
		tmp := indexPath + ".tmp"
		if err := s.index.Save(tmp); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		if err := os.Rename(tmp, indexPath); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("commit index file: %w", err)
		}
	} else if err := os.Remove(indexPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale index file: %w", err)
	}

	for i, id := range s.ids {
		ds.Entries[i] = docEntry{ID: id, Chunk: *s.docs[id]}
	}
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode docstore: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, DocstoreFile), data)
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Exists reports whether dir holds a saved store.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DocstoreFile))
	return err == nil
}

// Load reads a store saved by Save.
func Load(dir string, embedder embedding.Embedder) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, DocstoreFile))
	if err != nil {
		return nil, fmt.Errorf("read docstore: %w", err)
	}
	var ds docstore
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode docstore: %w", err)
	}
	if ds.Version != docstoreVersion {
		return nil, fmt.Errorf("unsupported docstore version %d", ds.Version)
	}

	s := NewStore(embedder, ds.Backend)
	if len(ds.Entries) == 0 {
		return s, nil
	}
	idx, err := LoadVectorIndex(s.backend, filepath.Join(dir, indexFile(s.backend)))
	if err != nil {
		return nil, err
	}
	if idx.Size() != len(ds.Entries) {
		_ = idx.Close()
		return nil, fmt.Errorf("index holds %d vectors but docstore has %d entries", idx.Size(), len(ds.Entries))
	}
	if d := embedder.Dimensions(); d > 0 && d != idx.Dimensions() {
		_ = idx.Close()
		return nil, fmt.Errorf("index dimension %d does not match embedder dimension %d", idx.Dimensions(), d)
	}
	s.index = idx
	for i := range ds.Entries {
		e := ds.Entries[i]
		chunk := e.Chunk
		s.ids = append(s.ids, e.ID)
		s.docs[e.ID] = &chunk
	}
	return s, nil
}

// Close releases the underlying index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
