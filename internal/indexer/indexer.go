// Package indexer keeps the vector index in step with the documents in each
// knowledge base, re-embedding only files whose content digest changed.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kbase/internal/extract"
	"github.com/hyperjump/kbase/internal/index"
	"github.com/hyperjump/kbase/internal/ledger"
	"github.com/hyperjump/kbase/internal/models"
	"go.uber.org/zap"
)

// SkippedFile is a document left for the next pass because it could not be read or decoded.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes one UpdateIndex pass.
type Report struct {
	KnowledgeBases []string      `json:"knowledge_bases"`
	Observed       int           `json:"observed"`
	Unchanged      int           `json:"unchanged"`
	Processed      int           `json:"processed"`
	Empty          int           `json:"empty"`
	Skipped        []SkippedFile `json:"skipped,omitempty"`
	ChunksAdded    int           `json:"chunks_added"`
	Rebuilt        bool          `json:"rebuilt"`
	Duration       time.Duration `json:"duration"`
}

// Indexer walks knowledge bases and feeds changed documents to the index manager.
type Indexer struct {
	root      string
	manager   *index.Manager
	ledger    *ledger.Ledger
	chunker   *Chunker
	extractor *extract.Extractor
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithChunker replaces the default 1000/200 markdown chunker.
func WithChunker(c *Chunker) IndexerOption {
	return func(idx *Indexer) { idx.chunker = c }
}

// NewIndexer creates an indexer over the knowledge bases under root.
func NewIndexer(root string, manager *index.Manager, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		root:      root,
		manager:   manager,
		chunker:   NewChunker(DefaultChunkSize, DefaultChunkOverlap, nil),
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.ledger = ledger.New(ledger.WithLogger(idx.logger))
	return idx
}

// Root returns the knowledge base root directory.
func (idx *Indexer) Root() string { return idx.root }

// KnowledgeBases lists the knowledge bases under the root.
func (idx *Indexer) KnowledgeBases() ([]string, error) {
	return ListKnowledgeBases(idx.root)
}

// UpdateIndex brings the index up to date with one knowledge base, or with all
// of them when name is empty. Unreadable files are skipped and reported; any
// embedding or persistence failure aborts the pass.
func (idx *Indexer) UpdateIndex(ctx context.Context, name string) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if name != "" {
		if _, err := resolveKnowledgeBase(idx.root, name); err != nil {
			return nil, err
		}
		report.KnowledgeBases = []string{name}
	} else {
		names, err := idx.KnowledgeBases()
		if err != nil {
			return nil, err
		}
		report.KnowledgeBases = names
	}

	for _, kb := range report.KnowledgeBases {
		kbPath := filepath.Join(idx.root, kb)
		files, err := idx.documents(kbPath)
		if err != nil {
			return nil, err
		}
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.Observed++
			if err := idx.processFile(ctx, kbPath, rel, report); err != nil {
				return nil, err
			}
		}
	}

	// Change records can outlive the index (deleted, or discarded after a model
	// change), which would leave every document looking unchanged.
	if !idx.manager.Ready() && report.Observed > 0 {
		if err := idx.rebuild(ctx, report); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	idx.logger.Info("Index update complete",
		zap.Strings("knowledge_bases", report.KnowledgeBases),
		zap.Int("observed", report.Observed),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("chunks_added", report.ChunksAdded),
		zap.Bool("rebuilt", report.Rebuilt),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (idx *Indexer) processFile(ctx context.Context, kbPath, rel string, report *Report) error {
	absPath := filepath.Join(kbPath, rel)

	digest, err := ledger.DigestFile(absPath)
	if err != nil {
		idx.skip(report, absPath, fmt.Errorf("hash: %w", err))
		return nil
	}
	if recorded, ok := idx.ledger.Load(kbPath, rel); ok && recorded == digest {
		report.Unchanged++
		idx.logger.Debug("File unchanged", zap.String("path", absPath))
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		idx.skip(report, absPath, fmt.Errorf("read: %w", err))
		return nil
	}
	// Record the digest of the bytes actually indexed.
	digest = ledger.DigestBytes(content)

	chunks, err := idx.chunkContent(content, absPath)
	if err != nil {
		idx.skip(report, absPath, err)
		return nil
	}
	if len(chunks) == 0 {
		report.Empty++
		idx.logger.Info("File produced no chunks", zap.String("path", absPath))
		return nil
	}

	if err := idx.manager.AddChunks(ctx, chunks); err != nil {
		return fmt.Errorf("index %s: %w", absPath, err)
	}
	if err := idx.ledger.Store(kbPath, rel, digest); err != nil {
		return err
	}
	report.Processed++
	report.ChunksAdded += len(chunks)
	idx.logger.Info("File indexed", zap.String("path", absPath), zap.Int("chunks", len(chunks)))
	return nil
}

func (idx *Indexer) chunkContent(content []byte, absPath string) ([]*models.Chunk, error) {
	text, err := idx.extractor.Decode(content, filepath.Ext(absPath))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return idx.chunker.Chunk(text, absPath), nil
}

func (idx *Indexer) skip(report *Report, path string, err error) {
	report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
	idx.logger.Warn("Skipping file", zap.String("path", path), zap.Error(err))
}

// rebuild constructs the index from every document in the targeted knowledge
// bases regardless of change records.
func (idx *Indexer) rebuild(ctx context.Context, report *Report) error {
	idx.logger.Info("Vector index missing, rebuilding from all documents",
		zap.Strings("knowledge_bases", report.KnowledgeBases))
	var all []*models.Chunk
	for _, kb := range report.KnowledgeBases {
		kbPath := filepath.Join(idx.root, kb)
		files, err := idx.documents(kbPath)
		if err != nil {
			return err
		}
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			absPath := filepath.Join(kbPath, rel)
			content, err := os.ReadFile(absPath)
			if err != nil {
				idx.logger.Warn("Skipping file in rebuild", zap.String("path", absPath), zap.Error(err))
				continue
			}
			chunks, err := idx.chunkContent(content, absPath)
			if err != nil {
				idx.logger.Warn("Skipping file in rebuild", zap.String("path", absPath), zap.Error(err))
				continue
			}
			all = append(all, chunks...)
		}
	}
	if len(all) == 0 {
		return nil
	}
	if err := idx.manager.Rebuild(ctx, all); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	report.Rebuilt = true
	report.ChunksAdded += len(all)
	return nil
}

// documents returns the paths, relative to kbPath and in lexical order, of the
// regular files under kbPath. Hidden entries, including the sidecar directory,
// are not descended into.
func (idx *Indexer) documents(kbPath string) ([]string, error) {
	indexPath := filepath.Clean(idx.manager.IndexPath())
	var files []string
	err := filepath.WalkDir(kbPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == kbPath {
				return walkErr
			}
			idx.logger.Warn("Skipping unreadable entry", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == kbPath {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || path == indexPath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			// Follow symlinks to regular files only.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		rel, err := filepath.Rel(kbPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk knowledge base %s: %w", kbPath, err)
	}
	return files, nil
}
