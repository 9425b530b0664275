package search

import (
	"context"
	"sync"

	"github.com/hyperjump/kbase/internal/index"
	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/hyperjump/kbase/internal/storage"
	"go.uber.org/zap"
)

// Status describes the current index.
type Status struct {
	Ready          bool     `json:"ready"`
	Chunks         int      `json:"chunks"`
	Model          string   `json:"model"`
	Root           string   `json:"root"`
	IndexPath      string   `json:"index_path"`
	KnowledgeBases []string `json:"knowledge_bases"`
	IndexBytes     int64    `json:"index_bytes"`
	LedgerBytes    int64    `json:"ledger_bytes"`
}

// Service is the request-level entry point. Every operation that touches the
// index handle runs under one mutex, so a retrieve's update and search form a
// single critical section.
type Service struct {
	mu        sync.Mutex
	indexer   *indexer.Indexer
	manager   *index.Manager
	engine    *Engine
	logger    *zap.Logger
	defaultK  int
	threshold *float64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the k and threshold used when a query leaves them unset.
// A k of zero or a nil threshold keeps the package default. A threshold of 0
// is honored.
func WithDefaults(k int, threshold *float64) ServiceOption {
	return func(s *Service) {
		s.defaultK = k
		s.threshold = threshold
	}
}

// NewService wires the orchestrator and index manager together.
func NewService(idx *indexer.Indexer, manager *index.Manager, opts ...ServiceOption) *Service {
	s := &Service{
		indexer: idx,
		manager: manager,
		engine:  NewEngine(manager),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListKnowledgeBases returns the knowledge base names under the root.
func (s *Service) ListKnowledgeBases() ([]string, error) {
	return s.indexer.KnowledgeBases()
}

// Retrieve brings the index up to date (for the named knowledge base, or all
// of them) and then searches it.
func (s *Service) Retrieve(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	s.applyDefaults(query)
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.indexer.UpdateIndex(ctx, query.KnowledgeBase); err != nil {
		s.logger.Error("Index update failed", zap.String("knowledge_base", query.KnowledgeBase), zap.Error(err))
		return nil, err
	}
	resp, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Retrieved knowledge",
		zap.String("query", query.Query),
		zap.Int("results", resp.Total),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

// Search queries the index as it is, without a maintenance pass.
func (s *Service) Search(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	s.applyDefaults(query)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Search(ctx, query)
}

func (s *Service) applyDefaults(query *models.RetrieveQuery) {
	if query.K <= 0 && s.defaultK > 0 {
		query.K = s.defaultK
	}
	if query.Threshold == nil && s.threshold != nil {
		t := *s.threshold
		query.Threshold = &t
	}
}

// Update runs one maintenance pass.
func (s *Service) Update(ctx context.Context, knowledgeBase string) (*indexer.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexer.UpdateIndex(ctx, knowledgeBase)
}

// Status reports the index state and its on-disk footprint.
func (s *Service) Status() (*Status, error) {
	kbs, err := s.indexer.KnowledgeBases()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &Status{
		Ready:          s.manager.Ready(),
		Chunks:         s.manager.Size(),
		Model:          s.manager.ModelName(),
		Root:           s.indexer.Root(),
		IndexPath:      s.manager.IndexPath(),
		KnowledgeBases: kbs,
	}
	if st.IndexBytes, err = storage.IndexUsage(st.IndexPath); err != nil {
		return nil, err
	}
	if st.LedgerBytes, err = storage.LedgerUsage(st.Root, kbs); err != nil {
		return nil, err
	}
	return st, nil
}
