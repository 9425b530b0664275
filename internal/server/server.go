// Package server provides the HTTP API for kbase.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kbase/internal/config"
	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/hyperjump/kbase/internal/search"
	"go.uber.org/zap"
)

// Backend is the subset of *search.Service the API needs.
type Backend interface {
	ListKnowledgeBases() ([]string, error)
	Retrieve(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error)
	Search(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error)
	Update(ctx context.Context, knowledgeBase string) (*indexer.Report, error)
	Status() (*search.Status, error)
}

// Server is the HTTP server for the kbase API.
type Server struct {
	backend Backend
	config  *config.ServerConfig
	logger  *zap.Logger
	mcp     http.Handler
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer creates a server over backend.
func NewServer(backend Backend, cfg *config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		// Retrieval may embed many changed files before searching.
		r.Use(middleware.Timeout(5 * time.Minute))
		r.Use(middleware.Compress(5))
		r.Get("/knowledge-bases", s.handleListKnowledgeBases)
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/index", s.handleIndex)
		r.Get("/status", s.handleStatus)
	})
	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
		r.Handle("/mcp/*", s.mcp)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.Bool("mcp", s.mcp != nil))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
