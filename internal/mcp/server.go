// Package mcp exposes knowledge base retrieval as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/kbase/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ServerName is the implementation name announced to clients.
const ServerName = "knowledge-base-server"

// ErrMissingService is returned when NewServer is given a nil service.
var ErrMissingService = errors.New("mcp: knowledge base service is required")

// Service is what the tools call. *search.Service implements it.
type Service interface {
	ListKnowledgeBases() ([]string, error)
	Retrieve(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error)
}

// Server is the MCP server for kbase.
type Server struct {
	service Service
	server  *mcp.Server
	logger  *zap.Logger
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

// NewServer creates an MCP server with the knowledge base tools registered.
func NewServer(service Service, version string, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		service: service,
		server:  mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Knowledge Base MCP server running on stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// Handler returns a streamable HTTP handler serving this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	s.logger.Info("Knowledge Base MCP server running on HTTP", zap.String("addr", addr))
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
