package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hyperjump/kbase/internal/mcp"
	"github.com/hyperjump/kbase/internal/server"
	"github.com/hyperjump/kbase/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host    string
		port    int
		watch   bool
		withMCP bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API:

  GET  /health
  GET  /api/v1/knowledge-bases
  POST /api/v1/retrieve   {"query", "knowledge_base_name", "k", "threshold", "no_update"}
  POST /api/v1/index      {"knowledge_base_name"}
  GET  /api/v1/status

With --mcp (default) the MCP streamable HTTP transport is also served at /mcp.
With --watch, file changes under the root trigger index updates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			logger := a.logger

			cfg := a.cfg.Server
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			srvOpts := []server.Option{server.WithLogger(logger)}
			if withMCP {
				m, err := mcp.NewServer(a.service, version, mcp.WithLogger(logger))
				if err != nil {
					return err
				}
				srvOpts = append(srvOpts, server.WithMCPHandler(m.Handler()))
			}
			srv := server.NewServer(a.service, &cfg, srvOpts...)

			if watch {
				w := newIndexWatcher(cmd.Context(), a)
				if err := w.Start(cmd.Context()); err != nil {
					return err
				}
				defer w.Stop()
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				logger.Warn("server shutdown failed", zap.Error(err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "update the index when files change")
	cmd.Flags().BoolVar(&withMCP, "mcp", true, "serve the MCP streamable HTTP transport at /mcp")
	return cmd
}

// newIndexWatcher returns a watcher that runs a maintenance pass for each
// changed knowledge base.
func newIndexWatcher(ctx context.Context, a *app) *watcher.Watcher {
	return watcher.NewWatcher(a.cfg.KnowledgeBases.RootDir,
		func(kb string) {
			report, err := a.service.Update(ctx, kb)
			if err != nil {
				a.logger.Warn("watch update failed", zap.String("knowledge_base", kb), zap.Error(err))
				return
			}
			a.logger.Info("watch update",
				zap.String("knowledge_base", kb),
				zap.Int("processed", report.Processed),
				zap.Int("chunks_added", report.ChunksAdded),
				zap.Int("skipped", len(report.Skipped)))
		},
		watcher.WithLogger(a.logger),
		watcher.WithDebounce(a.cfg.Watch.Debounce),
		watcher.WithIgnore(a.cfg.Index.Path),
	)
}
