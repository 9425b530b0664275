package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/kbase/internal/config"
	"github.com/hyperjump/kbase/internal/embedding"
	"github.com/hyperjump/kbase/internal/index"
	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/search"
	"github.com/hyperjump/kbase/internal/vector"
	"github.com/hyperjump/kbase/pkg/utils"
	"go.uber.org/zap"
)

// userConfigPath is where kbase looks for a config file when --config is not
// given and the working directory has no config.yaml.
func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kbase", "config.yaml")
}

// resolveConfigPath picks the config file to load. An explicit path always
// wins; otherwise ./config.yaml, then the user config file. An empty result
// means configuration comes from the environment only.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "config.yaml"))
	}
	if p := userConfigPath(); p != "" {
		candidates = append(candidates, p)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadConfig loads the config and returns it with the path actually read.
func loadConfig(explicit string) (*config.Config, string, error) {
	path := resolveConfigPath(explicit)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// embeddingConfig maps the selected provider's settings onto the embedding factory config.
func embeddingConfig(cfg *config.Config) embedding.Config {
	e := cfg.Embedding
	out := embedding.Config{
		Provider:  e.Provider,
		Timeout:   e.Timeout,
		CacheSize: e.CacheSize,
	}
	switch e.Provider {
	case config.ProviderOllama:
		out.Model = e.Ollama.Model
		out.BaseURL = e.Ollama.BaseURL
		out.Dimensions = e.Ollama.Dimensions
	case config.ProviderOpenAI:
		out.Model = e.OpenAI.Model
		out.BaseURL = e.OpenAI.BaseURL
		out.APIKey = e.OpenAI.APIKey
	case config.ProviderONNX:
		out.ONNX = embedding.ONNXConfig{
			ModelPath:  e.ONNX.ModelPath,
			Model:      e.ONNX.Model,
			Dimensions: e.ONNX.Dimensions,
			MaxTokens:  e.ONNX.MaxTokens,
		}
	case config.ProviderMock:
		out.Dimensions = 384
	default:
		out.Model = e.HuggingFace.Model
		out.BaseURL = e.HuggingFace.BaseURL
		out.APIKey = e.HuggingFace.APIKey
	}
	return out
}

// app holds the wired components for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	embedder embedding.Embedder
	manager  *index.Manager
	indexer  *indexer.Indexer
	service  *search.Service
}

// newApp builds the embedder, index manager, orchestrator and service, and
// initializes the index.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	emb, err := embedding.New(embeddingConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings: %w", err)
	}

	backend := vector.IndexType(cfg.Index.Backend)
	if backend == vector.IndexTypeFAISS && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS backend not compiled in, falling back to memory",
			zap.String("requested_type", cfg.Index.Backend))
		backend = vector.IndexTypeMemory
	}
	mgr := index.NewManager(cfg.Index.Path, emb, index.WithLogger(logger), index.WithBackend(backend))
	if err := mgr.Initialize(ctx); err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	idx := indexer.NewIndexer(cfg.KnowledgeBases.RootDir, mgr,
		indexer.WithLogger(logger),
		indexer.WithChunker(indexer.NewChunker(
			cfg.Chunking.ChunkSize,
			cfg.Chunking.ChunkOverlap,
			cfg.Chunking.MarkdownExtensions,
		)),
	)
	svc := search.NewService(idx, mgr,
		search.WithLogger(logger),
		search.WithDefaults(cfg.Retrieval.DefaultK, cfg.Retrieval.Threshold),
	)

	logger.Info("kbase ready",
		zap.String("root", cfg.KnowledgeBases.RootDir),
		zap.String("index_path", cfg.Index.Path),
		zap.String("backend", string(backend)),
		zap.String("model", emb.ModelName()),
		zap.Bool("index_loaded", mgr.Ready()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		embedder: emb,
		manager:  mgr,
		indexer:  idx,
		service:  svc,
	}, nil
}

// Close releases the index and the embedder.
func (a *app) Close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Warn("index close failed", zap.Error(err))
	}
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn("embedder close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// rootOptions are the persistent flags shared by all commands.
type rootOptions struct {
	configPath string
	debug      bool
}

// setup loads the config, creates the logger and wires the app.
func (o *rootOptions) setup(ctx context.Context) (*app, error) {
	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || o.debug
	logger, err := utils.NewLogger(debug, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", debug))

	start := time.Now()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("components initialized", zap.Duration("took", time.Since(start)))
	return a, nil
}
