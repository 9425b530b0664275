package embedding

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderHuggingFace = providerHuggingFace
	ProviderOllama      = providerOllama
	ProviderOpenAI      = providerOpenAI
	ProviderONNX        = providerONNX
	ProviderMock        = "mock"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	Timeout    time.Duration
	// CacheSize > 0 wraps the provider in an LRU cache of that many texts.
	CacheSize int
	ONNX      ONNXConfig
}

// ONNXConfig configures the local ONNX Runtime provider.
type ONNXConfig struct {
	ModelPath  string
	Model      string
	Dimensions int
	MaxTokens  int
}

// New constructs the provider named by cfg.Provider.
func New(cfg Config, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		e   Embedder
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderHuggingFace:
		e, err = NewHuggingFaceEmbedder(cfg)
	case ProviderOllama:
		e = NewOllamaEmbedder(cfg)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(cfg)
	case ProviderONNX:
		e, err = NewONNXEmbedder(cfg.ONNX)
	case ProviderMock:
		m := NewMockEmbedder(cfg.Dimensions)
		if cfg.Model != "" {
			m = m.WithModel(cfg.Model)
		}
		e = m
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", e.ModelName()),
		zap.Int("dimensions", e.Dimensions()))
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
