package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

const providerOllama = "ollama"

// Local Ollama defaults.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
)

// OllamaEmbedder generates embeddings with a local Ollama server.
type OllamaEmbedder struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions atomic.Int64
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder returns an embedder for cfg, filling in local defaults.
func NewOllamaEmbedder(cfg Config) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	e := &OllamaEmbedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
	e.dimensions.Store(int64(cfg.Dimensions))
	return e
}

// Embed generates a vector embedding for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaResponse
	req := ollamaRequest{Model: e.model, Prompt: text}
	if err := postJSON(ctx, e.client, e.baseURL+"/api/embeddings", "", req, &resp); err != nil {
		return nil, &ProviderError{Provider: providerOllama, Err: err}
	}
	if len(resp.Embedding) == 0 {
		return nil, providerErr(providerOllama, "empty embedding for model %s", e.model)
	}
	e.dimensions.CompareAndSwap(0, int64(len(resp.Embedding)))
	return toFloat32(resp.Embedding), nil
}

// EmbedBatch calls Embed for each text; Ollama has no batch endpoint.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the configured dimension, or the one observed in the
// first response. It is 0 until known.
func (e *OllamaEmbedder) Dimensions() int { return int(e.dimensions.Load()) }

// ModelName returns the Ollama model tag.
func (e *OllamaEmbedder) ModelName() string { return e.model }

// Close is a no-op.
func (e *OllamaEmbedder) Close() error { return nil }
