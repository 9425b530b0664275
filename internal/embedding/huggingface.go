package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const providerHuggingFace = "huggingface"

// Hosted inference defaults.
const (
	DefaultHuggingFaceBaseURL = "https://router.huggingface.co/hf-inference"
	DefaultHuggingFaceModel   = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultTimeout            = 30 * time.Second
)

// HuggingFaceEmbedder calls the hosted feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions atomic.Int64
}

// NewHuggingFaceEmbedder returns an embedder for cfg. The API key is required.
func NewHuggingFaceEmbedder(cfg Config) (*HuggingFaceEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, providerErr(providerHuggingFace, "api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultHuggingFaceModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	e := &HuggingFaceEmbedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
	e.dimensions.Store(int64(cfg.Dimensions))
	return e, nil
}

type hfRequest struct {
	Inputs  []string        `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// Embed returns the embedding for a single text.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request.
func (e *HuggingFaceEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	url := fmt.Sprintf("%s/models/%s/pipeline/feature-extraction", e.baseURL, e.model)
	var raw json.RawMessage
	req := hfRequest{Inputs: texts, Options: map[string]bool{"wait_for_model": true}}
	if err := postJSON(ctx, e.client, url, e.apiKey, req, &raw); err != nil {
		return nil, &ProviderError{Provider: providerHuggingFace, Err: err}
	}
	vecs, err := decodeFeatures(raw)
	if err != nil {
		return nil, &ProviderError{Provider: providerHuggingFace, Err: err}
	}
	if len(vecs) != len(texts) {
		return nil, providerErr(providerHuggingFace, "got %d embeddings for %d inputs", len(vecs), len(texts))
	}
	e.dimensions.CompareAndSwap(0, int64(len(vecs[0])))
	return vecs, nil
}

// decodeFeatures accepts pooled output ([input][dim]) or token-level output
// ([input][token][dim]), which is mean-pooled.
func decodeFeatures(raw json.RawMessage) ([][]float32, error) {
	var pooled [][]float64
	if err := json.Unmarshal(raw, &pooled); err == nil {
		out := make([][]float32, len(pooled))
		for i, v := range pooled {
			out[i] = toFloat32(v)
		}
		return out, nil
	}
	var tokens [][][]float64
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, errors.New("unexpected feature-extraction response shape")
	}
	out := make([][]float32, len(tokens))
	for i, seq := range tokens {
		if len(seq) == 0 {
			return nil, fmt.Errorf("input %d: empty token sequence", i)
		}
		mean := make([]float64, len(seq[0]))
		for _, tok := range seq {
			for d := range mean {
				if d < len(tok) {
					mean[d] += tok[d]
				}
			}
		}
		for d := range mean {
			mean[d] /= float64(len(seq))
		}
		out[i] = toFloat32(mean)
	}
	return out, nil
}

// Dimensions returns the configured dimension, or the one observed in the first response.
func (e *HuggingFaceEmbedder) Dimensions() int { return int(e.dimensions.Load()) }

// ModelName returns the model identifier.
func (e *HuggingFaceEmbedder) ModelName() string { return e.model }

// Close is a no-op.
func (e *HuggingFaceEmbedder) Close() error { return nil }
