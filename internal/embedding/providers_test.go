package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceEmbedder_Pooled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/sentence-transformers/all-MiniLM-L6-v2/pipeline/feature-extraction", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float64, len(req.Inputs))
		for i := range req.Inputs {
			out[i] = []float64{float64(i), 1, 2}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer server.Close()

	e, err := NewHuggingFaceEmbedder(Config{APIKey: "hf_test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, DefaultHuggingFaceModel, e.ModelName())
	assert.Equal(t, 0, e.Dimensions())

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 1, 2}, vecs[1])
	assert.Equal(t, 3, e.Dimensions())
}

func TestHuggingFaceEmbedder_TokenLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[[1,2],[3,4]]]`))
	}))
	defer server.Close()

	e, err := NewHuggingFaceEmbedder(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)
	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, vec)
}

func TestHuggingFaceEmbedder_Errors(t *testing.T) {
	_, err := NewHuggingFaceEmbedder(Config{})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "huggingface", perr.Provider)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e, err := NewHuggingFaceEmbedder(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "429")
}

func TestOllamaEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOllamaModel, req.Model)
		_ = json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float64{0.5, 0.25}})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(Config{BaseURL: server.URL})
	assert.Equal(t, 0, e.Dimensions())
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}, {0.5, 0.25}}, vecs)
	assert.Equal(t, 2, e.Dimensions())
}

func TestOllamaEmbedder_ConfiguredDimensions(t *testing.T) {
	e := NewOllamaEmbedder(Config{Dimensions: 1024})
	assert.Equal(t, 1024, e.Dimensions())
}

func TestOpenAIEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// Returned out of order; the embedder reorders by index.
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[` +
			`{"object":"embedding","index":1,"embedding":[0,1]},` +
			`{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimensions())
	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	_, err = NewOpenAIEmbedder(Config{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	e, err := New(Config{Provider: "mock", Model: "test-model", Dimensions: 8, CacheSize: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test-model", e.ModelName())
	assert.IsType(t, &CachedEmbedder{}, e)

	_, err = New(Config{Provider: "bogus"}, nil)
	assert.Error(t, err)

	_, err = New(Config{Provider: "huggingface"}, nil)
	assert.Error(t, err)
}
