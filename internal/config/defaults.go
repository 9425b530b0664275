package config

import (
	"os"
	"path/filepath"
	"time"
)

// Provider names.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderONNX        = "onnx"
	// ProviderMock is a deterministic offline embedder for trying kbase out and for tests.
	ProviderMock = "mock"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.KnowledgeBases.RootDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.KnowledgeBases.RootDir = filepath.Join(home, "knowledge_bases")
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = filepath.Join(cfg.KnowledgeBases.RootDir, ".faiss")
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "memory"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderHuggingFace
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.HuggingFace.Model == "" {
		cfg.Embedding.HuggingFace.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.Ollama.BaseURL == "" {
		cfg.Embedding.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Ollama.Model == "" {
		cfg.Embedding.Ollama.Model = "nomic-embed-text"
	}
	if cfg.Embedding.OpenAI.Model == "" {
		cfg.Embedding.OpenAI.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.ONNX.Dimensions == 0 {
		cfg.Embedding.ONNX.Dimensions = 384
	}
	if cfg.Embedding.ONNX.MaxTokens == 0 {
		cfg.Embedding.ONNX.MaxTokens = 256
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.Chunking.MarkdownExtensions == nil {
		cfg.Chunking.MarkdownExtensions = []string{".md", ".markdown"}
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 10
	}
	if cfg.Retrieval.Threshold == nil {
		threshold := 2.0
		cfg.Retrieval.Threshold = &threshold
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 2 * time.Second
	}
}
