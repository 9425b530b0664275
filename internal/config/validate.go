package config

import (
	"fmt"
	"strings"
)

// Validate checks that the selected provider is usable and the numeric settings are sane.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Embedding.Provider) {
	case ProviderHuggingFace:
		if c.Embedding.HuggingFace.APIKey == "" {
			return fmt.Errorf("%w: %s is required when %s=%s",
				ErrMissingCredential, EnvHuggingFaceAPIKey, EnvProvider, ProviderHuggingFace)
		}
	case ProviderOpenAI:
		if c.Embedding.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: %s is required when %s=%s",
				ErrMissingCredential, EnvOpenAIAPIKey, EnvProvider, ProviderOpenAI)
		}
	case ProviderOllama, ProviderMock:
	case ProviderONNX:
		if c.Embedding.ONNX.ModelPath == "" {
			return fmt.Errorf("embedding.onnx.model_path is required when %s=%s", EnvProvider, ProviderONNX)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q (supported: huggingface, ollama, openai, onnx, mock)", c.Embedding.Provider)
	}

	switch c.Index.Backend {
	case "memory", "faiss":
	default:
		return fmt.Errorf("unknown index backend %q (supported: memory, faiss)", c.Index.Backend)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap)
	}
	if c.Retrieval.DefaultK <= 0 {
		return fmt.Errorf("retrieval.default_k must be positive, got %d", c.Retrieval.DefaultK)
	}
	if t := c.Retrieval.Threshold; t != nil && *t < 0 {
		return fmt.Errorf("retrieval.threshold must not be negative, got %v", *t)
	}
	return nil
}

// ModelName is the model identifier of the selected provider, as recorded in the index marker.
func (c *Config) ModelName() string {
	switch strings.ToLower(c.Embedding.Provider) {
	case ProviderOllama:
		return c.Embedding.Ollama.Model
	case ProviderOpenAI:
		return c.Embedding.OpenAI.Model
	case ProviderONNX:
		return c.Embedding.ONNX.Model
	case ProviderMock:
		return ProviderMock
	default:
		return c.Embedding.HuggingFace.Model
	}
}
