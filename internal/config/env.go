package config

import (
	"strconv"
	"strings"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvRootDir            = "KNOWLEDGE_BASES_ROOT_DIR"
	EnvIndexPath          = "FAISS_INDEX_PATH"
	EnvIndexBackend       = "KBASE_INDEX_BACKEND"
	EnvProvider           = "EMBEDDING_PROVIDER"
	EnvHuggingFaceAPIKey  = "HUGGINGFACE_API_KEY"
	EnvHuggingFaceModel   = "HUGGINGFACE_MODEL_NAME"
	EnvHuggingFaceBaseURL = "HUGGINGFACE_BASE_URL"
	EnvOllamaBaseURL      = "OLLAMA_BASE_URL"
	EnvOllamaModel        = "OLLAMA_MODEL"
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel        = "OPENAI_MODEL"
	EnvOpenAIBaseURL      = "OPENAI_BASE_URL"
	EnvONNXModelPath      = "ONNX_MODEL_PATH"
	EnvDebug              = "KBASE_DEBUG"
	EnvLogFile            = "KBASE_LOG_FILE"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with any non-empty environment variables.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	path := func(key string, dst *string) {
		var v string
		str(key, &v)
		if v != "" {
			*dst = expandEnvPath(v)
		}
	}

	path(EnvRootDir, &cfg.KnowledgeBases.RootDir)
	path(EnvIndexPath, &cfg.Index.Path)
	str(EnvIndexBackend, &cfg.Index.Backend)
	str(EnvProvider, &cfg.Embedding.Provider)
	str(EnvHuggingFaceAPIKey, &cfg.Embedding.HuggingFace.APIKey)
	str(EnvHuggingFaceModel, &cfg.Embedding.HuggingFace.Model)
	str(EnvHuggingFaceBaseURL, &cfg.Embedding.HuggingFace.BaseURL)
	str(EnvOllamaBaseURL, &cfg.Embedding.Ollama.BaseURL)
	str(EnvOllamaModel, &cfg.Embedding.Ollama.Model)
	str(EnvOpenAIAPIKey, &cfg.Embedding.OpenAI.APIKey)
	str(EnvOpenAIModel, &cfg.Embedding.OpenAI.Model)
	str(EnvOpenAIBaseURL, &cfg.Embedding.OpenAI.BaseURL)
	path(EnvONNXModelPath, &cfg.Embedding.ONNX.ModelPath)
	path(EnvLogFile, &cfg.LogFile)

	if v, ok := lookup(EnvDebug); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Debug = b
		}
	}
}
