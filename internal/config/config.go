// Package config loads kbase settings from an optional YAML file, an optional
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned by Validate when a hosted embedding provider has no API key.
var ErrMissingCredential = errors.New("missing API credential")

// Config holds all configuration for the application.
type Config struct {
	Debug          bool                 `yaml:"debug"`
	LogFile        string               `yaml:"log_file"`
	KnowledgeBases KnowledgeBasesConfig `yaml:"knowledge_bases"`
	Index          IndexConfig          `yaml:"index"`
	Embedding      EmbeddingConfig      `yaml:"embedding"`
	Chunking       ChunkingConfig       `yaml:"chunking"`
	Retrieval      RetrievalConfig      `yaml:"retrieval"`
	Server         ServerConfig         `yaml:"server"`
	Watch          WatchConfig          `yaml:"watch"`
}

// KnowledgeBasesConfig locates the knowledge base tree.
type KnowledgeBasesConfig struct {
	RootDir string `yaml:"root_dir"`
}

// IndexConfig locates the persisted vector index.
type IndexConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"`
}

// EmbeddingConfig selects the embedding provider and holds settings for each.
type EmbeddingConfig struct {
	Provider    string            `yaml:"provider"`
	CacheSize   int               `yaml:"cache_size"`
	Timeout     time.Duration     `yaml:"timeout"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	ONNX        ONNXConfig        `yaml:"onnx"`
}

// HuggingFaceConfig configures hosted inference on Hugging Face.
type HuggingFaceConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// OpenAIConfig configures an OpenAI-compatible embeddings API.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ONNXConfig configures in-process inference with ONNX Runtime.
type ONNXConfig struct {
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// ChunkingConfig holds the markdown chunking policy.
type ChunkingConfig struct {
	ChunkSize          int      `yaml:"chunk_size"`
	ChunkOverlap       int      `yaml:"chunk_overlap"`
	MarkdownExtensions []string `yaml:"markdown_extensions"`
}

// RetrievalConfig holds defaults for retrieve requests that omit k or threshold.
// Threshold is a pointer so an explicit 0 survives ApplyDefaults.
type RetrievalConfig struct {
	DefaultK  int      `yaml:"default_k"`
	Threshold *float64 `yaml:"threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load builds the configuration. path may be empty, in which case only the
// environment (and a .env file in the working directory, if any) is used.
func Load(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir := filepath.Dir(path)
		cfg.KnowledgeBases.RootDir = expandPath(cfg.KnowledgeBases.RootDir, configDir)
		cfg.Index.Path = expandPath(cfg.Index.Path, configDir)
		cfg.Embedding.ONNX.ModelPath = expandPath(cfg.Embedding.ONNX.ModelPath, configDir)
		cfg.LogFile = expandPath(cfg.LogFile, configDir)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, creating its directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Redacted returns a copy with API keys masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Embedding.HuggingFace.APIKey = mask(cp.Embedding.HuggingFace.APIKey)
	cp.Embedding.OpenAI.APIKey = mask(cp.Embedding.OpenAI.APIKey)
	return &cp
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// expandPath makes a config-file path absolute. "~/" is the home directory,
// "./" and "../" are relative to configDir, and other relative paths are
// relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if path == "." || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}

// expandEnvPath resolves a path from the environment: "~/" is the home
// directory, anything else relative is resolved against the working directory.
func expandEnvPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
