package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable ApplyEnv reads so host settings cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvRootDir, EnvIndexPath, EnvIndexBackend, EnvProvider,
		EnvHuggingFaceAPIKey, EnvHuggingFaceModel, EnvHuggingFaceBaseURL,
		EnvOllamaBaseURL, EnvOllamaModel,
		EnvOpenAIAPIKey, EnvOpenAIModel, EnvOpenAIBaseURL,
		EnvONNXModelPath, EnvDebug, EnvLogFile,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
knowledge_bases:
  root_dir: "/srv/kb"
embedding:
  huggingface:
    api_key: "hf_test"
server:
  host: "127.0.0.1"
  port: 9000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/kb", cfg.KnowledgeBases.RootDir)
	assert.Equal(t, filepath.Join("/srv/kb", ".faiss"), cfg.Index.Path)
	assert.Equal(t, ProviderHuggingFace, cfg.Embedding.Provider)
	assert.False(t, cfg.Debug, "debug should default to false when unset")
}

func TestLoad_envOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
knowledge_bases:
  root_dir: "/srv/kb"
embedding:
  provider: huggingface
  huggingface:
    api_key: "from-file"
    model: "file/model"
`)
	t.Setenv(EnvRootDir, "/data/kb")
	t.Setenv(EnvIndexPath, "/data/index")
	t.Setenv(EnvHuggingFaceAPIKey, "from-env")
	t.Setenv(EnvHuggingFaceModel, "env/model")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/kb", cfg.KnowledgeBases.RootDir)
	assert.Equal(t, "/data/index", cfg.Index.Path)
	assert.Equal(t, "from-env", cfg.Embedding.HuggingFace.APIKey)
	assert.Equal(t, "env/model", cfg.Embedding.HuggingFace.Model)
	assert.Equal(t, "env/model", cfg.ModelName())
	assert.True(t, cfg.Debug)
}

func TestLoad_environmentOnly(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv(EnvRootDir, root)
	t.Setenv(EnvProvider, ProviderOllama)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, root, cfg.KnowledgeBases.RootDir)
	assert.Equal(t, filepath.Join(root, ".faiss"), cfg.Index.Path)
	assert.Equal(t, "nomic-embed-text", cfg.ModelName())
}

func TestLoad_missingCredential(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRootDir, t.TempDir())

	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), EnvHuggingFaceAPIKey)

	t.Setenv(EnvProvider, ProviderOpenAI)
	_, err = Load("")
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), EnvOpenAIAPIKey)
}

func TestLoad_relativeEnvPathIsAbsolute(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRootDir, "kbs")
	t.Setenv(EnvProvider, ProviderOllama)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.KnowledgeBases.RootDir))
	assert.Equal(t, "kbs", filepath.Base(cfg.KnowledgeBases.RootDir))
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
knowledge_bases:
  root_dir: "./kb"
index:
  path: "./data/index"
embedding:
  provider: ollama
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kb"), cfg.KnowledgeBases.RootDir)
	assert.Equal(t, filepath.Join(dir, "data", "index"), cfg.Index.Path)
}

func TestLoad_zeroThresholdIsKept(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
embedding:
  provider: ollama
retrieval:
  threshold: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Retrieval.Threshold)
	assert.Equal(t, 0.0, *cfg.Retrieval.Threshold)
}

func TestLoad_invalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{KnowledgeBases: KnowledgeBasesConfig{RootDir: "/kb"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "/kb/.faiss", cfg.Index.Path)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, ProviderHuggingFace, cfg.Embedding.Provider)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", cfg.Embedding.HuggingFace.Model)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Chunking.MarkdownExtensions)
	assert.Equal(t, 10, cfg.Retrieval.DefaultK)
	require.NotNil(t, cfg.Retrieval.Threshold)
	assert.Equal(t, 2.0, *cfg.Retrieval.Threshold)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{KnowledgeBases: KnowledgeBasesConfig{RootDir: "/kb"}}
		cfg.Embedding.Provider = ProviderOllama
		ApplyDefaults(cfg)
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "word2vec" }, true},
		{"unknown backend", func(c *Config) { c.Index.Backend = "annoy" }, true},
		{"overlap equals size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }, true},
		{"negative overlap", func(c *Config) { c.Chunking.ChunkOverlap = -1 }, true},
		{"onnx without model", func(c *Config) { c.Embedding.Provider = ProviderONNX }, true},
		{"onnx with model", func(c *Config) {
			c.Embedding.Provider = ProviderONNX
			c.Embedding.ONNX.ModelPath = "/models/minilm.onnx"
		}, false},
		{"faiss backend", func(c *Config) { c.Index.Backend = "faiss" }, false},
		{"negative threshold", func(c *Config) {
			neg := -0.5
			c.Retrieval.Threshold = &neg
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{}
	cfg.Embedding.HuggingFace.APIKey = "hf_secret"
	red := cfg.Redacted()
	assert.Equal(t, "********", red.Embedding.HuggingFace.APIKey)
	assert.Empty(t, red.Embedding.OpenAI.APIKey)
	assert.Equal(t, "hf_secret", cfg.Embedding.HuggingFace.APIKey, "original must be untouched")
}

func TestSave(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "saved.yaml")
	cfg := &Config{
		KnowledgeBases: KnowledgeBasesConfig{RootDir: "/srv/kb"},
		Embedding:      EmbeddingConfig{Provider: ProviderOllama},
		Server:         ServerConfig{Host: "localhost", Port: 9090},
	}
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, loaded.Server.Port)
	assert.Equal(t, "/srv/kb", loaded.KnowledgeBases.RootDir)
}
