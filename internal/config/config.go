// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/retriever"
	"github.com/hyperjump/kotae/internal/vector"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths and connection strings for persistence.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	CatalogPath  string `yaml:"catalog_path"`
	DatabaseURL  string `yaml:"database_url"`
	// WatchSnapshot reloads the local index when the snapshot file changes.
	WatchSnapshot bool `yaml:"watch_snapshot"`
}

// EmbeddingConfig holds embedder settings for the api, local, and mock backends.
type EmbeddingConfig struct {
	Backend    string `yaml:"backend"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	ModelPath  string `yaml:"model_path"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig holds answer generation settings.
type LLMConfig struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RetrievalConfig holds retriever mode and search settings.
type RetrievalConfig struct {
	Mode         string  `yaml:"mode"`
	TopK         int     `yaml:"top_k"`
	Threshold    float64 `yaml:"threshold"`
	QueryTimeout int     `yaml:"query_timeout_seconds"`
}

// IngestConfig holds chunking settings.
type IngestConfig struct {
	SentencesPerChunk int     `yaml:"sentences_per_chunk"`
	MinTokenLength    float64 `yaml:"min_token_length"`
}

// Load reads and parses the config file at path, merges environment
// overrides, expands paths, and applies defaults. A .env file next to the
// config is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.SnapshotPath = expandPath(cfg.Storage.SnapshotPath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Storage.DatabaseURL == "" {
		cfg.Storage.DatabaseURL = v
	}
}

// Validate checks cross-field constraints that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Retrieval.Mode {
	case retriever.ModeLocal, retriever.ModePostgres:
	default:
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown retrieval mode %q", c.Retrieval.Mode), nil)
	}
	if c.Retrieval.Mode == retriever.ModePostgres && c.Storage.DatabaseURL == "" {
		return vector.NewError(vector.KindInvalidConfiguration,
			"postgres retrieval mode requires storage.database_url or DATABASE_URL", nil)
	}

	switch c.Embedding.Backend {
	case embedding.BackendAPI:
		if c.Embedding.APIKey == "" {
			return vector.NewError(vector.KindInvalidConfiguration,
				"api embedding backend requires embedding.api_key or OPENAI_API_KEY", nil)
		}
	case embedding.BackendLocal, embedding.BackendMock:
	default:
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown embedding backend %q", c.Embedding.Backend), nil)
	}

	switch c.LLM.Backend {
	case llm.BackendAPI:
		if c.LLM.APIKey == "" {
			return vector.NewError(vector.KindInvalidConfiguration,
				"api llm backend requires llm.api_key or OPENAI_API_KEY", nil)
		}
	case llm.BackendOllama, llm.BackendMock:
	default:
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown llm backend %q", c.LLM.Backend), nil)
	}

	if c.Embedding.Dimensions <= 0 {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions), nil)
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold >= 1 {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("retrieval.threshold must be in [0,1), got %v", c.Retrieval.Threshold), nil)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
