package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/vector"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "debug: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Retrieval.Mode != "local" {
		t.Errorf("mode = %q, want local", cfg.Retrieval.Mode)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.Threshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", cfg.Retrieval.Threshold)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("dimensions = %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.Ingest.SentencesPerChunk != 10 || cfg.Ingest.MinTokenLength != 30 {
		t.Errorf("ingest defaults = %+v", cfg.Ingest)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	path := writeConfig(t, "storage:\n  snapshot_path: ./data/snapshot.csv\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "data", "snapshot.csv")
	if cfg.Storage.SnapshotPath != want {
		t.Errorf("snapshot path = %q, want %q", cfg.Storage.SnapshotPath, want)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	path := writeConfig(t, "debug: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-env" || cfg.LLM.APIKey != "sk-env" {
		t.Errorf("api keys = %q, %q", cfg.Embedding.APIKey, cfg.LLM.APIKey)
	}
	if cfg.Storage.DatabaseURL != "postgres://env/db" {
		t.Errorf("database url = %q", cfg.Storage.DatabaseURL)
	}
}

func TestLoadConfigFileWinsOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := writeConfig(t, "embedding:\n  api_key: sk-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-file" {
		t.Errorf("api key = %q, want sk-file", cfg.Embedding.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Embedding.Backend = "mock"
	cfg.LLM.Backend = "mock"
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Mode = "supabase"
	err := cfg.Validate()
	if !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Mode = "postgres"
	cfg.Storage.DatabaseURL = ""
	if err := cfg.Validate(); !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
	cfg.Storage.DatabaseURL = "postgres://localhost/kotae"
	if err := cfg.Validate(); err != nil {
		t.Errorf("postgres mode with URL rejected: %v", err)
	}
}

func TestValidateAPIBackendNeedsKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Backend = "api"
	cfg.Embedding.APIKey = ""
	if err := cfg.Validate(); !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}

func TestValidateThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Threshold = 1.5
	if err := cfg.Validate(); !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := validConfig()
	cfg.Server.Port = 9090

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", loaded.Server.Port)
	}
}
