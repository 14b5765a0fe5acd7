package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(oracleAPIKeyEnv, "")
	t.Setenv(geminiAPIKeyEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Store.Driver != StoreSQLite {
		t.Fatalf("expected sqlite default store, got %s", cfg.Store.Driver)
	}
	if cfg.Oracle.Provider != ProviderGemini {
		t.Fatalf("expected gemini default provider, got %s", cfg.Oracle.Provider)
	}
	if cfg.Scraper.Timeout != 10*time.Second {
		t.Fatalf("expected 10s scrape timeout, got %s", cfg.Scraper.Timeout)
	}
	if !cfg.Pipeline.RelevanceEnabled() {
		t.Fatalf("relevance filter should default to enabled")
	}
	if len(cfg.Feeds) == 0 || cfg.Prompts.Article == "" || len(cfg.Categories) == 0 {
		t.Fatalf("expected default feeds, prompts and categories")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
store:
  driver: postgres
  dsn: postgres://file
oracle:
  provider: openai
  model: gpt-test
scraper:
  timeout: 5s
pipeline:
  relevanceFilter: false
  languages: [eng]
  maxConcurrentItems: 4
feeds:
  - url: https://feeds.example/rss
    category: Xbox
    articleSelector: .story
scheduler:
  interval: 30m
  timezone: Europe/Berlin
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(openAIAPIKeyEnv, "sk-env")
	t.Setenv(oracleAPIKeyEnv, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Store.Driver != StorePostgres || cfg.Store.DSN != "postgres://env" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Oracle.Provider != ProviderOpenAI || cfg.Oracle.Model != "gpt-test" || cfg.Oracle.APIKey != "sk-env" {
		t.Fatalf("unexpected oracle config: %+v", cfg.Oracle)
	}
	if cfg.Oracle.Endpoint != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("expected openai endpoint default, got %s", cfg.Oracle.Endpoint)
	}
	if cfg.Scraper.Timeout != 5*time.Second {
		t.Fatalf("unexpected scrape timeout %s", cfg.Scraper.Timeout)
	}
	if cfg.Pipeline.RelevanceEnabled() {
		t.Fatalf("relevance filter should be disabled by file")
	}
	if len(cfg.Pipeline.Languages) != 1 || cfg.Pipeline.MaxConcurrentItems != 4 {
		t.Fatalf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].ArticleSelector != ".story" {
		t.Fatalf("unexpected feeds: %+v", cfg.Feeds)
	}
	if cfg.Scheduler.Interval != 30*time.Minute || cfg.Scheduler.Timezone != "Europe/Berlin" || cfg.Scheduler.Location() == nil {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv(configPathEnv, "")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestLoadMissingFileFromEnvFails(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(""); !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	t.Setenv(configPathEnv, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
