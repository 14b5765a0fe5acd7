package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_AGGREGATOR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	oracleAPIKeyEnv   = "ORACLE_API_KEY"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	oracleModelEnv    = "ORACLE_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Oracle providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Run configuration sources.
const (
	ConfigSourceStatic = "static"
	ConfigSourceStore  = "store"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig             `yaml:"logging"`
	Metrics       MetricsConfig             `yaml:"metrics"`
	Scheduler     SchedulerConfig           `yaml:"scheduler"`
	Store         StoreConfig               `yaml:"store"`
	Oracle        OracleConfig              `yaml:"oracle"`
	Scraper       ScraperConfig             `yaml:"scraper"`
	Pipeline      PipelineConfig            `yaml:"pipeline"`
	Notifications NotificationConfig        `yaml:"notifications"`
	Feeds         []domain.FeedSource       `yaml:"feeds"`
	Prompts       domain.Prompts            `yaml:"prompts"`
	Categories    []domain.CategoryKeywords `yaml:"categories"`
}

// LoggingConfig selects level, format and an optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// MetricsConfig exposes prometheus collectors when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines how often `serve` runs the pipeline.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redisUrl"`
}

// OracleConfig describes how to reach the generative text service.
type OracleConfig struct {
	Provider          string        `yaml:"provider"`
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	SystemPrompt      string        `yaml:"systemPrompt"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
}

// ScraperConfig tunes article page fetching.
type ScraperConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	MaxBytes  int64         `yaml:"maxBytes"`
}

// PipelineConfig toggles optional stages and concurrency limits.
type PipelineConfig struct {
	ConfigSource       string        `yaml:"configSource"`
	RelevanceFilter    *bool         `yaml:"relevanceFilter"`
	Languages          []string      `yaml:"languages"`
	MaxConcurrentFeeds int           `yaml:"maxConcurrentFeeds"`
	MaxConcurrentItems int           `yaml:"maxConcurrentItems"`
	FeedTimeout        time.Duration `yaml:"feedTimeout"`
	MaxPromptChars     int           `yaml:"maxPromptChars"`
}

// RelevanceEnabled defaults to true when the option is not set.
func (p PipelineConfig) RelevanceEnabled() bool {
	return p.RelevanceFilter == nil || *p.RelevanceFilter
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over the environment variable. A named file that
// cannot be read or parsed is an error; with no path at all the defaults apply.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", domain.ErrConfigMissing, path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.Store.RedisURL = v
	}

	switch c.Oracle.Provider {
	case ProviderGemini:
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			c.Oracle.APIKey = v
		}
	case ProviderOpenAI:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.Oracle.APIKey = v
		}
	}
	if v := os.Getenv(oracleAPIKeyEnv); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv(oracleModelEnv); v != "" {
		c.Oracle.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.MaxSizeMB > 0 {
		base.Logging.MaxSizeMB = override.Logging.MaxSizeMB
	}
	if override.Logging.MaxBackups > 0 {
		base.Logging.MaxBackups = override.Logging.MaxBackups
	}
	if override.Logging.MaxAgeDays > 0 {
		base.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Store.Driver != "" {
		base.Store.Driver = override.Store.Driver
	}
	if override.Store.DSN != "" {
		base.Store.DSN = override.Store.DSN
	}
	if override.Store.RedisURL != "" {
		base.Store.RedisURL = override.Store.RedisURL
	}

	if override.Oracle.Provider != "" && override.Oracle.Provider != base.Oracle.Provider {
		base.Oracle = providerDefaults(override.Oracle.Provider)
	}
	if override.Oracle.Endpoint != "" {
		base.Oracle.Endpoint = override.Oracle.Endpoint
	}
	if override.Oracle.Model != "" {
		base.Oracle.Model = override.Oracle.Model
	}
	if override.Oracle.APIKey != "" {
		base.Oracle.APIKey = override.Oracle.APIKey
	}
	if override.Oracle.SystemPrompt != "" {
		base.Oracle.SystemPrompt = override.Oracle.SystemPrompt
	}
	if override.Oracle.Timeout > 0 {
		base.Oracle.Timeout = override.Oracle.Timeout
	}
	if override.Oracle.RequestsPerSecond > 0 {
		base.Oracle.RequestsPerSecond = override.Oracle.RequestsPerSecond
	}

	if override.Scraper.Timeout > 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.UserAgent != "" {
		base.Scraper.UserAgent = override.Scraper.UserAgent
	}
	if override.Scraper.MaxBytes > 0 {
		base.Scraper.MaxBytes = override.Scraper.MaxBytes
	}

	if override.Pipeline.ConfigSource != "" {
		base.Pipeline.ConfigSource = override.Pipeline.ConfigSource
	}
	if override.Pipeline.RelevanceFilter != nil {
		base.Pipeline.RelevanceFilter = override.Pipeline.RelevanceFilter
	}
	if len(override.Pipeline.Languages) > 0 {
		base.Pipeline.Languages = override.Pipeline.Languages
	}
	if override.Pipeline.MaxConcurrentFeeds > 0 {
		base.Pipeline.MaxConcurrentFeeds = override.Pipeline.MaxConcurrentFeeds
	}
	if override.Pipeline.MaxConcurrentItems > 0 {
		base.Pipeline.MaxConcurrentItems = override.Pipeline.MaxConcurrentItems
	}
	if override.Pipeline.FeedTimeout > 0 {
		base.Pipeline.FeedTimeout = override.Pipeline.FeedTimeout
	}
	if override.Pipeline.MaxPromptChars > 0 {
		base.Pipeline.MaxPromptChars = override.Pipeline.MaxPromptChars
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}
	if override.Prompts.Relevance != "" {
		base.Prompts.Relevance = override.Prompts.Relevance
	}
	if override.Prompts.Article != "" {
		base.Prompts.Article = override.Prompts.Article
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	return base
}

func providerDefaults(provider string) OracleConfig {
	switch provider {
	case ProviderOpenAI:
		return OracleConfig{
			Provider:          ProviderOpenAI,
			Endpoint:          "https://api.openai.com/v1/chat/completions",
			Model:             "gpt-4o-mini",
			SystemPrompt:      "You are a gaming news editor.",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 1,
		}
	default:
		return OracleConfig{
			Provider:          ProviderGemini,
			Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
			Model:             "gemini-1.5-flash",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 1,
		}
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text", MaxSizeMB: 5, MaxBackups: 3, MaxAgeDays: 30},
		Scheduler: SchedulerConfig{Interval: time.Hour, Timezone: defaultTimezone, location: tz},
		Store:     StoreConfig{Driver: StoreSQLite, DSN: "news.db"},
		Oracle:    providerDefaults(ProviderGemini),
		Scraper: ScraperConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			MaxBytes:  5 << 20,
		},
		Pipeline: PipelineConfig{
			ConfigSource:   ConfigSourceStatic,
			FeedTimeout:    30 * time.Second,
			MaxPromptChars: 8000,
		},
		Feeds:      defaultFeeds(),
		Prompts:    defaultPrompts(),
		Categories: defaultCategories(),
	}
}
