package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lasikiewicz/news-aggregator/internal/config"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/feed"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/llm"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/scheduler"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/scrape"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/storage"
	"github.com/Lasikiewicz/news-aggregator/internal/infrastructure/telegram"
	"github.com/Lasikiewicz/news-aggregator/internal/logging"
	"github.com/Lasikiewicz/news-aggregator/internal/metrics"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
	"github.com/Lasikiewicz/news-aggregator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    ports.Store
	source   ports.RunConfigSource
	pipeline *usecase.Pipeline
}

// New builds the runnable application. A missing oracle key or an
// unreachable store is returned as an error.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	oracle, err := llm.New(cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	detector := scrape.LanguageDetector{}
	reader := feed.NewReader(&http.Client{Timeout: cfg.Pipeline.FeedTimeout}, cfg.Scraper.UserAgent)
	scraper := scrape.NewScraper(scrape.Options{
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
		MaxBytes:  cfg.Scraper.MaxBytes,
	}, detector, baseLogger.With("component", "scraper"))

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n != nil {
		notifier = n
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Reader:   reader,
		Scraper:  scraper,
		Oracle:   oracle,
		Articles: store,
		Detector: detector,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
		Options: usecase.PipelineOptions{
			RelevanceFilter:    cfg.Pipeline.RelevanceEnabled(),
			Languages:          cfg.Pipeline.Languages,
			MaxConcurrentFeeds: cfg.Pipeline.MaxConcurrentFeeds,
			MaxConcurrentItems: cfg.Pipeline.MaxConcurrentItems,
			FeedTimeout:        cfg.Pipeline.FeedTimeout,
			MaxPromptChars:     cfg.Pipeline.MaxPromptChars,
		},
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		source:   runConfigSource(cfg, store),
		pipeline: pipeline,
	}, nil
}

func runConfigSource(cfg config.Config, store ports.ConfigRepository) ports.RunConfigSource {
	if cfg.Pipeline.ConfigSource == config.ConfigSourceStore {
		return usecase.NewStoreConfigSource(store, cfg.Categories)
	}
	return usecase.NewStaticConfigSource(cfg.Feeds, cfg.Prompts, cfg.Categories)
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.RunReport, error) {
	return a.pipeline.RunFrom(ctx, a.source)
}

// Serve runs the pipeline on the configured interval and exposes metrics
// until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if a.cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.Metrics.Addr, a.logger.With("component", "metrics")); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline, a.source, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("serving", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

// SeedConfig writes the configured feeds and prompts to the store's config
// documents. It needs no oracle.
func SeedConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	return seed(ctx, store, cfg, logger)
}

func seed(ctx context.Context, repo ports.ConfigRepository, cfg config.Config, logger *slog.Logger) error {
	if err := repo.SaveFeeds(ctx, cfg.Feeds); err != nil {
		return fmt.Errorf("save feeds: %w", err)
	}
	if err := repo.SavePrompts(ctx, cfg.Prompts); err != nil {
		return fmt.Errorf("save prompts: %w", err)
	}
	logger.Info("config documents written", "feeds", len(cfg.Feeds), "driver", cfg.Store.Driver)
	return nil
}
