package ports

import (
	"context"
	"time"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
)

// FeedReader pulls one RSS/Atom source.
type FeedReader interface {
	Read(ctx context.Context, source domain.FeedSource) (domain.Feed, error)
}

// Scraper extracts images and text from an article page. It never fails:
// problems yield an empty result.
type Scraper interface {
	Scrape(ctx context.Context, pageURL, articleSelector, imageSelector string) domain.ScrapedContent
}

// Oracle is the generative text service.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ArticleRepository persists articles keyed by their stable key.
type ArticleRepository interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upsert(ctx context.Context, article domain.Article) error
	Get(ctx context.Context, key string) (domain.Article, error)
}

// ConfigRepository stores the remote run configuration documents.
type ConfigRepository interface {
	LoadFeeds(ctx context.Context) ([]domain.FeedSource, error)
	LoadPrompts(ctx context.Context) (domain.Prompts, error)
	SaveFeeds(ctx context.Context, feeds []domain.FeedSource) error
	SavePrompts(ctx context.Context, prompts domain.Prompts) error
}

// Store is a backend serving both articles and configuration.
type Store interface {
	ArticleRepository
	ConfigRepository
	Close() error
}

// RunConfigSource resolves the configuration of a single run.
type RunConfigSource interface {
	Load(ctx context.Context) (domain.RunConfig, error)
}

// LanguageDetector guesses the ISO 639-3 language of a text.
type LanguageDetector interface {
	Detect(text string) (lang string, reliable bool)
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
