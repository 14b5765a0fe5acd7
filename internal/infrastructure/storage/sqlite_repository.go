package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

var sqliteSchema = []string{
	`PRAGMA journal_mode=WAL`,
	`PRAGMA busy_timeout=5000`,
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		guid TEXT NOT NULL,
		title TEXT NOT NULL,
		title_short TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL,
		content TEXT NOT NULL,
		content_snippet TEXT NOT NULL,
		published TEXT NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		image_url TEXT NOT NULL DEFAULT '',
		body_images TEXT NOT NULL DEFAULT '[]',
		source TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published)`,
	`CREATE TABLE IF NOT EXISTS config_documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`,
}

var sqliteDialect = dialect{
	placeholder: sq.Question,
	now:         "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')",
	encodeTime:  func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
	timeDest: func() (any, func() (time.Time, error)) {
		var s string
		return &s, func() (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
	},
}

// SQLiteRepository is the single-file backend used for local runs and tests.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens path (":memory:" is allowed) and applies the schema.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := sqliteDialect.existsArticle(key)
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, article domain.Article) error {
	query, args, err := sqliteDialect.upsertArticle(article)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (domain.Article, error) {
	query, args, err := sqliteDialect.selectArticle(key)
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := sqliteDialect.scanArticle(r.db.QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("%w: article %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return article, nil
}

func (r *SQLiteRepository) LoadFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	raw, err := r.loadDocument(ctx, feedsDocument)
	if err != nil {
		return nil, err
	}
	return decodeFeeds(raw)
}

func (r *SQLiteRepository) LoadPrompts(ctx context.Context) (domain.Prompts, error) {
	raw, err := r.loadDocument(ctx, promptsDocument)
	if err != nil {
		return domain.Prompts{}, err
	}
	return decodePrompts(raw)
}

func (r *SQLiteRepository) SaveFeeds(ctx context.Context, feeds []domain.FeedSource) error {
	body, err := encodeFeeds(feeds)
	if err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}
	return r.saveDocument(ctx, feedsDocument, body)
}

func (r *SQLiteRepository) SavePrompts(ctx context.Context, prompts domain.Prompts) error {
	body, err := encodePrompts(prompts)
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	return r.saveDocument(ctx, promptsDocument, body)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) loadDocument(ctx context.Context, name string) ([]byte, error) {
	query, args, err := sqliteDialect.selectConfig(name)
	if err != nil {
		return nil, fmt.Errorf("build config select: %w", err)
	}

	var body string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, missingDocument(name)
	}
	if err != nil {
		return nil, fmt.Errorf("select config %s: %w", name, err)
	}
	return []byte(body), nil
}

func (r *SQLiteRepository) saveDocument(ctx context.Context, name string, body []byte) error {
	query, args, err := sqliteDialect.upsertConfig(name, body)
	if err != nil {
		return fmt.Errorf("build config upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert config %s: %w", name, err)
	}
	return nil
}
