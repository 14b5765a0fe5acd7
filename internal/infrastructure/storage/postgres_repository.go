package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		guid TEXT NOT NULL,
		title TEXT NOT NULL,
		title_short TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL,
		content TEXT NOT NULL,
		content_snippet TEXT NOT NULL,
		published TIMESTAMPTZ NOT NULL,
		category TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		image_url TEXT NOT NULL DEFAULT '',
		body_images TEXT NOT NULL DEFAULT '[]',
		source TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS articles_published_idx ON articles (published DESC)`,
	`CREATE TABLE IF NOT EXISTS config_documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL
	)`,
}

var postgresDialect = dialect{
	placeholder: sq.Dollar,
	now:         "NOW()",
	encodeTime:  func(t time.Time) any { return t.UTC() },
	timeDest: func() (any, func() (time.Time, error)) {
		var t time.Time
		return &t, func() (time.Time, error) { return t.UTC(), nil }
	},
}

// PostgresRepository persists articles and config documents into Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*PostgresRepository)(nil)

// NewPostgresRepository connects to dsn and applies the schema.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &PostgresRepository{pool: pool}, nil
}

// Exists reports whether an article with the key is stored.
func (r *PostgresRepository) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := postgresDialect.existsArticle(key)
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// Upsert writes the article; the last writer wins.
func (r *PostgresRepository) Upsert(ctx context.Context, article domain.Article) error {
	query, args, err := postgresDialect.upsertArticle(article)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// Get loads a stored article.
func (r *PostgresRepository) Get(ctx context.Context, key string) (domain.Article, error) {
	query, args, err := postgresDialect.selectArticle(key)
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	article, err := postgresDialect.scanArticle(r.pool.QueryRow(ctx, query, args...).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("%w: article %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return article, nil
}

func (r *PostgresRepository) LoadFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	raw, err := r.loadDocument(ctx, feedsDocument)
	if err != nil {
		return nil, err
	}
	return decodeFeeds(raw)
}

func (r *PostgresRepository) LoadPrompts(ctx context.Context) (domain.Prompts, error) {
	raw, err := r.loadDocument(ctx, promptsDocument)
	if err != nil {
		return domain.Prompts{}, err
	}
	return decodePrompts(raw)
}

func (r *PostgresRepository) SaveFeeds(ctx context.Context, feeds []domain.FeedSource) error {
	body, err := encodeFeeds(feeds)
	if err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}
	return r.saveDocument(ctx, feedsDocument, body)
}

func (r *PostgresRepository) SavePrompts(ctx context.Context, prompts domain.Prompts) error {
	body, err := encodePrompts(prompts)
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	return r.saveDocument(ctx, promptsDocument, body)
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) loadDocument(ctx context.Context, name string) ([]byte, error) {
	query, args, err := postgresDialect.selectConfig(name)
	if err != nil {
		return nil, fmt.Errorf("build config select: %w", err)
	}

	var body string
	err = r.pool.QueryRow(ctx, query, args...).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, missingDocument(name)
	}
	if err != nil {
		return nil, fmt.Errorf("select config %s: %w", name, err)
	}
	return []byte(body), nil
}

func (r *PostgresRepository) saveDocument(ctx context.Context, name string, body []byte) error {
	query, args, err := postgresDialect.upsertConfig(name, body)
	if err != nil {
		return fmt.Errorf("build config upsert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert config %s: %w", name, err)
	}
	return nil
}
