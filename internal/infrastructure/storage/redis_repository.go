package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

const (
	articleKeyPrefix = "articles:"
	configKeyPrefix  = "config:"
)

// RedisRepository keeps each article as a JSON document under articles:<key>.
type RedisRepository struct {
	client *redis.Client
}

var _ ports.Store = (*RedisRepository)(nil)

// NewRedisRepository parses a redis:// URL and checks connectivity.
func NewRedisRepository(ctx context.Context, rawURL string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRepository{client: client}, nil
}

func articleKey(key string) string { return articleKeyPrefix + key }

func configKey(name string) string { return configKeyPrefix + name }

func (r *RedisRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, articleKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Upsert overwrites the document. A zero Published takes the server clock.
func (r *RedisRepository) Upsert(ctx context.Context, article domain.Article) error {
	if article.Published.IsZero() {
		now, err := r.client.Time(ctx).Result()
		if err != nil {
			return fmt.Errorf("redis time: %w", err)
		}
		article.Published = now.UTC()
	}
	body, err := encodeArticle(article)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, articleKey(article.ID), body, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, key string) (domain.Article, error) {
	raw, err := r.client.Get(ctx, articleKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Article{}, fmt.Errorf("%w: article %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeArticle(raw)
}

func (r *RedisRepository) LoadFeeds(ctx context.Context) ([]domain.FeedSource, error) {
	raw, err := r.loadDocument(ctx, feedsDocument)
	if err != nil {
		return nil, err
	}
	return decodeFeeds(raw)
}

func (r *RedisRepository) LoadPrompts(ctx context.Context) (domain.Prompts, error) {
	raw, err := r.loadDocument(ctx, promptsDocument)
	if err != nil {
		return domain.Prompts{}, err
	}
	return decodePrompts(raw)
}

func (r *RedisRepository) SaveFeeds(ctx context.Context, feeds []domain.FeedSource) error {
	body, err := encodeFeeds(feeds)
	if err != nil {
		return fmt.Errorf("encode feeds: %w", err)
	}
	return r.client.Set(ctx, configKey(feedsDocument), body, 0).Err()
}

func (r *RedisRepository) SavePrompts(ctx context.Context, prompts domain.Prompts) error {
	body, err := encodePrompts(prompts)
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	return r.client.Set(ctx, configKey(promptsDocument), body, 0).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) loadDocument(ctx context.Context, name string) ([]byte, error) {
	raw, err := r.client.Get(ctx, configKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, missingDocument(name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get config %s: %w", name, err)
	}
	return raw, nil
}

func encodeArticle(article domain.Article) ([]byte, error) {
	if article.Tags == nil {
		article.Tags = []string{}
	}
	body, err := json.Marshal(article)
	if err != nil {
		return nil, fmt.Errorf("encode article: %w", err)
	}
	return body, nil
}

func decodeArticle(raw []byte) (domain.Article, error) {
	var article domain.Article
	if err := json.Unmarshal(raw, &article); err != nil {
		return domain.Article{}, fmt.Errorf("decode article: %w", err)
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}
	return article, nil
}
