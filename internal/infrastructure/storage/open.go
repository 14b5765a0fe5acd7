package storage

import (
	"context"
	"fmt"

	"github.com/Lasikiewicz/news-aggregator/internal/config"
	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/ports"
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (ports.Store, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: postgres dsn is not set", domain.ErrConfigMissing)
		}
		return NewPostgresRepository(ctx, cfg.DSN)
	case config.StoreSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "news.db"
		}
		return NewSQLiteRepository(ctx, dsn)
	case config.StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("%w: redis url is not set", domain.ErrConfigMissing)
		}
		return NewRedisRepository(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
