package infra

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/digishe/digishe/internal/config"
)

// Backends holds the optional storage connections. A nil field means the
// service runs on in-memory implementations for that concern.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Open connects to whatever cfg configures. Missing URLs are only accepted in
// development; config validation enforces that before Open is called.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	if cfg.DatabaseURL != "" {
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL, PoolOptions{})
		if err != nil {
			return nil, err
		}
		b.DB = db
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, idempotency and throttling disabled")
	}
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close() error {
	var errs []error
	if b.Cache != nil {
		errs = append(errs, b.Cache.Close())
	}
	if b.DB != nil {
		b.DB.Close()
	}
	return errors.Join(errs...)
}
