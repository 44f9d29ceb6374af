package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/config"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/infra"
	"github.com/digishe/digishe/internal/ledger"
	"github.com/digishe/digishe/internal/logging"
	"github.com/digishe/digishe/internal/notification"
	"github.com/digishe/digishe/internal/phone"
)

// env is the database-backed service graph shared by the commands.
type env struct {
	cfg        config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	identities *identity.Service
	businesses *business.Service
	store      ledger.Store
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	logger := logging.New(cfg.LogLevel, cfg.AppEnv)
	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, infra.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		identities: identity.NewService(identity.NewPostgresRepository(pool)),
		businesses: business.NewService(business.NewPostgresRepository(pool), notification.NewLoggerNotifier(logger)),
		store:      ledger.NewPostgresStore(pool),
	}, nil
}

func (e *env) close() {
	e.pool.Close()
}

// owned resolves a raw phone number to its identity and business.
func (e *env) owned(ctx context.Context, raw string) (identity.User, business.Business, error) {
	canonical, err := phone.Normalize(raw, e.cfg.CountryPrefix)
	if err != nil {
		return identity.User{}, business.Business{}, err
	}
	user, err := e.identities.Get(ctx, canonical)
	if err != nil {
		return identity.User{}, business.Business{}, fmt.Errorf("identity %s: %w", canonical, err)
	}
	b, err := e.businesses.ForOwner(ctx, user.ID)
	if err != nil {
		return user, business.Business{}, fmt.Errorf("business for %s: %w", canonical, err)
	}
	return user, b, nil
}
