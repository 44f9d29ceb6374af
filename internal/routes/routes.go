package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/digishe/digishe/internal/auth"
	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/config"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/insight"
	"github.com/digishe/digishe/internal/ledger"
	"github.com/digishe/digishe/internal/middleware"
	"github.com/digishe/digishe/internal/notification"
	"github.com/digishe/digishe/internal/session"
	"github.com/digishe/digishe/internal/sms"
	"github.com/digishe/digishe/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Gateway and Insights replace the configured implementations when set.
	Gateway  sms.Gateway
	Insights insight.Generator
}

// Setup configures middlewares and all application routes. The returned
// function flushes background ledger writes and must be called on shutdown.
func Setup(app *fiber.App, d Deps) (func(context.Context) error, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	cfg := d.Cfg
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		d.Logger.Warn("token secrets not set, using ephemeral development secrets")
		cfg.JWTSecret, cfg.RefreshSecret = uuid.NewString(), uuid.NewString()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var (
		identityRepo identity.Repository
		businessRepo business.Repository
		store        ledger.Store
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		businessRepo = business.NewPostgresRepository(d.DB)
		store = ledger.NewPostgresStore(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		businessRepo = business.NewMemoryRepository()
		store = ledger.NewInMemory(businessRepo)
	}

	var (
		states    verification.StateStore
		snapshots session.SnapshotCache
	)
	if d.Cache != nil {
		states = verification.NewRedisStateStore(d.Cache)
		snapshots = session.NewRedisSnapshotCache(d.Cache, session.DefaultSnapshotTTL)
	} else {
		states = verification.NewMemoryStateStore()
		snapshots = session.NewMemoryCache()
	}

	gateway := d.Gateway
	if gateway == nil {
		gateway = newGateway(cfg, d.Logger)
	}
	insights := d.Insights
	if insights == nil {
		var err error
		insights, err = insight.New(context.Background(), insight.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.InsightTimeout,
		}, d.Logger)
		if err != nil {
			return nil, err
		}
	}

	identitySvc := identity.NewService(identityRepo)
	businessSvc := business.NewService(businessRepo, notification.NewLoggerNotifier(d.Logger))
	verifier := verification.NewService(identitySvc, gateway, states, verification.Options{
		CountryPrefix: cfg.CountryPrefix,
		CodeLifetime:  cfg.OTPExpiry,
	}, d.Logger)
	authSvc := auth.NewService(cfg, identityRepo)
	manager := session.NewManager(identitySvc, businessSvc, store, snapshots, session.Options{
		CategoryPromptThreshold: cfg.CategoryPromptThreshold,
	}, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	jwtmw := middleware.JWTAuth(authSvc)
	throttle := middleware.OTPThrottle(d.Cache, cfg.OTPRequestsPerMinute, cfg.CountryPrefix)
	authHandler := auth.NewHandler(verifier, authSvc)
	authHandler.OnLogout(manager.Forget)
	RegisterAuthRoutes(api, authHandler, throttle, jwtmw)

	protected := api.Group("", jwtmw)
	RegisterSessionRoutes(protected, session.NewHandler(manager, insights, cfg.Currency),
		middleware.RequireActiveBusiness(businessSvc),
		middleware.Idempotency(d.Cache, cfg.IdempotencyTTL, d.Logger))
	RegisterAdminRoutes(protected, business.NewHandler(businessSvc), identity.NewHandler(identitySvc, cfg.CountryPrefix))

	return manager.Close, nil
}

func newGateway(cfg config.Config, logger *slog.Logger) sms.Gateway {
	if cfg.SMSProvider == "memory" {
		return sms.NewMemoryGateway(cfg.OTPLength, cfg.OTPExpiry, func(_ context.Context, number, code string) error {
			logger.Info("development verification code", slog.String("phone", number), slog.String("code", code))
			return nil
		})
	}
	return sms.NewArkeselGateway(sms.ArkeselConfig{
		BaseURL:    cfg.ArkeselBaseURL,
		APIKey:     cfg.ArkeselAPIKey,
		SenderID:   cfg.SMSSenderID,
		Length:     cfg.OTPLength,
		Expiry:     cfg.OTPExpiry,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	})
}
