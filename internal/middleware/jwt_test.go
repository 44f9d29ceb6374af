package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/auth"
	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/config"
	"github.com/digishe/digishe/internal/identity"
)

type authFixture struct {
	app        *fiber.App
	tokens     *auth.Service
	ids        *identity.Service
	businesses *business.Service
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := identity.NewMemoryRepository()
	f := &authFixture{
		ids:        identity.NewService(repo),
		businesses: business.NewService(business.NewMemoryRepository(), nil),
		tokens: auth.NewService(config.Config{
			JWTSecret:       "s1",
			RefreshSecret:   "s2",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		}, repo),
	}
	f.app = fiber.New()
	api := f.app.Group("/api", JWTAuth(f.tokens))
	api.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("phone").(string))
	})
	api.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	api.Post("/ledger", RequireActiveBusiness(f.businesses), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("business_id").(string))
	})
	return f
}

func (f *authFixture) token(t *testing.T, phone string) (identity.User, string) {
	t.Helper()
	user, _, err := f.ids.Ensure(context.Background(), phone, "Ama")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	pair, err := f.tokens.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return user, pair.AccessToken
}

func (f *authFixture) status(t *testing.T, method, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestJWTAuth(t *testing.T) {
	f := setupAuthFixture(t)
	user, token := f.token(t, "233503088600")

	if got := f.status(t, fiber.MethodGet, "/api/me", ""); got != fiber.StatusUnauthorized {
		t.Fatalf("missing token: %d", got)
	}
	if got := f.status(t, fiber.MethodGet, "/api/me", "garbage"); got != fiber.StatusUnauthorized {
		t.Fatalf("bad token: %d", got)
	}
	if got := f.status(t, fiber.MethodGet, "/api/me", token); got != fiber.StatusOK {
		t.Fatalf("valid token: %d", got)
	}
	if err := f.tokens.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := f.status(t, fiber.MethodGet, "/api/me", token); got != fiber.StatusUnauthorized {
		t.Fatalf("revoked token: %d", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	f := setupAuthFixture(t)
	_, token := f.token(t, "233503088600")
	if got := f.status(t, fiber.MethodGet, "/api/admin", token); got != fiber.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", got)
	}

	if _, err := f.ids.SetAdmin(context.Background(), "233503088600", true); err != nil {
		t.Fatalf("set admin: %v", err)
	}
	if got := f.status(t, fiber.MethodGet, "/api/admin", token); got != fiber.StatusOK {
		t.Fatalf("admin: expected 200, got %d", got)
	}
}

func TestRequireActiveBusiness(t *testing.T) {
	f := setupAuthFixture(t)
	user, token := f.token(t, "233503088600")
	ctx := context.Background()

	if got := f.status(t, fiber.MethodPost, "/api/ledger", token); got != fiber.StatusForbidden {
		t.Fatalf("no business: expected 403, got %d", got)
	}
	b, err := f.businesses.Create(ctx, business.CreateInput{OwnerID: user.ID, OwnerPhone: user.Phone, Name: "Shop", Category: "Trading"})
	if err != nil {
		t.Fatalf("create business: %v", err)
	}
	if got := f.status(t, fiber.MethodPost, "/api/ledger", token); got != fiber.StatusForbidden {
		t.Fatalf("inactive business: expected 403, got %d", got)
	}
	if _, err := f.businesses.SetActive(ctx, b.ID, true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := f.status(t, fiber.MethodPost, "/api/ledger", token); got != fiber.StatusOK {
		t.Fatalf("active business: expected 200, got %d", got)
	}
}
