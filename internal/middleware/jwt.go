package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/auth"
	"github.com/digishe/digishe/internal/business"
)

// JWTAuth validates bearer access tokens and checks the token version.
func JWTAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		user, err := tokens.Authenticate(c.UserContext(), tokenStr)
		switch {
		case errors.Is(err, auth.ErrTokenRevoked):
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		case errors.Is(err, auth.ErrInvalidToken):
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		case err != nil:
			return fiber.NewError(http.StatusServiceUnavailable, "could not verify token")
		}

		c.Locals("user_id", user.ID)
		c.Locals("phone", user.Phone)
		c.Locals("is_admin", user.IsAdmin)
		c.Locals("token_version", user.TokenVersion)
		return c.Next()
	}
}

// RequireAdmin rejects callers whose identity is not an admin.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if admin, _ := c.Locals("is_admin").(bool); !admin {
			return fiber.NewError(http.StatusForbidden, "admin only")
		}
		return c.Next()
	}
}

// RequireActiveBusiness blocks ledger writes until the caller's business has
// been activated by an admin.
func RequireActiveBusiness(businesses *business.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		b, err := businesses.ForOwner(c.UserContext(), uid)
		switch {
		case errors.Is(err, business.ErrNotFound):
			return fiber.NewError(http.StatusForbidden, "complete onboarding first")
		case err != nil:
			return fiber.NewError(http.StatusServiceUnavailable, "could not load business")
		case !b.IsActive:
			return fiber.NewError(http.StatusForbidden, "business is awaiting admin activation")
		}
		c.Locals("business_id", b.ID)
		return c.Next()
	}
}
