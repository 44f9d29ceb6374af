package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/auth"
)

// RegisterAuthRoutes wires phone verification and token endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, throttle, jwtmw fiber.Handler) {
	group := r.Group("/auth")
	otp := group.Group("/otp")
	otp.Post("/request", throttle, h.RequestCode)
	otp.Post("/verify", h.VerifyCode)
	otp.Get("/state", h.State)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", jwtmw, h.Logout)
}
