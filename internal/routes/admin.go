package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/middleware"
)

// RegisterAdminRoutes wires operator endpoints behind RequireAdmin.
func RegisterAdminRoutes(r fiber.Router, businesses *business.Handler, identities *identity.Handler) {
	admin := r.Group("/admin", middleware.RequireAdmin())
	admin.Get("/businesses", businesses.List)
	admin.Post("/businesses/:id/activate", businesses.Activate)
	admin.Post("/businesses/:id/deactivate", businesses.Deactivate)
	admin.Post("/identities/:phone/admin", identities.SetAdmin)
}
