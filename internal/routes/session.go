package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/session"
)

// RegisterSessionRoutes wires the bookkeeping endpoints. Writes require an
// active business and an Idempotency-Key.
func RegisterSessionRoutes(r fiber.Router, h *session.Handler, active, idempotent fiber.Handler) {
	r.Get("/me", h.Me)
	r.Post("/onboarding", h.Onboarding)
	r.Get("/insight", h.Insight)
	r.Get("/categories", h.Categories)

	entries := r.Group("/ledger", active, idempotent)
	entries.Post("/entries", h.RecordEntry)
	entries.Post("/savings", h.RecordSaving)
}
