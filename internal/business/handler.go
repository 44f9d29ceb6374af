package business

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin activation panel.
type Handler struct {
	service *Service
}

// NewHandler builds a business HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Response is the JSON shape of a business.
type Response struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	OwnerPhone string    `json:"owner_phone"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	Location   string    `json:"location,omitempty"`
	IsActive   bool      `json:"is_active"`
	StartDate  string    `json:"start_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse renders a business for API consumers.
func ToResponse(b Business) Response {
	return Response{
		ID:         b.ID,
		OwnerID:    b.OwnerID,
		OwnerPhone: b.OwnerPhone,
		Name:       b.Name,
		Category:   b.Category,
		Location:   b.Location,
		IsActive:   b.IsActive,
		StartDate:  b.StartDate.Format(time.DateOnly),
		CreatedAt:  b.CreatedAt,
	}
}

// List returns every business.
func (h *Handler) List(c *fiber.Ctx) error {
	all, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]Response, 0, len(all))
	for _, b := range all {
		out = append(out, ToResponse(b))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"businesses": out})
}

// Activate approves the business in the :id path parameter.
func (h *Handler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate suspends the business in the :id path parameter.
func (h *Handler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *Handler) setActive(c *fiber.Ctx, active bool) error {
	b, err := h.service.SetActive(c.UserContext(), c.Params("id"), active)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(ToResponse(b))
}
