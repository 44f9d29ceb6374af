package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/phone"
)

// Handler exposes admin identity endpoints.
type Handler struct {
	service       *Service
	countryPrefix string
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, countryPrefix string) *Handler {
	return &Handler{service: service, countryPrefix: countryPrefix}
}

type adminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// Response is the JSON shape of an identity.
type Response struct {
	UserID                 string `json:"user_id"`
	Phone                  string `json:"phone"`
	Name                   string `json:"name"`
	IsAdmin                bool   `json:"is_admin"`
	HasCompletedOnboarding bool   `json:"has_completed_onboarding"`
}

// ToResponse renders an identity for API consumers.
func ToResponse(user User) Response {
	return Response{
		UserID:                 user.ID,
		Phone:                  user.Phone,
		Name:                   user.Name,
		IsAdmin:                user.IsAdmin,
		HasCompletedOnboarding: user.HasCompletedOnboarding,
	}
}

// SetAdmin grants or revokes admin rights for the identity in the :phone path parameter.
func (h *Handler) SetAdmin(c *fiber.Ctx) error {
	var req adminRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	canonical, err := phone.Normalize(c.Params("phone"), h.countryPrefix)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.SetAdmin(c.UserContext(), canonical, req.IsAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(ToResponse(user))
}
