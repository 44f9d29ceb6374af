package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/sms"
	"github.com/digishe/digishe/internal/verification"
)

// Handler exposes the OTP login/registration endpoints and token refresh/logout.
type Handler struct {
	verifier *verification.Service
	svc      *Service
	onLogout []func(phone string)
}

// NewHandler builds an auth handler.
func NewHandler(verifier *verification.Service, svc *Service) *Handler {
	return &Handler{verifier: verifier, svc: svc}
}

// OnLogout registers fn to run with the caller's phone after a successful logout.
func (h *Handler) OnLogout(fn func(phone string)) {
	h.onLogout = append(h.onLogout, fn)
}

type otpRequest struct {
	Phone  string `json:"phone"`
	Intent string `json:"intent"`
	Name   string `json:"name"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
	Name  string `json:"name"`
}

type verifyResponse struct {
	User         identity.Response `json:"user"`
	Created      bool              `json:"created"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresIn    int64             `json:"expires_in"`
}

// RequestCode sends a one-time code to the phone.
func (h *Handler) RequestCode(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	intent := verification.Intent(req.Intent)
	if intent == "" {
		intent = verification.IntentLogin
	}
	ch, err := h.verifier.RequestCode(c.UserContext(), verification.RequestInput{Phone: req.Phone, Intent: intent, Name: req.Name})
	if err != nil {
		return mapVerificationError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"phone":      ch.Phone,
		"expires_at": ch.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// VerifyCode checks the code and returns the identity with a token pair.
func (h *Handler) VerifyCode(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.verifier.VerifyCode(c.UserContext(), verification.VerifyInput{Phone: req.Phone, Code: req.Code, Name: req.Name})
	if err != nil {
		return mapVerificationError(err)
	}
	pair, err := h.svc.Login(res.User)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(verifyResponse{
		User:         identity.ToResponse(res.User),
		Created:      res.Created,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// State reports the verification state for ?phone=.
func (h *Handler) State(c *fiber.Ctx) error {
	phone, st, err := h.verifier.State(c.UserContext(), c.Query("phone"))
	if err != nil {
		return mapVerificationError(err)
	}
	return c.JSON(fiber.Map{"phone": phone, "state": st})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token, "expires_in": exp})
}

// Logout invalidates the caller's existing tokens by bumping the token version.
func (h *Handler) Logout(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	if err := h.svc.Logout(c.UserContext(), uid); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if phone, _ := c.Locals("phone").(string); phone != "" {
		for _, fn := range h.onLogout {
			fn(phone)
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

func mapVerificationError(err error) error {
	var gwErr *sms.GatewayError
	switch {
	case errors.Is(err, verification.ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, verification.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, verification.ErrAccountNotFound.Error())
	case errors.Is(err, verification.ErrAccountAlreadyExists):
		return fiber.NewError(http.StatusConflict, verification.ErrAccountAlreadyExists.Error())
	case errors.Is(err, verification.ErrInvalidCode):
		return fiber.NewError(http.StatusUnauthorized, verification.ErrInvalidCode.Error())
	case errors.Is(err, verification.ErrCodeExpired):
		return fiber.NewError(http.StatusUnauthorized, verification.ErrCodeExpired.Error())
	case errors.Is(err, verification.ErrGatewayUnreachable):
		return fiber.NewError(http.StatusServiceUnavailable, verification.ErrGatewayUnreachable.Error())
	case errors.As(err, &gwErr):
		switch gwErr.Category {
		case sms.CategoryInvalidNumber, sms.CategoryMissingInformation:
			return fiber.NewError(http.StatusBadRequest, gwErr.Message)
		default:
			return fiber.NewError(http.StatusBadGateway, gwErr.Message)
		}
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
