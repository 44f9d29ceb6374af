package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/insight"
	"github.com/digishe/digishe/internal/ledger"
)

// Handler exposes the authenticated ledger endpoints.
type Handler struct {
	manager  *Manager
	insights insight.Generator
	currency string
}

// NewHandler builds a session HTTP handler.
func NewHandler(manager *Manager, insights insight.Generator, currency string) *Handler {
	return &Handler{manager: manager, insights: insights, currency: currency}
}

// amountText accepts a JSON number or string and keeps its literal text so
// no precision is lost before decimal parsing.
type amountText string

func (a *amountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	*a = amountText(data)
	return nil
}

type onboardingRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	StartDate string `json:"start_date"`
}

type entryRequest struct {
	Kind     string     `json:"kind"`
	Amount   amountText `json:"amount"`
	Category string     `json:"category"`
}

type savingRequest struct {
	Amount      amountText `json:"amount"`
	Destination string     `json:"destination"`
}

type entryResponse struct {
	ID         string          `json:"id"`
	Kind       ledger.Kind     `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	OccurredOn string          `json:"occurred_on"`
	Synced     bool            `json:"synced"`
}

type savingResponse struct {
	ID          string             `json:"id"`
	Amount      decimal.Decimal    `json:"amount"`
	Destination ledger.Destination `json:"destination"`
	OccurredOn  string             `json:"occurred_on"`
	Synced      bool               `json:"synced"`
}

type promptResponse struct {
	OfferCustomCategory bool `json:"offer_custom_category"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		Kind:       e.Kind,
		Amount:     e.Amount,
		Category:   e.Category,
		OccurredOn: e.OccurredOn.Format(time.DateOnly),
		Synced:     !IsTemporary(e.ID),
	}
}

func toSavingResponse(sv ledger.Saving) savingResponse {
	return savingResponse{
		ID:          sv.ID,
		Amount:      sv.Amount,
		Destination: sv.Destination,
		OccurredOn:  sv.OccurredOn.Format(time.DateOnly),
		Synced:      !IsTemporary(sv.ID),
	}
}

func phoneFrom(c *fiber.Ctx) (string, error) {
	phone, _ := c.Locals("phone").(string)
	if phone == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return phone, nil
}

func (h *Handler) session(c *fiber.Ctx) (*Session, error) {
	phone, err := phoneFrom(c)
	if err != nil {
		return nil, err
	}
	sess, err := h.manager.Session(c.UserContext(), phone)
	if err != nil && sess == nil {
		return nil, mapError(err)
	}
	return sess, nil
}

// Me returns the caller's freshly loaded ledger with stats and the weekly series.
func (h *Handler) Me(c *fiber.Ctx) error {
	phone, err := phoneFrom(c)
	if err != nil {
		return err
	}
	snap, err := h.manager.Load(c.UserContext(), phone)
	if err != nil && snap.Identity.ID == "" {
		return mapError(err)
	}

	entries := make([]entryResponse, 0, len(snap.Entries))
	var pending []string
	for _, e := range snap.Entries {
		entries = append(entries, toEntryResponse(e))
		if IsTemporary(e.ID) {
			pending = append(pending, e.ID)
		}
	}
	savings := make([]savingResponse, 0, len(snap.Savings))
	for _, sv := range snap.Savings {
		savings = append(savings, toSavingResponse(sv))
		if IsTemporary(sv.ID) {
			pending = append(pending, sv.ID)
		}
	}

	body := fiber.Map{
		"identity":      identity.ToResponse(snap.Identity),
		"business":      nil,
		"entries":       entries,
		"savings":       savings,
		"stats":         ledger.Summarize(snap.Entries),
		"savings_total": ledger.SavingsTotal(snap.Savings),
		"weekly":        ledger.Weekly(snap.Entries, h.manager.now()),
		"entry_count":   snap.EntryCount,
		"pending":       pending,
		"currency":      h.currency,
	}
	if snap.Business != nil {
		body["business"] = business.ToResponse(*snap.Business)
	}
	if err != nil {
		body["partial"] = true
		body["warning"] = err.Error()
	}
	return c.Status(http.StatusOK).JSON(body)
}

// Onboarding creates the caller's business and completes onboarding.
func (h *Handler) Onboarding(c *fiber.Ctx) error {
	var req onboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var start time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		start = parsed
	}
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	b, err := sess.CompleteOnboarding(c.UserContext(), OnboardingInput{
		Name:      req.Name,
		Category:  req.Category,
		Location:  req.Location,
		StartDate: start,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(business.ToResponse(b))
}

// RecordEntry records a sale or expense.
func (h *Handler) RecordEntry(c *fiber.Ctx) error {
	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	e, prompt, err := sess.RecordEntry(c.UserContext(), req.Kind, string(req.Amount), req.Category)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"entry":  toEntryResponse(e),
		"prompt": promptResponse{OfferCustomCategory: prompt.OfferCustomCategory},
	})
}

// RecordSaving records a saving.
func (h *Handler) RecordSaving(c *fiber.Ctx) error {
	var req savingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	sv, prompt, err := sess.RecordSaving(c.UserContext(), string(req.Amount), req.Destination)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"saving": toSavingResponse(sv),
		"prompt": promptResponse{OfferCustomCategory: prompt.OfferCustomCategory},
	})
}

// Categories lists the default categories for ?kind=sale|expense.
func (h *Handler) Categories(c *fiber.Ctx) error {
	kind, err := ledger.ParseKind(c.Query("kind", string(ledger.KindSale)))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"kind": kind, "categories": ledger.DefaultCategories(kind)})
}

// Insight returns a short business tip.
func (h *Handler) Insight(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	snap := sess.Snapshot()
	if snap.Business == nil {
		return fiber.NewError(http.StatusConflict, "complete onboarding first")
	}
	summary := insight.NewSummary(snap.Business.Name, string(snap.Business.Category), snap.Entries, h.currency)
	return c.JSON(fiber.Map{"tip": h.insights.Generate(c.UserContext(), summary)})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, ledger.ErrInvalidDestination),
		errors.Is(err, ledger.ErrInvalidCategory),
		errors.Is(err, business.ErrValidation),
		errors.Is(err, business.ErrInvalidCategory):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrBusinessInactive):
		return fiber.NewError(http.StatusForbidden, "business is awaiting admin activation")
	case errors.Is(err, business.ErrOnboardingIncomplete):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrLoadFailed):
		return fiber.NewError(http.StatusServiceUnavailable, "storage unavailable, try again")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
