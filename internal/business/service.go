package business

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digishe/digishe/internal/notification"
)

// Service manages businesses and their admin activation.
type Service struct {
	repo     Repository
	notifier notification.Notifier
	now      func() time.Time
}

// NewService builds a business service. notifier may be nil.
func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// CreateInput captures the onboarding form.
type CreateInput struct {
	OwnerID    string
	OwnerPhone string
	Name       string
	Category   string
	Location   string
	StartDate  time.Time
}

// Create persists a new, inactive business for the owner.
func (s *Service) Create(ctx context.Context, in CreateInput) (Business, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Business{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.OwnerID == "" {
		return Business{}, fmt.Errorf("%w: owner is required", ErrValidation)
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Business{}, err
	}
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}

	b := Business{
		ID:         uuid.NewString(),
		OwnerID:    in.OwnerID,
		OwnerPhone: in.OwnerPhone,
		Name:       name,
		Category:   category,
		Location:   strings.TrimSpace(in.Location),
		IsActive:   false,
		StartDate:  time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Business{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:        notification.KindBusinessPending,
		Destination: "admins",
		Body:        fmt.Sprintf("%s (%s) is waiting for activation", b.Name, b.OwnerPhone),
	})
	return b, nil
}

// ForOwner returns the business owned by the identity.
func (s *Service) ForOwner(ctx context.Context, ownerID string) (Business, error) {
	return s.repo.FindByOwner(ctx, ownerID)
}

// Get returns a business by identifier.
func (s *Service) Get(ctx context.Context, id string) (Business, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all businesses for the admin panel.
func (s *Service) List(ctx context.Context) ([]Business, error) {
	return s.repo.List(ctx)
}

// SetActive approves or suspends a business.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (Business, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return Business{}, err
	}
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Business{}, err
	}

	kind, body := notification.KindBusinessDeactivated, "Your business has been suspended."
	if active {
		kind, body = notification.KindBusinessActivated, "Your business is now active. Start recording your sales!"
	}
	s.notify(ctx, notification.Message{Kind: kind, Destination: b.OwnerPhone, Body: body})
	return b, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, msg)
	}
}
