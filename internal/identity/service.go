package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service manages the identity lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Exists reports whether an identity is registered for the canonical phone.
func (s *Service) Exists(ctx context.Context, phone string) (bool, error) {
	_, err := s.repo.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Get returns the identity registered for the canonical phone.
func (s *Service) Get(ctx context.Context, phone string) (User, error) {
	return s.repo.FindByPhone(ctx, phone)
}

// GetByID returns the identity with the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Ensure returns the identity for phone, creating it with name when absent.
// The boolean reports whether a new identity was created.
func (s *Service) Ensure(ctx context.Context, phone, name string) (User, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return s.repo.FindOrCreate(ctx, User{
		ID:        uuid.NewString(),
		Phone:     phone,
		Name:      name,
		CreatedAt: s.now().UTC(),
	})
}

// MarkOnboarded records that the identity finished business onboarding.
func (s *Service) MarkOnboarded(ctx context.Context, id string) error {
	return s.repo.MarkOnboarded(ctx, id)
}

// SetAdmin grants or revokes admin rights for the identity registered to phone.
func (s *Service) SetAdmin(ctx context.Context, phone string, admin bool) (User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.SetAdmin(ctx, user.ID, admin); err != nil {
		return User{}, err
	}
	user.IsAdmin = admin
	return user, nil
}
