// Package verification implements the phone verification flow: a code is
// requested for a canonical phone number, then checked, and a successful
// check resolves to an identity.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/phone"
	"github.com/digishe/digishe/internal/sms"
)

// Intent says whether the caller is logging into an existing account or registering a new one.
type Intent string

const (
	IntentLogin    Intent = "login"
	IntentRegister Intent = "register"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrAccountNotFound      = errors.New("no account found, please register first")
	ErrAccountAlreadyExists = errors.New("an account already exists for this number, please log in")
	ErrInvalidCode          = errors.New("the code you entered is incorrect")
	ErrCodeExpired          = errors.New("this code has expired, please request a new one")
	ErrGatewayUnreachable   = errors.New("could not reach the verification service")
)

// Options tune the verification flow.
type Options struct {
	CountryPrefix string
	CodeLifetime  time.Duration
	// StateTTL bounds how long a verified state is remembered.
	StateTTL time.Duration
}

// Service runs the request/verify exchange against the SMS gateway and the identity store.
type Service struct {
	identities *identity.Service
	gateway    sms.Gateway
	states     StateStore
	opts       Options
	logger     *slog.Logger
}

// NewService builds a verification service.
func NewService(identities *identity.Service, gateway sms.Gateway, states StateStore, opts Options, logger *slog.Logger) *Service {
	if opts.CountryPrefix == "" {
		opts.CountryPrefix = "233"
	}
	if opts.CodeLifetime == 0 {
		opts.CodeLifetime = 5 * time.Minute
	}
	if opts.StateTTL == 0 {
		opts.StateTTL = opts.CodeLifetime
	}
	if states == nil {
		states = NewMemoryStateStore()
	}
	return &Service{identities: identities, gateway: gateway, states: states, opts: opts, logger: logger}
}

// RequestInput is a request for a one-time code.
type RequestInput struct {
	Phone  string
	Intent Intent
	Name   string
}

// Challenge describes a dispatched code.
type Challenge struct {
	Phone     string
	ExpiresAt time.Time
}

// VerifyInput carries a user-entered code.
type VerifyInput struct {
	Phone string
	Code  string
	// Name is used only when the verification creates the identity.
	Name string
}

// Result is a successful verification.
type Result struct {
	User    identity.User
	Created bool
}

// Normalize canonicalises raw with the configured country prefix.
func (s *Service) Normalize(raw string) (string, error) {
	canonical, err := phone.Normalize(raw, s.opts.CountryPrefix)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return canonical, nil
}

// RequestCode checks the account against the intent and has the gateway send
// a fresh code. Every call dispatches a new code; throttling is left to callers.
func (s *Service) RequestCode(ctx context.Context, in RequestInput) (Challenge, error) {
	canonical, err := s.Normalize(in.Phone)
	if err != nil {
		return Challenge{}, err
	}

	switch in.Intent {
	case IntentLogin, IntentRegister:
	default:
		return Challenge{}, fmt.Errorf("%w: unknown intent %q", ErrValidation, in.Intent)
	}
	if in.Intent == IntentRegister && strings.TrimSpace(in.Name) == "" {
		return Challenge{}, fmt.Errorf("%w: please enter your full name", ErrValidation)
	}

	exists, err := s.identities.Exists(ctx, canonical)
	if err != nil {
		return Challenge{}, err
	}
	if in.Intent == IntentLogin && !exists {
		return Challenge{}, ErrAccountNotFound
	}
	if in.Intent == IntentRegister && exists {
		return Challenge{}, ErrAccountAlreadyExists
	}

	if err := s.gateway.Generate(ctx, canonical); err != nil {
		return Challenge{}, s.gatewayError(err)
	}

	s.setState(ctx, canonical, StateCodeRequested, s.opts.CodeLifetime)
	return Challenge{Phone: canonical, ExpiresAt: time.Now().UTC().Add(s.opts.CodeLifetime)}, nil
}

// VerifyCode validates code with the gateway and resolves the identity,
// creating it on first verification.
func (s *Service) VerifyCode(ctx context.Context, in VerifyInput) (Result, error) {
	canonical, err := s.Normalize(in.Phone)
	if err != nil {
		return Result{}, err
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return Result{}, fmt.Errorf("%w: code is required", ErrValidation)
	}

	if err := s.gateway.Verify(ctx, canonical, code); err != nil {
		mapped := s.gatewayError(err)
		if !errors.Is(mapped, ErrGatewayUnreachable) {
			s.clearState(ctx, canonical)
		}
		return Result{}, mapped
	}

	user, created, err := s.identities.Ensure(ctx, canonical, in.Name)
	if err != nil {
		return Result{}, err
	}
	if created && s.logger != nil {
		s.logger.Info("identity created", slog.String("user_id", user.ID), slog.String("phone", user.Phone))
	}

	s.setState(ctx, canonical, StateVerified, s.opts.StateTTL)
	return Result{User: user, Created: created}, nil
}

// State reports the verification state for raw.
func (s *Service) State(ctx context.Context, raw string) (string, State, error) {
	canonical, err := s.Normalize(raw)
	if err != nil {
		return "", StateIdle, err
	}
	st, err := s.states.Get(ctx, canonical)
	if err != nil {
		return canonical, StateIdle, err
	}
	return canonical, st, nil
}

func (s *Service) gatewayError(err error) error {
	switch {
	case errors.Is(err, sms.ErrUnreachable):
		return fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	case errors.Is(err, sms.ErrInvalidCode):
		return fmt.Errorf("%w: %w", ErrInvalidCode, err)
	case errors.Is(err, sms.ErrCodeExpired):
		return fmt.Errorf("%w: %w", ErrCodeExpired, err)
	default:
		return err
	}
}

func (s *Service) setState(ctx context.Context, phone string, st State, ttl time.Duration) {
	if err := s.states.Set(ctx, phone, st, ttl); err != nil && s.logger != nil {
		s.logger.Warn("store verification state", slog.String("phone", phone), slog.Any("error", err))
	}
}

func (s *Service) clearState(ctx context.Context, phone string) {
	if err := s.states.Clear(ctx, phone); err != nil && s.logger != nil {
		s.logger.Warn("clear verification state", slog.String("phone", phone), slog.Any("error", err))
	}
}
