package sms

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Deliverer hands a generated code to the user, e.g. by logging it in development.
type Deliverer func(ctx context.Context, number, code string) error

type challenge struct {
	hash      []byte
	expiresAt time.Time
}

// MemoryGateway is an in-process Gateway for development and tests. Only the
// bcrypt hash of each code is retained.
type MemoryGateway struct {
	mu         sync.Mutex
	challenges map[string]challenge
	length     int
	expiry     time.Duration
	deliver    Deliverer
	now        func() time.Time
	cost       int
}

// NewMemoryGateway builds a MemoryGateway issuing codes of the given length and lifetime.
func NewMemoryGateway(length int, expiry time.Duration, deliver Deliverer) *MemoryGateway {
	if length <= 0 {
		length = 6
	}
	if expiry <= 0 {
		expiry = 5 * time.Minute
	}
	return &MemoryGateway{
		challenges: make(map[string]challenge),
		length:     length,
		expiry:     expiry,
		deliver:    deliver,
		now:        time.Now,
		cost:       bcrypt.DefaultCost,
	}
}

func (g *MemoryGateway) Generate(ctx context.Context, number string) error {
	if number == "" {
		return ErrorForCode(CodeMissingInformation)
	}
	code, err := randomDigits(g.length)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), g.cost)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.challenges[number] = challenge{hash: hash, expiresAt: g.now().Add(g.expiry)}
	g.mu.Unlock()

	if g.deliver != nil {
		return g.deliver(ctx, number, code)
	}
	return nil
}

func (g *MemoryGateway) Verify(_ context.Context, number, code string) error {
	if number == "" || code == "" {
		return ErrorForCode(CodeMissingInformation)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.challenges[number]
	if !ok {
		return ErrorForCode(CodeWrongCode)
	}
	if g.now().After(ch.expiresAt) {
		delete(g.challenges, number)
		return ErrorForCode(CodeExpired)
	}
	if err := bcrypt.CompareHashAndPassword(ch.hash, []byte(code)); err != nil {
		return ErrorForCode(CodeWrongCode)
	}
	delete(g.challenges, number)
	return nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(10)
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
