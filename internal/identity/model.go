package identity

import (
	"errors"
	"time"
)

// DefaultName is given to identities created without a display name.
const DefaultName = "User"

var (
	// ErrNotFound is returned when no identity matches the lookup key.
	ErrNotFound = errors.New("identity not found")
)

// User is a verified, phone-keyed account.
type User struct {
	ID                     string
	Phone                  string
	Name                   string
	IsAdmin                bool
	HasCompletedOnboarding bool
	TokenVersion           int
	CreatedAt              time.Time
}
