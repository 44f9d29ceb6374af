package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for amounts that are not strictly positive numbers.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrInvalidKind is returned for entry kinds other than sale and expense.
	ErrInvalidKind = errors.New("entry kind must be sale or expense")
	// ErrInvalidDestination is returned for savings destinations other than bank and mobile money.
	ErrInvalidDestination = errors.New("savings destination must be bank or mobile_money")
	// ErrInvalidCategory is returned when an entry has no category.
	ErrInvalidCategory = errors.New("category is required")
	// ErrBusinessInactive is returned when writing against a business that is
	// missing or not yet activated by an admin.
	ErrBusinessInactive = errors.New("business is not active")
)

// Kind separates money in from money out.
type Kind string

const (
	KindSale    Kind = "sale"
	KindExpense Kind = "expense"
)

// ParseKind validates an entry kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSale:
		return KindSale, nil
	case KindExpense:
		return KindExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Destination is where a saving was put.
type Destination string

const (
	DestinationBank        Destination = "bank"
	DestinationMobileMoney Destination = "mobile_money"
)

// ParseDestination validates a savings destination.
func ParseDestination(s string) (Destination, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank":
		return DestinationBank, nil
	case "mobile_money", "mobilemoney", "momo":
		return DestinationMobileMoney, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDestination, s)
}

// ParseAmount parses a user-entered amount. The value is kept exactly as
// entered: no rounding, no currency conversion.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Entry is a recorded sale or expense.
type Entry struct {
	ID         string
	BusinessID string
	Kind       Kind
	Amount     decimal.Decimal
	Category   string
	OccurredOn time.Time
}

// Saving is a recorded transfer to a savings destination.
type Saving struct {
	ID          string
	BusinessID  string
	Amount      decimal.Decimal
	Destination Destination
	OccurredOn  time.Time
}

// Store persists entries and savings. Inserts assign the storage identifier
// and refuse writes against businesses that are not active.
type Store interface {
	InsertEntry(ctx context.Context, e Entry) (Entry, error)
	InsertSaving(ctx context.Context, s Saving) (Saving, error)
	Entries(ctx context.Context, businessID string) ([]Entry, error)
	Savings(ctx context.Context, businessID string) ([]Saving, error)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
