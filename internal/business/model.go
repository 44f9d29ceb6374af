package business

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound             = errors.New("business not found")
	ErrBusinessExists       = errors.New("identity already owns a business")
	ErrInvalidCategory      = errors.New("invalid business category")
	ErrValidation           = errors.New("invalid business details")
	ErrOnboardingIncomplete = errors.New("business saved but onboarding flag not updated, retry onboarding")
)

// Category is the kind of trade a business is in.
type Category string

const (
	CategoryFood       Category = "Food"
	CategoryFashion    Category = "Fashion"
	CategoryTrading    Category = "Trading"
	CategoryProduction Category = "Production"
	CategoryServices   Category = "Services"
)

// Categories lists the supported business categories.
var Categories = []Category{CategoryFood, CategoryFashion, CategoryTrading, CategoryProduction, CategoryServices}

// ParseCategory matches s case-insensitively against the supported categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Business is the single commercial entity owned by one identity. IsActive
// is only changed by an admin.
type Business struct {
	ID         string
	OwnerID    string
	OwnerPhone string
	Name       string
	Category   Category
	Location   string
	IsActive   bool
	StartDate  time.Time
	CreatedAt  time.Time
}
