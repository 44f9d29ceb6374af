package business

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/digishe/digishe/internal/notification"
)

type testNotifier struct {
	sent []notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func TestCreateStartsInactive(t *testing.T) {
	notifier := &testNotifier{}
	svc := NewService(NewMemoryRepository(), notifier)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateInput{
		OwnerID:   uuid.NewString(),
		Name:      "Ama's Kitchen",
		Category:  "food",
		StartDate: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.IsActive {
		t.Fatal("new business must start inactive")
	}
	if b.Category != CategoryFood {
		t.Fatalf("expected Food, got %s", b.Category)
	}
	if b.StartDate.Hour() != 0 {
		t.Fatalf("expected start date truncated to day, got %s", b.StartDate)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Kind != notification.KindBusinessPending {
		t.Fatalf("expected pending notification, got %+v", notifier.sent)
	}
}

func TestCreateOnePerOwner(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	owner := uuid.NewString()

	if _, err := svc.Create(ctx, CreateInput{OwnerID: owner, Name: "One", Category: "Trading"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: owner, Name: "Two", Category: "Trading"}); !errors.Is(err, ErrBusinessExists) {
		t.Fatalf("expected ErrBusinessExists, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), Name: " ", Category: "Food"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), Name: "Shop", Category: "Mining"}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	notifier := &testNotifier{}
	svc := NewService(NewMemoryRepository(), notifier)
	ctx := context.Background()

	b, _ := svc.Create(ctx, CreateInput{OwnerID: uuid.NewString(), OwnerPhone: "233503088600", Name: "Shop", Category: "Services"})
	activated, err := svc.SetActive(ctx, b.ID, true)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !activated.IsActive {
		t.Fatal("expected active business")
	}
	last := notifier.sent[len(notifier.sent)-1]
	if last.Kind != notification.KindBusinessActivated || last.Destination != "233503088600" {
		t.Fatalf("unexpected notification %+v", last)
	}

	if _, err := svc.SetActive(ctx, uuid.NewString(), true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
