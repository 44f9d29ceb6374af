package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/ledger"
)

func TestRedisSnapshotCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewRedisSnapshotCache(client, time.Hour)
	ctx := context.Background()

	if _, ok, err := cache.Fetch(ctx, testPhone); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	day := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Identity: identity.User{ID: "u1", Phone: testPhone, Name: "Ama", HasCompletedOnboarding: true},
		Business: &business.Business{ID: "b1", OwnerID: "u1", Name: "Ama's Kitchen", Category: business.CategoryFood, IsActive: true, StartDate: day},
		Entries: []ledger.Entry{
			{ID: "tmp_x", BusinessID: "b1", Kind: ledger.KindSale, Amount: decimal.RequireFromString("10.125"), Category: "Retail", OccurredOn: day},
		},
		Savings: []ledger.Saving{
			{ID: "s1", BusinessID: "b1", Amount: decimal.RequireFromString("3"), Destination: ledger.DestinationMobileMoney, OccurredOn: day},
		},
		EntryCount:       2,
		CategoryPrompted: false,
	}
	if err := cache.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("session:v1:" + testPhone) {
		t.Fatal("expected versioned session key")
	}

	got, ok, err := cache.Fetch(ctx, testPhone)
	if err != nil || !ok {
		t.Fatalf("fetch: ok=%v err=%v", ok, err)
	}
	if got.Identity.Name != "Ama" || got.Business == nil || got.Business.Category != business.CategoryFood {
		t.Fatalf("unexpected identity/business %+v %+v", got.Identity, got.Business)
	}
	if len(got.Entries) != 1 || !got.Entries[0].Amount.Equal(decimal.RequireFromString("10.125")) || got.Entries[0].ID != "tmp_x" {
		t.Fatalf("unexpected entries %+v", got.Entries)
	}
	if len(got.Savings) != 1 || got.Savings[0].Destination != ledger.DestinationMobileMoney {
		t.Fatalf("unexpected savings %+v", got.Savings)
	}
	if got.EntryCount != 2 {
		t.Fatalf("expected entry count 2, got %d", got.EntryCount)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := cache.Fetch(ctx, testPhone); ok {
		t.Fatal("expected snapshot to expire")
	}
}
