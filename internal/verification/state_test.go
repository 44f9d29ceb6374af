package verification

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStateStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStateStore(client)
	ctx := context.Background()

	st, err := store.Get(ctx, "233503088600")
	if err != nil || st != StateIdle {
		t.Fatalf("expected idle, got %s %v", st, err)
	}

	if err := store.Set(ctx, "233503088600", StateCodeRequested, 5*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if st, _ := store.Get(ctx, "233503088600"); st != StateCodeRequested {
		t.Fatalf("expected code_requested, got %s", st)
	}

	mr.FastForward(6 * time.Minute)
	if st, _ := store.Get(ctx, "233503088600"); st != StateIdle {
		t.Fatalf("expected idle after expiry, got %s", st)
	}

	_ = store.Set(ctx, "233503088600", StateVerified, time.Minute)
	if err := store.Clear(ctx, "233503088600"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if st, _ := store.Get(ctx, "233503088600"); st != StateIdle {
		t.Fatalf("expected idle after clear, got %s", st)
	}
}
