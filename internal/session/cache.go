package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/ledger"
)

const (
	snapshotKeyPrefix  = "session:v1:"
	DefaultSnapshotTTL = 24 * time.Hour
)

// SnapshotCache stores serialized snapshots keyed by canonical phone. It is
// read only when storage cannot be reached.
type SnapshotCache interface {
	Save(ctx context.Context, snap Snapshot) error
	Fetch(ctx context.Context, phone string) (Snapshot, bool, error)
}

// RedisSnapshotCache keeps snapshots as JSON documents in Redis.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotCache builds a Redis-backed cache. A non-positive ttl uses DefaultSnapshotTTL.
func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func (c *RedisSnapshotCache) Save(ctx context.Context, snap Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKeyPrefix+snap.Identity.Phone, data, c.ttl).Err()
}

func (c *RedisSnapshotCache) Fetch(ctx context.Context, phone string) (Snapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKeyPrefix+phone).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryCache returns an in-process cache that round-trips through the
// same JSON encoding as the Redis cache.
func NewMemoryCache() SnapshotCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Save(_ context.Context, snap Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[snap.Identity.Phone] = data
	return nil
}

func (c *memoryCache) Fetch(_ context.Context, phone string) (Snapshot, bool, error) {
	c.mu.Lock()
	data, ok := c.data[phone]
	c.mu.Unlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

type cachedIdentity struct {
	ID                     string    `json:"id"`
	Phone                  string    `json:"phone"`
	Name                   string    `json:"name"`
	IsAdmin                bool      `json:"is_admin"`
	HasCompletedOnboarding bool      `json:"has_completed_onboarding"`
	TokenVersion           int       `json:"token_version"`
	CreatedAt              time.Time `json:"created_at"`
}

type cachedBusiness struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	OwnerPhone string    `json:"owner_phone"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Location   string    `json:"location,omitempty"`
	IsActive   bool      `json:"is_active"`
	StartDate  time.Time `json:"start_date"`
	CreatedAt  time.Time `json:"created_at"`
}

type cachedEntry struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"business_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	OccurredOn time.Time       `json:"occurred_on"`
}

type cachedSaving struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
	OccurredOn  time.Time       `json:"occurred_on"`
}

type cachedSnapshot struct {
	Identity         cachedIdentity  `json:"identity"`
	Business         *cachedBusiness `json:"business,omitempty"`
	Entries          []cachedEntry   `json:"entries"`
	Savings          []cachedSaving  `json:"savings"`
	EntryCount       int             `json:"entry_count"`
	CategoryPrompted bool            `json:"category_prompted"`
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	u := snap.Identity
	doc := cachedSnapshot{
		Identity: cachedIdentity{
			ID:                     u.ID,
			Phone:                  u.Phone,
			Name:                   u.Name,
			IsAdmin:                u.IsAdmin,
			HasCompletedOnboarding: u.HasCompletedOnboarding,
			TokenVersion:           u.TokenVersion,
			CreatedAt:              u.CreatedAt,
		},
		Entries:          make([]cachedEntry, 0, len(snap.Entries)),
		Savings:          make([]cachedSaving, 0, len(snap.Savings)),
		EntryCount:       snap.EntryCount,
		CategoryPrompted: snap.CategoryPrompted,
	}
	if b := snap.Business; b != nil {
		doc.Business = &cachedBusiness{
			ID:         b.ID,
			OwnerID:    b.OwnerID,
			OwnerPhone: b.OwnerPhone,
			Name:       b.Name,
			Category:   string(b.Category),
			Location:   b.Location,
			IsActive:   b.IsActive,
			StartDate:  b.StartDate,
			CreatedAt:  b.CreatedAt,
		}
	}
	for _, e := range snap.Entries {
		doc.Entries = append(doc.Entries, cachedEntry{
			ID:         e.ID,
			BusinessID: e.BusinessID,
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			Category:   e.Category,
			OccurredOn: e.OccurredOn,
		})
	}
	for _, sv := range snap.Savings {
		doc.Savings = append(doc.Savings, cachedSaving{
			ID:          sv.ID,
			BusinessID:  sv.BusinessID,
			Amount:      sv.Amount,
			Destination: string(sv.Destination),
			OccurredOn:  sv.OccurredOn,
		})
	}
	return json.Marshal(doc)
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var doc cachedSnapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Identity: identity.User{
			ID:                     doc.Identity.ID,
			Phone:                  doc.Identity.Phone,
			Name:                   doc.Identity.Name,
			IsAdmin:                doc.Identity.IsAdmin,
			HasCompletedOnboarding: doc.Identity.HasCompletedOnboarding,
			TokenVersion:           doc.Identity.TokenVersion,
			CreatedAt:              doc.Identity.CreatedAt,
		},
		EntryCount:       doc.EntryCount,
		CategoryPrompted: doc.CategoryPrompted,
	}
	if b := doc.Business; b != nil {
		snap.Business = &business.Business{
			ID:         b.ID,
			OwnerID:    b.OwnerID,
			OwnerPhone: b.OwnerPhone,
			Name:       b.Name,
			Category:   business.Category(b.Category),
			Location:   b.Location,
			IsActive:   b.IsActive,
			StartDate:  b.StartDate,
			CreatedAt:  b.CreatedAt,
		}
	}
	for _, e := range doc.Entries {
		snap.Entries = append(snap.Entries, ledger.Entry{
			ID:         e.ID,
			BusinessID: e.BusinessID,
			Kind:       ledger.Kind(e.Kind),
			Amount:     e.Amount,
			Category:   e.Category,
			OccurredOn: e.OccurredOn,
		})
	}
	for _, sv := range doc.Savings {
		snap.Savings = append(snap.Savings, ledger.Saving{
			ID:          sv.ID,
			BusinessID:  sv.BusinessID,
			Amount:      sv.Amount,
			Destination: ledger.Destination(sv.Destination),
			OccurredOn:  sv.OccurredOn,
		})
	}
	return snap, nil
}
