package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the position of a phone number in the verification flow.
type State string

const (
	StateIdle          State = "idle"
	StateCodeRequested State = "code_requested"
	StateVerified      State = "verified"
)

// StateStore tracks the verification state per canonical phone. Entries
// expire after ttl, after which the phone reads as idle again.
type StateStore interface {
	Set(ctx context.Context, phone string, state State, ttl time.Duration) error
	Get(ctx context.Context, phone string) (State, error)
	Clear(ctx context.Context, phone string) error
}

const statePrefix = "otp:state:v1:"

// RedisStateStore keeps verification state in Redis.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore builds a Redis-backed StateStore.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Set(ctx context.Context, phone string, state State, ttl time.Duration) error {
	return s.client.Set(ctx, statePrefix+phone, string(state), ttl).Err()
}

func (s *RedisStateStore) Get(ctx context.Context, phone string) (State, error) {
	v, err := s.client.Get(ctx, statePrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, err
	}
	return State(v), nil
}

func (s *RedisStateStore) Clear(ctx context.Context, phone string) error {
	return s.client.Del(ctx, statePrefix+phone).Err()
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStateStore builds an in-process StateStore.
func NewMemoryStateStore() StateStore {
	return &memoryStateStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStateStore) Set(_ context.Context, phone string, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = memoryEntry{state: state, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStateStore) Get(_ context.Context, phone string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[phone]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, phone)
		return StateIdle, nil
	}
	return e.state, nil
}

func (s *memoryStateStore) Clear(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}
