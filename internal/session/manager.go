package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/ledger"
)

// DefaultCategoryPromptThreshold is the entry count that triggers the custom category prompt.
const DefaultCategoryPromptThreshold = 3

// DefaultIdleTTL is how long an unused session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Options configures a Manager.
type Options struct {
	CategoryPromptThreshold int
	IdleTTL                 time.Duration
	Outbox                  OutboxOptions
}

// Manager owns one Session per identity and the outbox that persists their writes.
type Manager struct {
	identities *identity.Service
	businesses *business.Service
	store      ledger.Store
	cache      SnapshotCache
	outbox     *Outbox
	logger     *slog.Logger
	threshold  int
	idleTTL    time.Duration
	now        func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	lastUsed  map[string]time.Time
	lastSweep time.Time
}

// NewManager builds a session manager and starts its outbox. cache may be nil.
func NewManager(identities *identity.Service, businesses *business.Service, store ledger.Store, cache SnapshotCache, opts Options, logger *slog.Logger) *Manager {
	if opts.CategoryPromptThreshold <= 0 {
		opts.CategoryPromptThreshold = DefaultCategoryPromptThreshold
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Outbox.Retryable == nil {
		opts.Outbox.Retryable = func(err error) bool {
			return !errors.Is(err, ledger.ErrBusinessInactive)
		}
	}
	return &Manager{
		identities: identities,
		businesses: businesses,
		store:      store,
		cache:      cache,
		outbox:     NewOutbox(opts.Outbox, logger),
		logger:     logger,
		threshold:  opts.CategoryPromptThreshold,
		idleTTL:    opts.IdleTTL,
		now:        time.Now,
		sessions:   make(map[string]*Session),
		lastUsed:   make(map[string]time.Time),
	}
}

// Session returns the live session for phone, loading it on first use.
func (m *Manager) Session(ctx context.Context, phone string) (*Session, error) {
	m.mu.Lock()
	now := m.now()
	m.sweepLocked(now)
	sess, ok := m.sessions[phone]
	if ok {
		m.lastUsed[phone] = now
	}
	m.mu.Unlock()
	if ok {
		return sess, nil
	}
	return m.load(ctx, phone)
}

// Forget drops the in-memory session for phone. Queued writes still complete.
func (m *Manager) Forget(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, phone)
	delete(m.lastUsed, phone)
}

// sweepLocked evicts sessions idle for longer than idleTTL, at most twice per
// idleTTL. Sessions still holding unconfirmed writes are kept.
func (m *Manager) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.idleTTL/2 {
		return
	}
	m.lastSweep = now
	for phone, used := range m.lastUsed {
		if now.Sub(used) < m.idleTTL || m.sessions[phone].hasUnconfirmed() {
			continue
		}
		delete(m.sessions, phone)
		delete(m.lastUsed, phone)
	}
}

// Load refreshes the session for phone from storage. Reads are independent;
// when one fails the error wraps ErrLoadFailed and the snapshot holds what was
// read, completed from the snapshot cache where possible.
func (m *Manager) Load(ctx context.Context, phone string) (Snapshot, error) {
	sess, err := m.load(ctx, phone)
	if sess == nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), err
}

// Pending lists temporary ids of writes not yet confirmed by storage.
func (m *Manager) Pending() []string {
	return m.outbox.Pending()
}

// Close drains the outbox.
func (m *Manager) Close(ctx context.Context) error {
	return m.outbox.Close(ctx)
}

func (m *Manager) load(ctx context.Context, phone string) (*Session, error) {
	var (
		errs      []error
		cached    Snapshot
		hasCached bool
		checked   bool
	)
	fallback := func() (Snapshot, bool) {
		if !checked {
			checked = true
			cached, hasCached = m.fetchSnapshot(ctx, phone)
		}
		return cached, hasCached
	}

	user, err := m.identities.Get(ctx, phone)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("identity: %w", err))
		snap, ok := fallback()
		if !ok {
			return nil, loadError(errs)
		}
		return m.install(phone, snap), loadError(errs)
	}

	snap := Snapshot{Identity: user}
	b, bizErr := m.businesses.ForOwner(ctx, user.ID)
	switch {
	case bizErr == nil:
		snap.Business = &b
	case errors.Is(bizErr, business.ErrNotFound):
	default:
		errs = append(errs, fmt.Errorf("business: %w", bizErr))
		if c, ok := fallback(); ok {
			snap.Business = c.Business
			snap.Entries = c.Entries
			snap.Savings = c.Savings
		}
	}

	if bizErr == nil {
		entries, err := m.store.Entries(ctx, b.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("entries: %w", err))
			if c, ok := fallback(); ok {
				entries = c.Entries
			}
		}
		snap.Entries = entries

		savings, err := m.store.Savings(ctx, b.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("savings: %w", err))
			if c, ok := fallback(); ok {
				savings = c.Savings
			}
		}
		snap.Savings = savings
	}

	sess := m.install(phone, snap)
	if len(errs) > 0 {
		return sess, loadError(errs)
	}
	m.saveSnapshot(ctx, sess.Snapshot())
	return sess, nil
}

func loadError(errs []error) error {
	return fmt.Errorf("%w: %w", ErrLoadFailed, errors.Join(errs...))
}

func (m *Manager) install(phone string, snap Snapshot) *Session {
	m.mu.Lock()
	sess, ok := m.sessions[phone]
	if !ok {
		sess = &Session{m: m}
		m.sessions[phone] = sess
	}
	m.lastUsed[phone] = m.now()
	m.mu.Unlock()
	sess.replace(snap)
	return sess
}

func (m *Manager) fetchSnapshot(ctx context.Context, phone string) (Snapshot, bool) {
	if m.cache == nil {
		return Snapshot{}, false
	}
	snap, ok, err := m.cache.Fetch(ctx, phone)
	if err != nil {
		m.logger.Warn("snapshot cache read failed", slog.String("phone", phone), slog.Any("error", err))
		return Snapshot{}, false
	}
	return snap, ok
}

func (m *Manager) saveSnapshot(ctx context.Context, snap Snapshot) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Save(ctx, snap); err != nil {
		m.logger.Warn("snapshot cache write failed", slog.String("phone", snap.Identity.Phone), slog.Any("error", err))
	}
}

func (m *Manager) enqueue(w Write) {
	if err := m.outbox.Enqueue(w); err != nil {
		m.logger.Warn("write left unsynced", slog.String("temp_id", w.TempID), slog.Any("error", err))
	}
}
