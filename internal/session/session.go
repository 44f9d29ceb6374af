package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/digishe/digishe/internal/business"
	"github.com/digishe/digishe/internal/identity"
	"github.com/digishe/digishe/internal/ledger"
)

// TempIDPrefix marks identifiers assigned locally before storage confirms a write.
const TempIDPrefix = "tmp_"

var (
	// ErrInvalidAmount is returned for non-numeric or non-positive amounts.
	ErrInvalidAmount = ledger.ErrInvalidAmount
	// ErrBusinessInactive is returned when recording against a missing or unapproved business.
	ErrBusinessInactive = ledger.ErrBusinessInactive
	// ErrLoadFailed wraps storage errors hit while loading a session.
	ErrLoadFailed = errors.New("session storage load failed")
)

// IsTemporary reports whether id was assigned locally and is not yet confirmed by storage.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

func newTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// Prompt carries one-time UI signals raised by a recording.
type Prompt struct {
	OfferCustomCategory bool
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	Identity         identity.User
	Business         *business.Business
	Entries          []ledger.Entry
	Savings          []ledger.Saving
	EntryCount       int
	CategoryPrompted bool
}

// OnboardingInput captures the business details entered during onboarding.
type OnboardingInput = business.CreateInput

// Session is the in-memory ledger of one authenticated identity. Mutations are
// applied locally first and persisted through the manager's outbox.
type Session struct {
	m *Manager

	mu       sync.Mutex
	identity identity.User
	business *business.Business
	entries  []ledger.Entry
	savings  []ledger.Saving
	count    int
	prompted bool

	// confirmed holds storage ids reconciled locally that no load has returned yet.
	confirmed map[string]struct{}
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Identity:         s.identity,
		Entries:          append([]ledger.Entry(nil), s.entries...),
		Savings:          append([]ledger.Saving(nil), s.savings...),
		EntryCount:       s.count,
		CategoryPrompted: s.prompted,
	}
	if s.business != nil {
		b := *s.business
		snap.Business = &b
	}
	return snap
}

// CompleteOnboarding creates the identity's business and then marks the
// identity onboarded. When the second write fails the business is kept and
// calling CompleteOnboarding again only retries the flag.
func (s *Session) CompleteOnboarding(ctx context.Context, in OnboardingInput) (business.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.business == nil {
		in.OwnerID = s.identity.ID
		in.OwnerPhone = s.identity.Phone
		b, err := s.m.businesses.Create(ctx, in)
		if errors.Is(err, business.ErrBusinessExists) {
			b, err = s.m.businesses.ForOwner(ctx, s.identity.ID)
		}
		if err != nil {
			return business.Business{}, err
		}
		s.business = &b
	}
	b := *s.business

	if !s.identity.HasCompletedOnboarding {
		if err := s.m.identities.MarkOnboarded(ctx, s.identity.ID); err != nil {
			s.m.saveSnapshot(ctx, s.snapshotLocked())
			return b, fmt.Errorf("%w: %w", business.ErrOnboardingIncomplete, err)
		}
		s.identity.HasCompletedOnboarding = true
	}
	s.m.saveSnapshot(ctx, s.snapshotLocked())
	return b, nil
}

// RecordEntry appends a sale or expense immediately and queues its storage
// write. The caller does not wait for storage.
func (s *Session) RecordEntry(ctx context.Context, kind, amount, category string) (ledger.Entry, Prompt, error) {
	k, err := ledger.ParseKind(kind)
	if err != nil {
		return ledger.Entry{}, Prompt{}, err
	}
	value, err := ledger.ParseAmount(amount)
	if err != nil {
		return ledger.Entry{}, Prompt{}, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return ledger.Entry{}, Prompt{}, ledger.ErrInvalidCategory
	}

	s.mu.Lock()
	b, err := s.activeBusinessLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return ledger.Entry{}, Prompt{}, err
	}
	e := ledger.Entry{
		ID:         newTempID(),
		BusinessID: b.ID,
		Kind:       k,
		Amount:     value,
		Category:   category,
		OccurredOn: ledger.Day(s.m.now()),
	}
	s.entries = append(s.entries, e)
	prompt := s.bumpLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.m.saveSnapshot(ctx, snap)
	s.m.enqueue(Write{
		Lane:   b.ID,
		TempID: e.ID,
		Apply: func(ctx context.Context) (string, error) {
			stored, err := s.m.store.InsertEntry(ctx, e)
			return stored.ID, err
		},
		Reconcile: func(storageID string) { s.reconcileEntry(e.ID, storageID) },
	})
	return e, prompt, nil
}

// RecordSaving appends a saving immediately and queues its storage write.
func (s *Session) RecordSaving(ctx context.Context, amount, destination string) (ledger.Saving, Prompt, error) {
	value, err := ledger.ParseAmount(amount)
	if err != nil {
		return ledger.Saving{}, Prompt{}, err
	}
	dest, err := ledger.ParseDestination(destination)
	if err != nil {
		return ledger.Saving{}, Prompt{}, err
	}

	s.mu.Lock()
	b, err := s.activeBusinessLocked(ctx)
	if err != nil {
		s.mu.Unlock()
		return ledger.Saving{}, Prompt{}, err
	}
	sv := ledger.Saving{
		ID:          newTempID(),
		BusinessID:  b.ID,
		Amount:      value,
		Destination: dest,
		OccurredOn:  ledger.Day(s.m.now()),
	}
	s.savings = append(s.savings, sv)
	prompt := s.bumpLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.m.saveSnapshot(ctx, snap)
	s.m.enqueue(Write{
		Lane:   b.ID,
		TempID: sv.ID,
		Apply: func(ctx context.Context) (string, error) {
			stored, err := s.m.store.InsertSaving(ctx, sv)
			return stored.ID, err
		},
		Reconcile: func(storageID string) { s.reconcileSaving(sv.ID, storageID) },
	})
	return sv, prompt, nil
}

// activeBusinessLocked returns the session's business when it is active. An
// inactive copy is re-read once so an admin approval is picked up without a reload.
func (s *Session) activeBusinessLocked(ctx context.Context) (business.Business, error) {
	if s.business == nil {
		return business.Business{}, ErrBusinessInactive
	}
	if !s.business.IsActive {
		fresh, err := s.m.businesses.Get(ctx, s.business.ID)
		if err != nil {
			return business.Business{}, ErrBusinessInactive
		}
		s.business = &fresh
	}
	if !s.business.IsActive {
		return business.Business{}, ErrBusinessInactive
	}
	return *s.business, nil
}

func (s *Session) bumpLocked() Prompt {
	s.count++
	if !s.prompted && s.count >= s.m.threshold {
		s.prompted = true
		return Prompt{OfferCustomCategory: true}
	}
	return Prompt{}
}

func (s *Session) reconcileEntry(tempID, storageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := -1
	for i, e := range s.entries {
		if e.ID == storageID {
			// a reload already brought the stored copy in
			if j := indexOfEntry(s.entries, tempID); j >= 0 {
				s.entries = append(s.entries[:j], s.entries[j+1:]...)
			}
			return
		}
		if e.ID == tempID {
			at = i
		}
	}
	if at >= 0 {
		s.entries[at].ID = storageID
		s.confirmLocked(storageID)
	}
}

func (s *Session) reconcileSaving(tempID, storageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := -1
	for i, sv := range s.savings {
		if sv.ID == storageID {
			if j := indexOfSaving(s.savings, tempID); j >= 0 {
				s.savings = append(s.savings[:j], s.savings[j+1:]...)
			}
			return
		}
		if sv.ID == tempID {
			at = i
		}
	}
	if at >= 0 {
		s.savings[at].ID = storageID
		s.confirmLocked(storageID)
	}
}

func indexOfEntry(entries []ledger.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func indexOfSaving(savings []ledger.Saving, id string) int {
	for i, sv := range savings {
		if sv.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) hasUnconfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if IsTemporary(e.ID) {
			return true
		}
	}
	for _, sv := range s.savings {
		if IsTemporary(sv.ID) {
			return true
		}
	}
	return false
}

func (s *Session) confirmLocked(storageID string) {
	if s.confirmed == nil {
		s.confirmed = make(map[string]struct{})
	}
	s.confirmed[storageID] = struct{}{}
}

// replace installs freshly loaded state, keeping local entries whose writes
// are not yet confirmed and confirmed entries the load did not see yet.
func (s *Session) replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = snap.Identity
	s.business = snap.Business
	s.entries = mergeEntries(snap.Entries, s.entries, s.keepLocal)
	s.savings = mergeSavings(snap.Savings, s.savings, s.keepLocal)
	for _, e := range snap.Entries {
		delete(s.confirmed, e.ID)
	}
	for _, sv := range snap.Savings {
		delete(s.confirmed, sv.ID)
	}
	if snap.EntryCount > s.count {
		s.count = snap.EntryCount
	}
	s.prompted = s.prompted || snap.CategoryPrompted
}

func (s *Session) keepLocal(id string) bool {
	if IsTemporary(id) {
		return true
	}
	_, ok := s.confirmed[id]
	return ok
}

func mergeEntries(loaded, local []ledger.Entry, keep func(string) bool) []ledger.Entry {
	out := append([]ledger.Entry(nil), loaded...)
	for _, e := range local {
		if keep(e.ID) && indexOfEntry(out, e.ID) < 0 {
			out = append(out, e)
		}
	}
	return out
}

func mergeSavings(loaded, local []ledger.Saving, keep func(string) bool) []ledger.Saving {
	out := append([]ledger.Saving(nil), loaded...)
	for _, sv := range local {
		if keep(sv.ID) && indexOfSaving(out, sv.ID) < 0 {
			out = append(out, sv)
		}
	}
	return out
}
