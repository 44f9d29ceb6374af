package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists entries and savings in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertEntry writes e when its business is active.
func (s *PostgresStore) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	businessID, err := uuid.Parse(e.BusinessID)
	if err != nil {
		return Entry{}, ErrBusinessInactive
	}
	id := uuid.New()
	cmd, err := s.db.Exec(ctx, `INSERT INTO transactions (id, business_id, type, amount, category, date)
        SELECT $1, b.id, $3, $4, $5, $6 FROM businesses b WHERE b.id = $2 AND b.is_active`,
		id, businessID, string(e.Kind), e.Amount, e.Category, Day(e.OccurredOn))
	if err != nil {
		return Entry{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Entry{}, ErrBusinessInactive
	}
	e.ID = id.String()
	return e, nil
}

// InsertSaving writes sv when its business is active.
func (s *PostgresStore) InsertSaving(ctx context.Context, sv Saving) (Saving, error) {
	businessID, err := uuid.Parse(sv.BusinessID)
	if err != nil {
		return Saving{}, ErrBusinessInactive
	}
	id := uuid.New()
	cmd, err := s.db.Exec(ctx, `INSERT INTO savings (id, business_id, amount, destination, date)
        SELECT $1, b.id, $3, $4, $5 FROM businesses b WHERE b.id = $2 AND b.is_active`,
		id, businessID, sv.Amount, string(sv.Destination), Day(sv.OccurredOn))
	if err != nil {
		return Saving{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Saving{}, ErrBusinessInactive
	}
	sv.ID = id.String()
	return sv, nil
}

// Entries lists a business's entries in recording order.
func (s *PostgresStore) Entries(ctx context.Context, businessID string) ([]Entry, error) {
	bid, err := uuid.Parse(businessID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, type, amount, category, date FROM transactions
        WHERE business_id = $1 ORDER BY date, created_at`, bid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			id     uuid.UUID
			kind   string
			amount decimal.Decimal
			date   time.Time
			e      Entry
		)
		if err := rows.Scan(&id, &kind, &amount, &e.Category, &date); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.BusinessID = businessID
		e.Kind = Kind(kind)
		e.Amount = amount
		e.OccurredOn = Day(date)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Savings lists a business's savings in recording order.
func (s *PostgresStore) Savings(ctx context.Context, businessID string) ([]Saving, error) {
	bid, err := uuid.Parse(businessID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, amount, destination, date FROM savings
        WHERE business_id = $1 ORDER BY date, created_at`, bid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Saving
	for rows.Next() {
		var (
			id          uuid.UUID
			amount      decimal.Decimal
			destination string
			date        time.Time
		)
		if err := rows.Scan(&id, &amount, &destination, &date); err != nil {
			return nil, err
		}
		out = append(out, Saving{
			ID:          id.String(),
			BusinessID:  businessID,
			Amount:      amount,
			Destination: Destination(destination),
			OccurredOn:  Day(date),
		})
	}
	return out, rows.Err()
}
