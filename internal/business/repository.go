package business

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists businesses.
type Repository interface {
	Create(ctx context.Context, b Business) error
	FindByID(ctx context.Context, id string) (Business, error)
	FindByOwner(ctx context.Context, ownerID string) (Business, error)
	List(ctx context.Context) ([]Business, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// PostgresRepository stores businesses in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectBusiness = `SELECT b.id, b.user_id, p.phone, b.name, b.type, COALESCE(b.location, ''), b.is_active, b.start_date, b.created_at
        FROM businesses b INNER JOIN profiles p ON p.id = b.user_id`

// Create inserts a business. The unique owner column enforces one business per identity.
func (r *PostgresRepository) Create(ctx context.Context, b Business) error {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(b.OwnerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO businesses (id, user_id, name, type, location, is_active, start_date, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		id, ownerID, b.Name, string(b.Category), b.Location, b.IsActive, b.StartDate, b.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrBusinessExists
	}
	return err
}

// FindByID fetches a business by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Business, error) {
	bid, err := uuid.Parse(id)
	if err != nil {
		return Business{}, ErrNotFound
	}
	return scanBusiness(r.db.QueryRow(ctx, selectBusiness+` WHERE b.id = $1`, bid))
}

// FindByOwner fetches the business owned by the identity.
func (r *PostgresRepository) FindByOwner(ctx context.Context, ownerID string) (Business, error) {
	oid, err := uuid.Parse(ownerID)
	if err != nil {
		return Business{}, ErrNotFound
	}
	return scanBusiness(r.db.QueryRow(ctx, selectBusiness+` WHERE b.user_id = $1`, oid))
}

// List returns every business, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Business, error) {
	rows, err := r.db.Query(ctx, selectBusiness+` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetActive flips the activation flag.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	bid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE businesses SET is_active = $1 WHERE id = $2`, active, bid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBusiness(row pgx.Row) (Business, error) {
	var (
		id, ownerID uuid.UUID
		category    string
		createdAt   time.Time
		b           Business
	)
	if err := row.Scan(&id, &ownerID, &b.OwnerPhone, &b.Name, &category, &b.Location, &b.IsActive, &b.StartDate, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, ErrNotFound
		}
		return Business{}, err
	}
	b.ID = id.String()
	b.OwnerID = ownerID.String()
	b.Category = Category(category)
	b.CreatedAt = createdAt.UTC()
	return b, nil
}
