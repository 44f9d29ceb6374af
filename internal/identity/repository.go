package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists identities keyed by canonical phone number.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	// FindOrCreate returns the identity for user.Phone, inserting user when
	// none exists. It is atomic: concurrent callers for one phone observe a
	// single identity.
	FindOrCreate(ctx context.Context, user User) (User, bool, error)
	MarkOnboarded(ctx context.Context, id string) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	UpdateTokenVersion(ctx context.Context, id string, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, phone, name, is_admin, has_completed_onboarding, token_version, created_at`

// FindByPhone fetches an identity by canonical phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM profiles WHERE phone = $1`, phone)
	return scanUser(row)
}

// FindByID fetches an identity by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM profiles WHERE id = $1`, userID)
	return scanUser(row)
}

// FindOrCreate upserts on the unique phone column. The no-op update makes
// RETURNING yield the existing row; xmax = 0 only for freshly inserted rows.
func (r *PostgresRepository) FindOrCreate(ctx context.Context, user User) (User, bool, error) {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return User{}, false, err
	}
	row := r.db.QueryRow(ctx, `INSERT INTO profiles (id, phone, name, is_admin, has_completed_onboarding, token_version, created_at)
        VALUES ($1, $2, $3, false, false, 0, $4)
        ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
        RETURNING `+userColumns+`, (xmax = 0) AS inserted`,
		userID, user.Phone, user.Name, user.CreatedAt.UTC())

	var (
		id        uuid.UUID
		createdAt time.Time
		out       User
		inserted  bool
	)
	if err := row.Scan(&id, &out.Phone, &out.Name, &out.IsAdmin, &out.HasCompletedOnboarding, &out.TokenVersion, &createdAt, &inserted); err != nil {
		return User{}, false, err
	}
	out.ID = id.String()
	out.CreatedAt = createdAt.UTC()
	return out, inserted, nil
}

// MarkOnboarded flips has_completed_onboarding on.
func (r *PostgresRepository) MarkOnboarded(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE profiles SET has_completed_onboarding = true WHERE id = $1`, id)
}

// SetAdmin grants or revokes admin rights.
func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	return r.update(ctx, `UPDATE profiles SET is_admin = $2 WHERE id = $1`, id, admin)
}

// UpdateTokenVersion stores the token version used to invalidate issued tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	return r.update(ctx, `UPDATE profiles SET token_version = $2 WHERE id = $1`, id, version)
}

func (r *PostgresRepository) update(ctx context.Context, query, id string, args ...any) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Phone, &user.Name, &user.IsAdmin, &user.HasCompletedOnboarding, &user.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
