package otp

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRecord is returned by lookups when no row exists.
var ErrNoRecord = errors.New("otp record not found")

// DB is the subset of pgxpool.Pool the repositories need. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists issued codes in the append-only otp table.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Latest(ctx context.Context, email string, purpose Purpose) (Record, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// ResetRepository persists the single-slot password-reset code per email.
type ResetRepository interface {
	Upsert(ctx context.Context, rec ResetRecord) error
	Get(ctx context.Context, email string) (ResetRecord, error)
	Delete(ctx context.Context, email string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a Postgres-backed otp repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a new code row. Earlier rows for the same email and purpose
// are left in place and superseded by creation-time ordering.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	_, err := r.db.Exec(ctx, `INSERT INTO otp (email, code, purpose, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)`,
		rec.Email, rec.Code, string(rec.Purpose), rec.CreatedAt.UTC(), rec.ExpiresAt.UTC())
	return err
}

// Latest fetches the authoritative row for the email and purpose.
func (r *PostgresRepository) Latest(ctx context.Context, email string, purpose Purpose) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT email, code, purpose, created_at, expires_at FROM otp
        WHERE email = $1 AND purpose = $2 ORDER BY created_at DESC LIMIT 1`,
		email, string(purpose))

	var (
		rec       Record
		p         string
		createdAt time.Time
		expiresAt time.Time
	)
	if err := row.Scan(&rec.Email, &rec.Code, &p, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNoRecord
		}
		return Record{}, err
	}
	rec.Purpose = Purpose(p)
	rec.CreatedAt = createdAt.UTC()
	rec.ExpiresAt = expiresAt.UTC()
	return rec, nil
}

// DeleteByEmail removes every code row for the email regardless of purpose.
func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM otp WHERE email = $1`, email)
	return err
}

// PostgresResetRepository implements ResetRepository using PostgreSQL.
type PostgresResetRepository struct {
	db DB
}

// NewPostgresResetRepository builds a Postgres-backed reset repository.
func NewPostgresResetRepository(db DB) *PostgresResetRepository {
	return &PostgresResetRepository{db: db}
}

// Upsert writes the reset slot, overwriting any previous code for the email.
func (r *PostgresResetRepository) Upsert(ctx context.Context, rec ResetRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO password_reset (email, code, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`,
		rec.Email, rec.Code, rec.ExpiresAt.UTC())
	return err
}

// Get fetches the live reset slot for the email.
func (r *PostgresResetRepository) Get(ctx context.Context, email string) (ResetRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT email, code, expires_at FROM password_reset WHERE email = $1`, email)

	var (
		rec       ResetRecord
		expiresAt time.Time
	)
	if err := row.Scan(&rec.Email, &rec.Code, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResetRecord{}, ErrNoRecord
		}
		return ResetRecord{}, err
	}
	rec.ExpiresAt = expiresAt.UTC()
	return rec, nil
}

// Delete removes the reset slot for the email.
func (r *PostgresResetRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset WHERE email = $1`, email)
	return err
}
