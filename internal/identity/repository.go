package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	UpdatePasswordByEmail(ctx context.Context, email string, hash []byte) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A unique-constraint race on email surfaces as
// ErrDuplicateEmail rather than a raw driver error.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	var nic *string
	if user.NationalID != "" {
		nic = &user.NationalID
	}
	tag, err := r.db.Exec(ctx, `INSERT INTO users (id, full_name, email, password_hash, phone, address, nic, role, disabled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.FullName, user.Email, user.PasswordHash, user.Phone, user.Address, nic, user.Role, user.Disabled, user.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRegistrationFailed
	}
	return nil
}

// FindByEmail fetches a user by normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, full_name, email, password_hash, phone, address, nic, role, disabled, created_at
        FROM users WHERE email = $1`, email)

	var (
		user      User
		nic       *string
		createdAt time.Time
	)
	if err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Phone,
		&user.Address, &nic, &user.Role, &user.Disabled, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	if nic != nil {
		user.NationalID = *nic
	}
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

// UpdatePasswordByEmail replaces the stored credential hash.
func (r *PostgresRepository) UpdatePasswordByEmail(ctx context.Context, email string, hash []byte) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE email = $2`, hash, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
