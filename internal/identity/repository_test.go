package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func testUser() User {
	return User{
		ID:           "4f8c6b9a-0d2e-4d51-9a2f-3bb1c9f7e812",
		FullName:     "Alice Perera",
		Email:        "alice@example.com",
		PasswordHash: []byte("$2a$10$abcdefghijklmnopqrstuv"),
		Phone:        "+94771234567",
		Address:      "12 Galle Road, Colombo",
		Role:         RoleCustomer,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	user := testUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.FullName, user.Email, user.PasswordHash, user.Phone,
			user.Address, pgxmock.AnyArg(), user.Role, user.Disabled, user.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepositoryCreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err = repo.Create(context.Background(), testUser())
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgresRepositoryFindByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	user := testUser()
	nic := "199012345678"

	mock.ExpectQuery("SELECT id, full_name, email, password_hash, phone, address, nic, role, disabled, created_at").
		WithArgs(user.Email).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "email", "password_hash", "phone", "address", "nic", "role", "disabled", "created_at"}).
			AddRow(user.ID, user.FullName, user.Email, user.PasswordHash, user.Phone,
				user.Address, &nic, user.Role, false, user.CreatedAt))

	got, err := repo.FindByEmail(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != user.ID || got.NationalID != nic || got.Disabled {
		t.Fatalf("unexpected user: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepositoryFindByEmailNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT id, full_name, email").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPostgresRepositoryUpdatePassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	hash := []byte("$2a$10$newhashnewhashnewhashne")

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs(hash, "alice@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePasswordByEmail(context.Background(), "alice@example.com", hash); err != nil {
		t.Fatalf("update: %v", err)
	}

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs(hash, "nobody@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdatePasswordByEmail(context.Background(), "nobody@example.com", hash)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
