package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepositoryCreateAndLatest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Email:     "alice@example.com",
		Code:      "042917",
		Purpose:   PurposeRegistration,
		CreatedAt: created,
		ExpiresAt: created.Add(10 * time.Minute),
	}

	mock.ExpectExec("INSERT INTO otp").
		WithArgs(rec.Email, rec.Code, string(rec.Purpose), rec.CreatedAt, rec.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	mock.ExpectQuery("SELECT email, code, purpose, created_at, expires_at FROM otp").
		WithArgs(rec.Email, string(rec.Purpose)).
		WillReturnRows(pgxmock.NewRows([]string{"email", "code", "purpose", "created_at", "expires_at"}).
			AddRow(rec.Email, rec.Code, string(rec.Purpose), rec.CreatedAt, rec.ExpiresAt))

	got, err := repo.Latest(ctx, rec.Email, rec.Purpose)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Code != rec.Code || got.Purpose != rec.Purpose {
		t.Fatalf("unexpected record: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepositoryLatestNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT email, code, purpose, created_at, expires_at FROM otp").
		WithArgs("nobody@example.com", string(PurposeRegistration)).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Latest(context.Background(), "nobody@example.com", PurposeRegistration)
	if !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestPostgresResetRepositoryRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresResetRepository(mock)
	ctx := context.Background()

	expires := time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC)
	rec := ResetRecord{Email: "alice@example.com", Code: "042917", ExpiresAt: expires}

	mock.ExpectExec("INSERT INTO password_reset").
		WithArgs(rec.Email, rec.Code, rec.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	mock.ExpectQuery("SELECT email, code, expires_at FROM password_reset").
		WithArgs(rec.Email).
		WillReturnRows(pgxmock.NewRows([]string{"email", "code", "expires_at"}).
			AddRow(rec.Email, rec.Code, rec.ExpiresAt))

	got, err := repo.Get(ctx, rec.Email)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != rec.Code {
		t.Fatalf("unexpected record: %+v", got)
	}

	mock.ExpectExec("DELETE FROM password_reset").
		WithArgs(rec.Email).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(ctx, rec.Email); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresResetRepositoryGetNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresResetRepository(mock)

	mock.ExpectQuery("SELECT email, code, expires_at FROM password_reset").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Get(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}
