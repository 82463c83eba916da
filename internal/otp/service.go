package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/fixhive/fixhive/internal/mail"
)

const codeDigits = 6

// Service issues and verifies one-time codes. Registration and
// email-verification codes live in the append-only otp table; password-reset
// codes occupy a single overwritable slot per email.
type Service struct {
	repo      Repository
	resetRepo ResetRepository
	mailer    mail.Mailer
	limiter   *Limiter
	ttl       time.Duration
	logger    *slog.Logger

	now func() time.Time // test hook
}

// NewService builds an otp service. limiter may be nil to disable throttling.
func NewService(repo Repository, resetRepo ResetRepository, mailer mail.Mailer, limiter *Limiter, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resetRepo: resetRepo,
		mailer:    mailer,
		limiter:   limiter,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Issue generates a code for the email and purpose, persists it and dispatches
// it by mail. The row is kept even when delivery fails; the transport error is
// returned so the caller can report it.
func (s *Service) Issue(ctx context.Context, email string, purpose Purpose) (Record, error) {
	email = NormalizeEmail(email)

	if err := s.limiter.CanRequest(ctx, email, purpose); err != nil {
		return Record{}, err
	}

	code, err := randomCode(codeDigits)
	if err != nil {
		return Record{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now().UTC()
	rec := Record{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}

	if err := s.deliver(ctx, rec.Email, rec.Code); err != nil {
		return rec, err
	}
	return rec, nil
}

// IssueReset generates a reset code for the email and overwrites the single
// reset slot, invalidating any previously issued reset code.
func (s *Service) IssueReset(ctx context.Context, email string) (ResetRecord, error) {
	email = NormalizeEmail(email)

	if err := s.limiter.CanRequest(ctx, email, PurposePasswordReset); err != nil {
		return ResetRecord{}, err
	}

	code, err := randomCode(codeDigits)
	if err != nil {
		return ResetRecord{}, fmt.Errorf("generate code: %w", err)
	}

	rec := ResetRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.resetRepo.Upsert(ctx, rec); err != nil {
		return ResetRecord{}, err
	}

	if err := s.deliver(ctx, rec.Email, rec.Code); err != nil {
		return rec, err
	}
	return rec, nil
}

// Verify checks a submitted code against the authoritative record for the
// email and purpose. Codes are compared as opaque strings so zero-padding is
// preserved; expiry is compared in UTC.
func (s *Service) Verify(ctx context.Context, email string, purpose Purpose, code string) (Outcome, error) {
	email = NormalizeEmail(email)

	rec, err := s.repo.Latest(ctx, email, purpose)
	if err != nil {
		if err == ErrNoRecord {
			return NotFound, nil
		}
		return NotFound, err
	}
	return s.check(rec.Code, rec.ExpiresAt, code), nil
}

// VerifyReset checks a submitted code against the single reset slot. Expiry is
// always enforced here, for every reset path.
func (s *Service) VerifyReset(ctx context.Context, email, code string) (Outcome, error) {
	email = NormalizeEmail(email)

	rec, err := s.resetRepo.Get(ctx, email)
	if err != nil {
		if err == ErrNoRecord {
			return NotFound, nil
		}
		return NotFound, err
	}
	return s.check(rec.Code, rec.ExpiresAt, code), nil
}

// PurgeEmail removes every code for the email, any purpose. Called after a
// successful registration.
func (s *Service) PurgeEmail(ctx context.Context, email string) error {
	return s.repo.DeleteByEmail(ctx, NormalizeEmail(email))
}

// ConsumeReset deletes the reset slot after a successful password change.
func (s *Service) ConsumeReset(ctx context.Context, email string) error {
	return s.resetRepo.Delete(ctx, NormalizeEmail(email))
}

func (s *Service) check(stored string, expiresAt time.Time, submitted string) Outcome {
	if stored != submitted {
		return Invalid
	}
	if s.now().UTC().After(expiresAt) {
		return Expired
	}
	return Valid
}

func (s *Service) deliver(ctx context.Context, email, code string) error {
	minutes := int(s.ttl.Minutes())
	msg := mail.Message{
		To:      email,
		Subject: "Your FixHive verification code",
		Body: fmt.Sprintf(
			"<p>Your verification code is <b>%s</b>.</p><p>It expires in %d minutes. If you did not request it, ignore this email.</p>",
			code, minutes),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		if s.logger != nil {
			s.logger.Error("otp mail dispatch failed", "email", email, "error", err)
		}
		return err
	}
	return nil
}

// NormalizeEmail lowercases and trims an address. Every lookup and write keys
// on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// randomCode returns a uniformly random zero-padded numeric string.
func randomCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
