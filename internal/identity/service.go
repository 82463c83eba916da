package identity

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixhive/fixhive/internal/otp"
)

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Service manages the account lifecycle: OTP-verified registration, login and
// password reset. Session issuance sits on top of the Claims it returns.
type Service struct {
	repo   Repository
	otps   *otp.Service
	logger *slog.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, otps *otp.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, otps: otps, logger: logger}
}

// RequestRegistrationOTP issues and mails a registration code. No account
// existence check: the email is not yet registered at this point.
func (s *Service) RequestRegistrationOTP(ctx context.Context, email string) error {
	email = otp.NormalizeEmail(email)
	if email == "" {
		return ErrMissingField
	}
	_, err := s.otps.Issue(ctx, email, otp.PurposeRegistration)
	return err
}

// VerifyRegistrationOTP checks a registration code without consuming it,
// keeping not-found, expired and mismatch outcomes distinguishable.
func (s *Service) VerifyRegistrationOTP(ctx context.Context, email, code string) error {
	email = otp.NormalizeEmail(email)
	if email == "" || code == "" {
		return ErrMissingField
	}
	outcome, err := s.otps.Verify(ctx, email, otp.PurposeRegistration, code)
	if err != nil {
		return err
	}
	return outcomeErr(outcome)
}

// Register finalizes a registration: re-verifies the registration code, hashes
// the password and inserts the user, then clears the email's codes. The
// verify-insert-delete sequence is not transactional; a crash leaves a stale
// code row that is superseded on reissue, and the unique email constraint
// turns a racing duplicate insert into ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Email = otp.NormalizeEmail(input.Email)
	if input.Email == "" || input.FullName == "" || input.Phone == "" ||
		input.Address == "" || input.Password == "" || input.OTP == "" {
		return User{}, ErrMissingField
	}

	outcome, err := s.otps.Verify(ctx, input.Email, otp.PurposeRegistration, input.OTP)
	if err != nil {
		return User{}, err
	}
	if err := outcomeErr(outcome); err != nil {
		return User{}, err
	}

	role := input.Role
	if role == "" {
		role = RoleCustomer
	}
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrRegistrationFailed, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        input.Phone,
		Address:      input.Address,
		NationalID:   input.NationalID,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	if err := s.otps.PurgeEmail(ctx, user.Email); err != nil {
		// Registration already succeeded; a leftover code row is harmless.
		s.logger.Warn("otp cleanup after registration failed", "email", user.Email, "error", err)
	}

	return user, nil
}

// RequestPasswordReset issues and mails a reset code, overwriting any live
// one. Reports ErrUserNotFound when no account matches; the reset channel
// deliberately reveals account existence.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = otp.NormalizeEmail(email)
	if email == "" {
		return ErrMissingField
	}

	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		return err
	}

	_, err := s.otps.IssueReset(ctx, email)
	return err
}

// VerifyPasswordResetOTP checks a reset code without consuming it.
func (s *Service) VerifyPasswordResetOTP(ctx context.Context, email, code string) error {
	email = otp.NormalizeEmail(email)
	if email == "" || code == "" {
		return ErrMissingField
	}
	outcome, err := s.otps.VerifyReset(ctx, email, code)
	if err != nil {
		return err
	}
	return outcomeErr(outcome)
}

// ResetPassword verifies the reset code (expiry included), stores a new
// bcrypt hash and consumes the reset slot. Non-valid outcomes collapse into
// ErrResetCodeRejected on this channel.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = otp.NormalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingField
	}
	if !emailRx.MatchString(email) {
		return ErrInvalidEmail
	}

	outcome, err := s.otps.VerifyReset(ctx, email, code)
	if err != nil {
		return err
	}
	if outcome != otp.Valid {
		return ErrResetCodeRejected
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePasswordByEmail(ctx, email, hash); err != nil {
		return err
	}

	if err := s.otps.ConsumeReset(ctx, email); err != nil {
		s.logger.Warn("reset slot cleanup failed", "email", email, "error", err)
	}

	return nil
}

// Authenticate verifies credentials and returns session claims. Unknown email
// and wrong password yield the same ErrInvalidCredentials so callers cannot
// probe for accounts; the disabled flag is checked only after the hash
// verifies.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Claims, error) {
	email = otp.NormalizeEmail(email)
	if email == "" || password == "" {
		return Claims{}, ErrMissingField
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			return Claims{}, ErrInvalidCredentials
		}
		return Claims{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return Claims{}, ErrInvalidCredentials
	}

	if user.Disabled {
		return Claims{}, ErrAccountDisabled
	}

	return Claims{UserID: user.ID, Name: user.FullName, Email: user.Email, Role: user.Role}, nil
}

// FindByEmail exposes user lookup for session-side consumers.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, otp.NormalizeEmail(email))
}

func outcomeErr(outcome otp.Outcome) error {
	switch outcome {
	case otp.Valid:
		return nil
	case otp.Expired:
		return ErrOTPExpired
	case otp.NotFound:
		return ErrOTPNotFound
	default:
		return ErrOTPInvalid
	}
}
