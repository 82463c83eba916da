package otp

import "time"

// Purpose scopes why a code was issued and which flows may verify it.
type Purpose string

const (
	PurposeRegistration      Purpose = "registration"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailVerification Purpose = "email_verification"
)

// Record is one issued code in the append-only otp table. For a given
// (email, purpose) only the most recently created record is authoritative;
// older rows are superseded and ignored by recency ordering.
type Record struct {
	Email     string
	Code      string
	Purpose   Purpose
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResetRecord is the single live password-reset code for an email. The table
// is unique on email; issuing again overwrites code and expiry in place.
type ResetRecord struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Outcome is the result of verifying a submitted code.
type Outcome int

const (
	// Valid means the code matched the authoritative record inside its expiry window.
	Valid Outcome = iota
	// Invalid means a record exists but the submitted code does not match.
	Invalid
	// Expired means the code matched but its expiry timestamp has passed.
	Expired
	// NotFound means no record exists for the email (and purpose).
	NotFound
)

// String implements fmt.Stringer for logging.
func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
