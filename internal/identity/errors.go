package identity

import "errors"

// Domain errors surfaced by the account flows. Handlers map these to the JSON
// envelope; anything else is reported as a generic database error.
var (
	ErrMissingField       = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrRegistrationFailed = errors.New("registration failed")

	ErrOTPNotFound = errors.New("no otp found for this email")
	ErrOTPExpired  = errors.New("otp has expired")
	ErrOTPInvalid  = errors.New("incorrect otp")

	// ErrResetCodeRejected is the unified reset-channel error; that channel
	// does not reveal whether the code was missing, wrong or expired.
	ErrResetCodeRejected = errors.New("invalid or expired otp")
)
