package identity

import "time"

// Roles a marketplace account can hold. Role and the disabled flag are
// mutated by admin tooling, not by this service.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// User is an identity and credential record.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash []byte
	Phone        string
	Address      string
	NationalID   string // optional, unique when present
	Role         string
	Disabled     bool
	CreatedAt    time.Time
}

// RegisterInput carries everything needed to finalize a registration.
type RegisterInput struct {
	Email      string
	FullName   string
	Phone      string
	Address    string
	Password   string
	OTP        string
	NationalID string
	Role       string
}

// Claims are the identity attributes handed to session issuance after a
// successful login.
type Claims struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// ValidRole reports whether the role is one this service accepts at registration.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	default:
		return false
	}
}
