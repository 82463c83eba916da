package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fixhive/fixhive/internal/identity"
)

// CookieName is the HTTP-only cookie carrying the session token.
const CookieName = "token"

// SessionClaims is the claim set downstream services consume.
type SessionClaims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	UserType   string `json:"user_type"`
	ProviderID string `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// Sign produces an HS256 session token for the authenticated identity.
// Provider accounts additionally carry a provider_id claim.
func Sign(ident identity.Claims, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := SessionClaims{
		UserID:   ident.UserID,
		Email:    ident.Email,
		UserType: ident.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if ident.Role == identity.RoleProvider {
		claims.ProviderID = ident.UserID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates a session token and returns its claims.
func Parse(tokenStr, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
