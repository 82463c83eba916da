package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixhive/fixhive/internal/auth"
)

// SessionAuth validates the session token from the HTTP-only cookie, falling
// back to a bearer Authorization header, and stores the claims in locals.
func SessionAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(auth.CookieName)
		if tokenStr == "" {
			authz := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				tokenStr = strings.TrimSpace(authz[len("Bearer "):])
			}
		}
		if tokenStr == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing session token")
		}

		claims, err := auth.Parse(tokenStr, secret)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid session token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("user_type", claims.UserType)
		return c.Next()
	}
}
