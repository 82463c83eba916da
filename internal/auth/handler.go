package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fixhive/fixhive/internal/config"
	"github.com/fixhive/fixhive/internal/httpx"
	"github.com/fixhive/fixhive/internal/identity"
)

// Handler exposes login and the session-consuming profile endpoint.
type Handler struct {
	ids    *identity.Service
	cfg    config.Config
	logger *slog.Logger
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(ids *identity.Service, cfg config.Config, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, cfg: cfg, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, issues the session token as an HTTP-only cookie
// and returns the identity claims in the envelope.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}

	claims, err := h.ids.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrMissingField),
			errors.Is(err, identity.ErrInvalidCredentials),
			errors.Is(err, identity.ErrAccountDisabled):
			return httpx.Fail(c, err.Error())
		default:
			h.logger.Error("login failed", "error", err)
			return httpx.Fail(c, "database error")
		}
	}

	token, exp, err := Sign(claims, h.cfg.JWTSecret, h.cfg.SessionTTL)
	if err != nil {
		h.logger.Error("session token signing failed", "error", err)
		return httpx.Fail(c, "database error")
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   !h.cfg.IsDev(),
	})

	return httpx.Success(c, "login successful", fiber.Map{
		"user_type": claims.Role,
		"name":      claims.Name,
		"email":     claims.Email,
		"user_id":   claims.UserID,
	})
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return httpx.Success(c, "logged out", nil)
}

// Me returns the profile of the authenticated user. Demonstrates the claims
// contract downstream consumers rely on.
func (h *Handler) Me(c *fiber.Ctx) error {
	email, _ := c.Locals("email").(string)
	user, err := h.ids.FindByEmail(c.UserContext(), email)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "user not found")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user_id":    user.ID,
		"name":       user.FullName,
		"email":      user.Email,
		"phone":      user.Phone,
		"address":    user.Address,
		"user_type":  user.Role,
		"created_at": user.CreatedAt,
	})
}
