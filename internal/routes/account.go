package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixhive/fixhive/internal/identity"
)

// RegisterAccountRoutes wires registration and password-reset endpoints.
func RegisterAccountRoutes(r fiber.Router, h *identity.Handler) {
	reg := r.Group("/auth/register")
	reg.Post("/otp", h.RequestRegistrationOTP)
	reg.Post("/verify-otp", h.VerifyRegistrationOTP)
	reg.Post("/", h.Register)

	pw := r.Group("/auth/password")
	pw.Post("/forgot", h.RequestPasswordReset)
	pw.Post("/verify-otp", h.VerifyPasswordResetOTP)
	pw.Post("/reset", h.ResetPassword)
}
