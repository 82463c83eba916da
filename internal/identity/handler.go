package identity

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fixhive/fixhive/internal/httpx"
	"github.com/fixhive/fixhive/internal/mail"
	"github.com/fixhive/fixhive/internal/otp"
)

// Handler exposes the account endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
	NIC      string `json:"nic"`
	UserType string `json:"userType"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// RequestRegistrationOTP mails a registration code to the address.
func (h *Handler) RequestRegistrationOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	if err := h.service.RequestRegistrationOTP(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return httpx.Success(c, "otp sent to email", nil)
}

// VerifyRegistrationOTP reports whether a registration code is currently valid.
func (h *Handler) VerifyRegistrationOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	if err := h.service.VerifyRegistrationOTP(c.UserContext(), req.Email, req.Code); err != nil {
		return h.fail(c, err)
	}
	return httpx.Success(c, "otp verified", nil)
}

// Register finalizes an OTP-verified registration.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	user, err := h.service.Register(c.UserContext(), RegisterInput{
		Email:      req.Email,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Address:    req.Address,
		Password:   req.Password,
		OTP:        req.OTP,
		NationalID: req.NIC,
		Role:       req.UserType,
	})
	if err != nil {
		return h.fail(c, err)
	}
	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return httpx.Success(c, "registration successful", nil)
}

// RequestPasswordReset mails a reset code, overwriting any live one.
func (h *Handler) RequestPasswordReset(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	if err := h.service.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return httpx.Success(c, "otp sent to email", nil)
}

// VerifyPasswordResetOTP reports whether a reset code is currently valid.
func (h *Handler) VerifyPasswordResetOTP(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	if err := h.service.VerifyPasswordResetOTP(c.UserContext(), req.Email, req.Code); err != nil {
		return h.fail(c, err)
	}
	return httpx.Success(c, "otp verified", nil)
}

// ResetPassword changes the credential after a valid reset code.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Fail(c, "invalid request body")
	}
	if err := h.service.ResetPassword(c.UserContext(), req.Email, req.OTP, req.NewPassword); err != nil {
		return h.fail(c, err)
	}
	return httpx.Success(c, "password reset successful", nil)
}

// fail maps domain errors onto envelope messages. Unrecognized errors are
// reported generically and logged with detail server-side.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRegistrationFailed),
		errors.Is(err, ErrOTPNotFound),
		errors.Is(err, ErrOTPExpired),
		errors.Is(err, ErrOTPInvalid),
		errors.Is(err, ErrResetCodeRejected),
		errors.Is(err, otp.ErrRateLimited):
		return httpx.Fail(c, err.Error())
	case errors.Is(err, mail.ErrDelivery):
		return httpx.Fail(c, "failed to send otp email")
	default:
		h.logger.Error("account operation failed", "path", c.Path(), "error", err)
		return httpx.Fail(c, "database error")
	}
}
