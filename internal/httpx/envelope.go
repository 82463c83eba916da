// Package httpx carries the JSON response envelope shared by every endpoint.
//
// Domain outcomes, including failures, are reported as HTTP 200 with a
// status field; existing consumers branch on "status", not on the HTTP code.
package httpx

import "github.com/gofiber/fiber/v2"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Success writes a success envelope, merging any extra fields into the body.
func Success(c *fiber.Ctx, message string, extra fiber.Map) error {
	body := fiber.Map{"status": statusSuccess, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// Fail writes an error envelope.
func Fail(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": statusError, "message": message})
}
