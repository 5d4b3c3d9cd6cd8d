package middleware

import "github.com/gofiber/fiber/v2"

// RequireAdmin allows only accounts holding the admin flag. Must run after
// Auth, which populates the role locals.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
