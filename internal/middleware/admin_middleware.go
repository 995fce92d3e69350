package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminTokenHeader carries the back-office token.
const AdminTokenHeader = "X-Admin-Token"

// AdminRequired lets a request through only when it carries the admin token.
// An empty configured token disables the back-office routes entirely.
func AdminRequired(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminToken == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Back-office access is disabled",
			})
		}
		given := c.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(adminToken)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin token is missing or invalid",
			})
		}
		return c.Next()
	}
}
