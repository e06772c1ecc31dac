// middleware/admin.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware guards the internal admin endpoints with a shared
// service token. These routes are for operators and internal tooling,
// not end users, so a static token is enough.
func AdminAuthMiddleware() fiber.Handler {
	expected := os.Getenv("ADMIN_SERVICE_TOKEN")
	if expected == "" {
		log.Fatal("ADMIN_SERVICE_TOKEN environment variable not set")
	}

	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")

		if token != expected {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
		}
		return c.Next()
	}
}
