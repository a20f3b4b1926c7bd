// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Actor roles forwarded by the Gateway
const (
	RoleClient  = "client"
	RolePartner = "partner"
)

// UserContextMiddleware extracts user identity and role set by the Gateway.
// Secured routes live under /s/ and require both headers.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		role := strings.ToLower(strings.TrimSpace(c.Get("X-User-Role")))

		path := c.Path()
		isSecured := strings.HasPrefix(path, "/s/")
		if isSecured && userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}
		if isSecured && role != RoleClient && role != RolePartner {
			log.Printf("❌ [USER_CTX] Unknown X-User-Role %q on secured route: %s", role, path)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "X-User-Role must be client or partner",
			})
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_role", role)

		return c.Next()
	}
}

// RequireRole guards a route group to one actor role
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_role") != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "this action is reserved for " + role + " accounts",
			})
		}
		return c.Next()
	}
}
