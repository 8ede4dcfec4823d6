package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Kalwarein/edu-harmony-link/pkg/utils"
)

func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		c.Locals("admin_level", claims.AdminLevel)

		return c.Next()
	}
}

type permissionChecker interface {
	HasPermission(level, permission string) bool
}

// AdminRequired gates a route on an admin-session token whose level grants
// the permission. Runs after AuthRequired.
func AdminRequired(admin permissionChecker, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		level, _ := c.Locals("admin_level").(string)
		if level == "" || !admin.HasPermission(level, permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin permission required",
			})
		}
		return c.Next()
	}
}
