package middleware

import (
	"cleanops/internal/types"

	"github.com/gofiber/fiber/v2"
)

// RequireRole refuses callers whose role is not listed. Operations still
// perform their own checks.
func (m *Middleware) RequireRole(roles ...types.Role) fiber.Handler {
	log := m.log.Function("RequireRole")

	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			log.Info("actor not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !actor.Is(roles...) {
			log.Info("role refused", "userID", actor.ID, "role", actor.Role)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":    "Insufficient role",
				"category": "forbidden",
			})
		}

		return c.Next()
	}
}
