package middleware

import (
	"strings"

	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const ActorKeyFiber = "Actor"

// RequireAuth validates the bearer token and resolves the caller against the
// directory. Inactive users are refused.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claimed, err := m.authService.ValidateToken(c.UserContext(), tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		user, err := m.directoryRepo.GetUser(c.UserContext(), m.DB.SQL, claimed.ID)
		if err != nil {
			log.Info("user not found in directory", "userID", claimed.ID, "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		if !user.IsActive() {
			log.Info("inactive user refused", "userID", user.ID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "User is not active",
			})
		}

		c.Locals(ActorKeyFiber, types.Actor{ID: user.ID, Role: user.Role})

		log.Debug("user authenticated", "userID", user.ID, "role", user.Role)
		return c.Next()
	}
}

// GetActor extracts the authenticated actor from Fiber context.
func GetActor(c *fiber.Ctx) (types.Actor, bool) {
	actor, ok := c.Locals(ActorKeyFiber).(types.Actor)
	return actor, ok
}
