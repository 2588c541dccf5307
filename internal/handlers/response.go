package handlers

import (
	"errors"

	"cleanops/internal/handlers/middleware"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errUnauthenticated = errors.New("authentication required")

// statusFor maps an error category onto an HTTP status.
func statusFor(err error) int {
	switch types.Category(err) {
	case "validation":
		return fiber.StatusBadRequest
	case "forbidden":
		return fiber.StatusForbidden
	case "not_found":
		return fiber.StatusNotFound
	case "conflict", "insufficient_stock":
		return fiber.StatusConflict
	case "invalid_state_transition":
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the client-facing form of err. Unexpected errors are
// logged and reported without their cause.
func respondError(c *fiber.Ctx, log logger.Logger, err error, message string) error {
	if errors.Is(err, errUnauthenticated) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		_ = log.TraceFromContext(c.UserContext()).Err(message, err, "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error":    message,
			"category": "internal",
		})
	}

	body := fiber.Map{
		"error":    err.Error(),
		"category": types.Category(err),
	}
	if field := types.FieldOf(err); field != "" {
		body["field"] = field
	}
	return c.Status(status).JSON(body)
}

func requireActor(c *fiber.Ctx) (types.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return types.Actor{}, errUnauthenticated
	}
	return actor, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, types.Validation(name, "%s must be a valid id", name)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return types.Validation("body", "invalid request body")
	}
	return nil
}
