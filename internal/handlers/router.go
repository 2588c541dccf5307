package handlers

import (
	"cleanops/internal/app"
	"cleanops/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	WebSocketHandler(router, app.Websocket)

	api := router.Group("/api")
	HealthHandler(api, app.Config)

	protected := api.Group("", app.Middleware.RequireAuth())
	NewTaskHandler(*app, protected).Register()
	NewRequestHandler(*app, protected).Register()
	NewInventoryHandler(*app, protected).Register()
	NewFacilityHandler(*app, protected).Register()

	return nil
}
