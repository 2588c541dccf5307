package handlers

import (
	"cleanops/internal/app"
	inventoryController "cleanops/internal/controllers/inventory"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Handler
	inventoryController inventoryController.InventoryControllerInterface
}

func NewInventoryHandler(app app.App, router fiber.Router) *InventoryHandler {
	return &InventoryHandler{
		inventoryController: app.Controllers.Inventory,
		Handler: Handler{
			log:        logger.New("inventoryHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *InventoryHandler) Register() {
	items := h.router.Group("/inventory/items")
	items.Get("", h.listItems)
	items.Get("/:id", h.getItem)

	managerOnly := h.middleware.RequireRole(types.RoleManager, types.RoleAdmin)
	items.Post("", managerOnly, h.createItem)
	items.Post("/:id/restock", managerOnly, h.restock)
}

func (h *InventoryHandler) listItems(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	items, err := h.inventoryController.ListItems(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.log, err, "Failed to list items")
	}

	return c.JSON(fiber.Map{"items": items})
}

func (h *InventoryHandler) getItem(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	itemID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	item, err := h.inventoryController.GetItem(c.UserContext(), actor, itemID)
	if err != nil {
		return respondError(c, h.log, err, "Failed to get item")
	}

	return c.JSON(fiber.Map{"item": item})
}

func (h *InventoryHandler) createItem(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req inventoryController.CreateItemRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	item, err := h.inventoryController.CreateItem(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to create item")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": item})
}

func (h *InventoryHandler) restock(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	itemID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req inventoryController.RestockRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	item, err := h.inventoryController.Restock(c.UserContext(), actor, itemID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to restock item")
	}

	return c.JSON(fiber.Map{"item": item})
}
