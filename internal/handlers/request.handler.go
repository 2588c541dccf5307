package handlers

import (
	"cleanops/internal/app"
	inventoryController "cleanops/internal/controllers/inventory"
	requestController "cleanops/internal/controllers/requests"
	"cleanops/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// RequestHandler covers the per-task item flow: requests, receipts and returns.
type RequestHandler struct {
	Handler
	requestController   requestController.RequestControllerInterface
	inventoryController inventoryController.InventoryControllerInterface
}

func NewRequestHandler(app app.App, router fiber.Router) *RequestHandler {
	return &RequestHandler{
		requestController:   app.Controllers.Request,
		inventoryController: app.Controllers.Inventory,
		Handler: Handler{
			log:        logger.New("requestHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *RequestHandler) Register() {
	tasks := h.router.Group("/tasks/:id")
	tasks.Get("/requests", h.listRequests)
	tasks.Post("/requests", h.raiseRequests)
	tasks.Post("/requests/:requestId/approve", h.approveRequest)
	tasks.Post("/requests/:requestId/reject", h.rejectRequest)
	tasks.Post("/receipts", h.confirmReceipt)
	tasks.Post("/returns", h.returnAllocations)
}

func (h *RequestHandler) listRequests(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	status := models.RequestStatus(c.Query("status"))
	requests, err := h.requestController.List(c.UserContext(), actor, taskID, status)
	if err != nil {
		return respondError(c, h.log, err, "Failed to list requests")
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *RequestHandler) raiseRequests(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req requestController.RaiseRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	requests, err := h.requestController.Raise(c.UserContext(), actor, taskID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to raise requests")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"requests": requests})
}

func (h *RequestHandler) approveRequest(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}
	requestID, err := paramID(c, "requestId")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req requestController.ApproveRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	request, err := h.requestController.Approve(c.UserContext(), actor, taskID, requestID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to approve request")
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *RequestHandler) rejectRequest(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}
	requestID, err := paramID(c, "requestId")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req requestController.RejectRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	request, err := h.requestController.Reject(c.UserContext(), actor, taskID, requestID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to reject request")
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *RequestHandler) confirmReceipt(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req requestController.ConfirmReceiptRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	received, err := h.requestController.ConfirmReceipt(c.UserContext(), actor, taskID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to confirm receipt")
	}

	return c.JSON(fiber.Map{"allocations": received})
}

func (h *RequestHandler) returnAllocations(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req inventoryController.ReturnAllocationsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	returned, err := h.inventoryController.ReturnAllocations(c.UserContext(), actor, taskID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to return allocations")
	}

	return c.JSON(fiber.Map{"returned": returned})
}
