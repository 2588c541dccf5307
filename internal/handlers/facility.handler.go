package handlers

import (
	"cleanops/internal/app"
	facilityController "cleanops/internal/controllers/facility"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type FacilityHandler struct {
	Handler
	facilityController facilityController.FacilityControllerInterface
}

func NewFacilityHandler(app app.App, router fiber.Router) *FacilityHandler {
	return &FacilityHandler{
		facilityController: app.Controllers.Facility,
		Handler: Handler{
			log:        logger.New("facilityHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FacilityHandler) Register() {
	orders := h.router.Group("/work-orders")
	orders.Post("", h.createWorkOrder)
	orders.Get("/:id", h.getWorkOrder)
	orders.Get("/:id/progress", h.stageProgress)
	orders.Post("/:id/stages/:name/start", h.startStage)
	orders.Post("/:id/stages/:name/stop", h.stopStage)
	orders.Post("/:id/stages/:stageId/notes", h.addStageNote)
	orders.Post("/:id/release", h.release)
}

func (h *FacilityHandler) createWorkOrder(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req facilityController.CreateWorkOrderRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	order, err := h.facilityController.CreateWorkOrder(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to create work order")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workOrder": order})
}

func (h *FacilityHandler) getWorkOrder(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	detail, err := h.facilityController.GetWorkOrder(c.UserContext(), actor, orderID)
	if err != nil {
		return respondError(c, h.log, err, "Failed to get work order")
	}

	return c.JSON(detail)
}

func (h *FacilityHandler) stageProgress(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	progress, err := h.facilityController.StageProgress(c.UserContext(), actor, orderID)
	if err != nil {
		return respondError(c, h.log, err, "Failed to load stage progress")
	}

	return c.JSON(progress)
}

func (h *FacilityHandler) startStage(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	stage, err := h.facilityController.StartStage(c.UserContext(), actor, orderID, c.Params("name"))
	if err != nil {
		return respondError(c, h.log, err, "Failed to start stage")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"stage": stage})
}

func (h *FacilityHandler) stopStage(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req facilityController.StopStageRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	stage, err := h.facilityController.StopStage(
		c.UserContext(),
		actor,
		orderID,
		c.Params("name"),
		&req,
	)
	if err != nil {
		return respondError(c, h.log, err, "Failed to stop stage")
	}

	return c.JSON(fiber.Map{"stage": stage})
}

func (h *FacilityHandler) addStageNote(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}
	stageID, err := paramID(c, "stageId")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req facilityController.StageNoteRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	note, err := h.facilityController.AddStageNote(c.UserContext(), actor, orderID, stageID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to add stage note")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"note": note})
}

func (h *FacilityHandler) release(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	order, err := h.facilityController.ReleaseWorkOrder(c.UserContext(), actor, orderID)
	if err != nil {
		return respondError(c, h.log, err, "Failed to release work order")
	}

	return c.JSON(fiber.Map{"workOrder": order})
}
