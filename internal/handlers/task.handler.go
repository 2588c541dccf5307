package handlers

import (
	"cleanops/internal/app"
	taskController "cleanops/internal/controllers/tasks"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type TaskHandler struct {
	Handler
	taskController taskController.TaskControllerInterface
}

func NewTaskHandler(app app.App, router fiber.Router) *TaskHandler {
	return &TaskHandler{
		taskController: app.Controllers.Task,
		Handler: Handler{
			log:        logger.New("taskHandler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *TaskHandler) Register() {
	tasks := h.router.Group("/tasks")
	tasks.Post("", h.createTask)
	tasks.Get("/:id", h.getTask)
	tasks.Post("/:id/submit", h.submitTask)
	tasks.Post("/:id/approve", h.approveItems)
}

func (h *TaskHandler) createTask(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req taskController.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	task, err := h.taskController.CreateTask(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to create task")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) getTask(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	detail, err := h.taskController.GetTask(c.UserContext(), actor, taskID)
	if err != nil {
		return respondError(c, h.log, err, "Failed to get task")
	}

	return c.JSON(detail)
}

func (h *TaskHandler) submitTask(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req taskController.SubmitTaskRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	task, err := h.taskController.SubmitByCleaner(c.UserContext(), actor, taskID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to submit task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) approveItems(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	taskID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err, "")
	}

	var req taskController.ApproveItemsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err, "")
	}

	task, err := h.taskController.ApproveItems(c.UserContext(), actor, taskID, &req)
	if err != nil {
		return respondError(c, h.log, err, "Failed to approve task items")
	}

	return c.JSON(fiber.Map{"task": task})
}
