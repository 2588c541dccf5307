package taskController

import (
	"context"
	"slices"
	"time"

	"cleanops/config"
	"cleanops/internal/database"
	. "cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/services"
	"cleanops/internal/types"
	"cleanops/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TaskController struct {
	taskRepo           repositories.TaskRepository
	directoryRepo      repositories.DirectoryRepository
	directory          *services.DirectoryService
	itemRepo           repositories.CleaningItemRepository
	actualTimeRepo     repositories.ActualTimeRepository
	allocationRepo     repositories.RoomCleaningItemRepository
	workOrderRepo      repositories.WorkOrderRepository
	transactionService *services.TransactionService
	ledger             *services.LedgerService
	notifier           services.Notifier
	db                 database.DB
	expiryWindow       time.Duration
	now                func() time.Time
	log                logger.Logger
}

type CleaningItemLine struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Quantity decimal.Decimal `json:"quantity"`
}

type CreateTaskRequest struct {
	LocationID          uuid.UUID          `json:"locationId"`
	RoomID              uuid.UUID          `json:"roomId"`
	Cleaners            []uuid.UUID        `json:"cleaners"`
	Inspectors          []uuid.UUID        `json:"inspectors"`
	RoomDetailIDs       []uuid.UUID        `json:"items"`
	CleaningItems       []CleaningItemLine `json:"cleaningItems"`
	ScheduledDate       *time.Time         `json:"scheduledDate,omitempty"`
	FacilityWorkOrderID *uuid.UUID         `json:"facilityWorkOrderId,omitempty"`
}

func (r *CreateTaskRequest) Validate() error {
	if r.LocationID == uuid.Nil {
		return types.Validation("locationId", "locationId is required")
	}
	if r.RoomID == uuid.Nil {
		return types.Validation("roomId", "roomId is required")
	}
	if len(r.Cleaners) == 0 {
		return types.Validation("cleaners", "at least one cleaner is required")
	}
	if len(r.Inspectors) == 0 {
		return types.Validation("inspectors", "at least one inspector is required")
	}
	seen := make(map[uuid.UUID]bool, len(r.CleaningItems))
	for _, line := range r.CleaningItems {
		if line.ItemID == uuid.Nil {
			return types.Validation("cleaningItems", "itemId is required")
		}
		if !line.Quantity.IsPositive() {
			return types.Validation("cleaningItems", "quantity for item %s must be positive", line.ItemID)
		}
		if err := types.CheckQuantityScale("cleaningItems", line.Quantity); err != nil {
			return err
		}
		if seen[line.ItemID] {
			return types.Validation("cleaningItems", "item %s is listed more than once", line.ItemID)
		}
		seen[line.ItemID] = true
	}
	details := make(map[uuid.UUID]bool, len(r.RoomDetailIDs))
	for _, id := range r.RoomDetailIDs {
		if details[id] {
			return types.Validation("items", "room detail %s is listed more than once", id)
		}
		details[id] = true
	}
	return nil
}

type SubmitTaskRequest struct {
	CleanTimeSeconds int64 `json:"cleanTime"`
}

func (r *SubmitTaskRequest) Validate() error {
	if r.CleanTimeSeconds < 0 {
		return types.Validation("cleanTime", "cleanTime cannot be negative")
	}
	return nil
}

type ApproveItemsRequest struct {
	DoneItemIDs      []uuid.UUID `json:"doneItemIds"`
	PreOpTimeSeconds int64       `json:"preOpTime"`
}

func (r *ApproveItemsRequest) Validate() error {
	if r.PreOpTimeSeconds < 0 {
		return types.Validation("preOpTime", "preOpTime cannot be negative")
	}
	return nil
}

type TaskDetail struct {
	Task         *Task               `json:"task"`
	ActualTime   *ActualTimeView     `json:"actualTime,omitempty"`
	Allocations  []*RoomCleaningItem `json:"allocations"`
	OverdueCount int                 `json:"overdueCount"`
}

type TaskControllerInterface interface {
	CreateTask(ctx context.Context, actor types.Actor, request *CreateTaskRequest) (*Task, error)
	GetTask(ctx context.Context, actor types.Actor, taskID uuid.UUID) (*TaskDetail, error)
	SubmitByCleaner(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		request *SubmitTaskRequest,
	) (*Task, error)
	ApproveItems(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		request *ApproveItemsRequest,
	) (*Task, error)
	SweepOverdue(ctx context.Context) (int, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) TaskControllerInterface {
	return &TaskController{
		taskRepo:           repos.Task,
		directoryRepo:      repos.Directory,
		directory:          services.Directory,
		itemRepo:           repos.CleaningItem,
		actualTimeRepo:     repos.ActualTime,
		allocationRepo:     repos.RoomCleaningItem,
		workOrderRepo:      repos.WorkOrder,
		transactionService: services.Transaction,
		ledger:             services.Ledger,
		notifier:           services.Notification,
		db:                 db,
		expiryWindow:       time.Duration(config.CleaningExpiryHours) * time.Hour,
		now:                func() time.Time { return time.Now().UTC() },
		log:                logger.New("taskController"),
	}
}

func (c *TaskController) CreateTask(
	ctx context.Context,
	actor types.Actor,
	request *CreateTaskRequest,
) (*Task, error) {
	log := c.log.TraceFromContext(ctx).Function("CreateTask")

	if err := actor.Require(types.RoleManager, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	var scheduled *time.Time
	if request.ScheduledDate != nil {
		utc := request.ScheduledDate.UTC()
		scheduled = &utc
	}

	var task *Task
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		location, err := c.directoryRepo.GetLocation(ctx, tx, request.LocationID)
		if err != nil {
			return err
		}

		room, err := c.directoryRepo.GetRoom(ctx, tx, request.RoomID)
		if err != nil {
			return err
		}
		if room.LocationID != location.ID {
			return types.Validation(
				"roomId",
				"room %s does not belong to location %s",
				room.Name,
				location.Name,
			)
		}

		if request.FacilityWorkOrderID != nil {
			workOrder, err := c.workOrderRepo.GetByID(ctx, tx, *request.FacilityWorkOrderID)
			if err != nil {
				return err
			}
			if workOrder.LocationID != location.ID {
				return types.Validation(
					"facilityWorkOrderId",
					"work order %s belongs to another location",
					workOrder.ID,
				)
			}
		}

		if err := c.directory.RequireWorkers(ctx, tx, "cleaners", request.Cleaners, types.RoleCleaner); err != nil {
			return err
		}
		if err := c.directory.RequireWorkers(ctx, tx, "inspectors", request.Inspectors, types.RoleInspector); err != nil {
			return err
		}

		items, err := taskItems(room, request.RoomDetailIDs, CleaningExpiry(scheduled, now, c.expiryWindow))
		if err != nil {
			return err
		}

		if err := c.rejectDuplicate(ctx, tx, request, scheduled); err != nil {
			return err
		}

		for _, line := range request.CleaningItems {
			item, err := c.itemRepo.GetByID(ctx, tx, line.ItemID)
			if err != nil {
				return err
			}
			if !item.Quantity.IsPositive() {
				return types.Validation("cleaningItems", "cleaning item %s is out of stock", item.Name)
			}
		}

		task = &Task{
			LocationID:          location.ID,
			RoomID:              room.ID,
			AssignedCleaners:    request.Cleaners,
			AssignedInspectors:  request.Inspectors,
			AssignedManager:     actor.ID,
			FacilityWorkOrderID: request.FacilityWorkOrderID,
			Stage:               TaskStageClean,
			ScheduledDate:       scheduled,
			DateAdded:           now,
			Items:               items,
		}
		task.RefreshOverdue(now)

		if err := c.taskRepo.Create(ctx, tx, task); err != nil {
			return err
		}

		for _, line := range request.CleaningItems {
			item, err := c.ledger.Reserve(ctx, tx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			allocation := &RoomCleaningItem{
				TaskID:         task.ID,
				RoomID:         room.ID,
				CleaningItemID: item.ID,
				Quantity:       line.Quantity,
				Unit:           item.Unit,
				Source:         AllocationSourceTask,
			}
			if err := c.allocationRepo.Create(ctx, tx, allocation); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, log.Err("failed to create task", err, "roomID", request.RoomID)
	}

	for _, cleaner := range task.AssignedCleaners {
		c.notifier.Notify(ctx, types.Notification{
			RecipientID: cleaner,
			Title:       "New cleaning task",
			Body:        "You have been assigned a new cleaning task",
			Data:        map[string]any{"taskId": task.ID},
		})
	}

	log.Info("Task created", "taskID", task.ID, "items", len(task.Items))
	return task, nil
}

// rejectDuplicate refuses a second open task for the same room and day that
// shares a cleaner and an inspector with an existing one.
func (c *TaskController) rejectDuplicate(
	ctx context.Context,
	tx *gorm.DB,
	request *CreateTaskRequest,
	scheduled *time.Time,
) error {
	open, err := c.taskRepo.FindOpenForRoom(ctx, tx, request.LocationID, request.RoomID)
	if err != nil {
		return err
	}

	for _, existing := range open {
		if !sameSchedule(existing.ScheduledDate, scheduled) {
			continue
		}
		if overlaps(existing.AssignedCleaners, request.Cleaners) &&
			overlaps(existing.AssignedInspectors, request.Inspectors) {
			return types.Conflict(
				"an open task %s already exists for this room, date, cleaner and inspector",
				existing.ID,
			)
		}
	}

	return nil
}

func sameSchedule(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return utils.SameDay(*a, *b)
}

func overlaps(a, b []uuid.UUID) bool {
	for _, id := range b {
		if slices.Contains(a, id) {
			return true
		}
	}
	return false
}

// taskItems builds the fixed item set of a new task. Without an explicit
// selection the room's full catalogue is used.
func taskItems(room *Room, detailIDs []uuid.UUID, expiry time.Time) ([]TaskItem, error) {
	details := room.Details
	if len(detailIDs) > 0 {
		byID := make(map[uuid.UUID]RoomDetail, len(room.Details))
		for _, detail := range room.Details {
			byID[detail.ID] = detail
		}
		details = make([]RoomDetail, 0, len(detailIDs))
		for _, id := range detailIDs {
			detail, ok := byID[id]
			if !ok {
				return nil, types.Validation("items", "item %s is not part of room %s", id, room.Name)
			}
			details = append(details, detail)
		}
	}

	if len(details) == 0 {
		return nil, types.Validation("items", "a task needs at least one item")
	}

	items := make([]TaskItem, 0, len(details))
	for _, detail := range details {
		items = append(items, TaskItem{
			RoomDetailID:     detail.ID,
			Name:             detail.Name,
			CleaningExpiryAt: expiry,
		})
	}
	return items, nil
}

func (c *TaskController) GetTask(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
) (*TaskDetail, error) {
	log := c.log.TraceFromContext(ctx).Function("GetTask")

	if err := actor.Require(
		types.RoleAdmin,
		types.RoleManager,
		types.RoleSupervisor,
		types.RoleInspector,
		types.RoleCleaner,
	); err != nil {
		return nil, err
	}

	task, err := c.taskRepo.GetByID(ctx, c.db.SQL, taskID)
	if err != nil {
		return nil, log.Err("failed to get task", err, "taskID", taskID)
	}

	detail := &TaskDetail{
		Task:         task,
		OverdueCount: task.RefreshOverdue(c.now()),
	}

	actualTime, err := c.actualTimeRepo.GetByTask(ctx, c.db.SQL, taskID)
	if err != nil {
		return nil, log.Err("failed to get actual time", err, "taskID", taskID)
	}
	if actualTime != nil {
		view := actualTime.View()
		detail.ActualTime = &view
	}

	detail.Allocations, err = c.allocationRepo.ListByTask(ctx, c.db.SQL, taskID)
	if err != nil {
		return nil, log.Err("failed to list allocations", err, "taskID", taskID)
	}

	return detail, nil
}
