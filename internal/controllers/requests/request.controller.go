package requestController

import (
	"context"
	"time"

	"cleanops/internal/database"
	. "cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/services"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequestController struct {
	taskRepo           repositories.TaskRepository
	itemRepo           repositories.CleaningItemRepository
	requestRepo        repositories.CleaningItemRequestRepository
	allocationRepo     repositories.RoomCleaningItemRepository
	transactionService *services.TransactionService
	ledger             *services.LedgerService
	notifier           services.Notifier
	db                 database.DB
	now                func() time.Time
	log                logger.Logger
}

type RequestedItem struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

type RaiseRequest struct {
	Items []RequestedItem `json:"items"`
}

func (r *RaiseRequest) Validate() error {
	if len(r.Items) == 0 {
		return types.Validation("items", "at least one item must be requested")
	}
	for _, item := range r.Items {
		if item.ItemID == uuid.Nil {
			return types.Validation("items", "itemId is required")
		}
		if !item.Quantity.IsPositive() {
			return types.Validation("items", "quantity for item %s must be positive", item.ItemID)
		}
		if err := types.CheckQuantityScale("items", item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

type ApproveRequest struct {
	GrantedQuantity decimal.Decimal `json:"grantedQuantity"`
	Comment         string          `json:"comment"`
}

func (r *ApproveRequest) Validate() error {
	if !r.GrantedQuantity.IsPositive() {
		return types.Validation("grantedQuantity", "grantedQuantity must be positive")
	}
	return types.CheckQuantityScale("grantedQuantity", r.GrantedQuantity)
}

type RejectRequest struct {
	Comment string `json:"comment"`
}

func (r *RejectRequest) Validate() error {
	return nil
}

type ReceivedItem struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ConfirmReceiptRequest struct {
	RoomID uuid.UUID      `json:"roomId"`
	Items  []ReceivedItem `json:"items"`
}

func (r *ConfirmReceiptRequest) Validate() error {
	if r.RoomID == uuid.Nil {
		return types.Validation("roomId", "roomId is required")
	}
	if len(r.Items) == 0 {
		return types.Validation("items", "at least one item must be confirmed")
	}
	for _, item := range r.Items {
		if item.ItemID == uuid.Nil {
			return types.Validation("items", "itemId is required")
		}
		if !item.Quantity.IsPositive() {
			return types.Validation("items", "quantity for item %s must be positive", item.ItemID)
		}
		if err := types.CheckQuantityScale("items", item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

type RequestControllerInterface interface {
	Raise(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		request *RaiseRequest,
	) ([]*CleaningItemRequest, error)
	Approve(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		requestID uuid.UUID,
		request *ApproveRequest,
	) (*CleaningItemRequest, error)
	Reject(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		requestID uuid.UUID,
		request *RejectRequest,
	) (*CleaningItemRequest, error)
	ConfirmReceipt(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		request *ConfirmReceiptRequest,
	) ([]*RoomCleaningItem, error)
	List(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		status RequestStatus,
	) ([]*CleaningItemRequest, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) RequestControllerInterface {
	return &RequestController{
		taskRepo:           repos.Task,
		itemRepo:           repos.CleaningItem,
		requestRepo:        repos.CleaningItemRequest,
		allocationRepo:     repos.RoomCleaningItem,
		transactionService: services.Transaction,
		ledger:             services.Ledger,
		notifier:           services.Notification,
		db:                 db,
		now:                func() time.Time { return time.Now().UTC() },
		log:                logger.New("requestController"),
	}
}

// Raise appends entries to the task's request queue. The same item may be
// requested more than once.
func (c *RequestController) Raise(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	request *RaiseRequest,
) ([]*CleaningItemRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("Raise")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	var (
		task    *Task
		entries []*CleaningItemRequest
	)
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		task, err = c.openTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := actor.RequireMember(task.AssignedCleaners, types.RoleCleaner); err != nil {
			return err
		}

		entries = make([]*CleaningItemRequest, 0, len(request.Items))
		for _, requested := range request.Items {
			if _, err := c.itemRepo.GetByID(ctx, tx, requested.ItemID); err != nil {
				return err
			}
			entry := &CleaningItemRequest{
				TaskID:            task.ID,
				CleaningItemID:    requested.ItemID,
				RequestedBy:       actor.ID,
				RequestedQuantity: requested.Quantity,
				CleanerReason:     requested.Reason,
			}
			if err := c.requestRepo.Create(ctx, tx, entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		return nil
	})
	if err != nil {
		return nil, log.Err("failed to raise request", err, "taskID", taskID)
	}

	for _, inspector := range task.AssignedInspectors {
		c.notifier.Notify(ctx, types.Notification{
			RecipientID: inspector,
			Title:       "Cleaning items requested",
			Body:        "A cleaner has requested additional cleaning items",
			Data:        map[string]any{"taskId": task.ID, "count": len(entries)},
		})
	}

	return entries, nil
}

// Approve reserves the granted quantity, closes the entry and records a new
// allocation line as one unit.
func (c *RequestController) Approve(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	requestID uuid.UUID,
	request *ApproveRequest,
) (*CleaningItemRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("Approve")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	var entry *CleaningItemRequest
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		task, pending, err := c.pendingEntry(ctx, tx, actor, taskID, requestID)
		if err != nil {
			return err
		}

		item, err := c.ledger.Reserve(ctx, tx, pending.CleaningItemID, request.GrantedQuantity)
		if err != nil {
			return err
		}

		granted := request.GrantedQuantity
		if err := c.complete(ctx, tx, pending.ID, repositories.RequestOutcome{
			Approved:        true,
			GrantedQuantity: &granted,
			InspectorReason: request.Comment,
			CompletedBy:     actor.ID,
			CompletedAt:     c.now(),
		}); err != nil {
			return err
		}

		allocation := &RoomCleaningItem{
			TaskID:         task.ID,
			RoomID:         task.RoomID,
			CleaningItemID: item.ID,
			Quantity:       granted,
			Unit:           item.Unit,
			Source:         AllocationSourceRequest,
			RequestID:      &pending.ID,
		}
		if err := c.allocationRepo.Create(ctx, tx, allocation); err != nil {
			return err
		}

		entry, err = c.requestRepo.GetByID(ctx, tx, pending.ID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to approve request", err, "taskID", taskID, "requestID", requestID)
	}

	c.notifier.Notify(ctx, types.Notification{
		RecipientID: entry.RequestedBy,
		Title:       "Cleaning item request approved",
		Body:        "Your request was approved",
		Data:        map[string]any{"taskId": taskID, "requestId": entry.ID, "granted": entry.GrantedQuantity},
	})

	return entry, nil
}

func (c *RequestController) Reject(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	requestID uuid.UUID,
	request *RejectRequest,
) (*CleaningItemRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("Reject")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	var entry *CleaningItemRequest
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		_, pending, err := c.pendingEntry(ctx, tx, actor, taskID, requestID)
		if err != nil {
			return err
		}

		if err := c.complete(ctx, tx, pending.ID, repositories.RequestOutcome{
			Approved:        false,
			InspectorReason: request.Comment,
			CompletedBy:     actor.ID,
			CompletedAt:     c.now(),
		}); err != nil {
			return err
		}

		entry, err = c.requestRepo.GetByID(ctx, tx, pending.ID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to reject request", err, "taskID", taskID, "requestID", requestID)
	}

	c.notifier.Notify(ctx, types.Notification{
		RecipientID: entry.RequestedBy,
		Title:       "Cleaning item request rejected",
		Body:        request.Comment,
		Data:        map[string]any{"taskId": taskID, "requestId": entry.ID},
	})

	return entry, nil
}

// ConfirmReceipt records which cleaner took how much of each allocated item.
// Each receipt is appended to the most recent allocation line for the item.
func (c *RequestController) ConfirmReceipt(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	request *ConfirmReceiptRequest,
) ([]*RoomCleaningItem, error) {
	log := c.log.TraceFromContext(ctx).Function("ConfirmReceipt")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	var lines []*RoomCleaningItem
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		task, err := c.taskRepo.GetByID(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := actor.RequireMember(task.AssignedCleaners, types.RoleCleaner); err != nil {
			return err
		}
		if task.RoomID != request.RoomID {
			return types.Validation("roomId", "room %s is not the room of task %s", request.RoomID, task.ID)
		}

		allocated, err := c.allocationRepo.ListByTask(ctx, tx, task.ID)
		if err != nil {
			return err
		}

		for _, received := range request.Items {
			line := latestLine(allocated, received.ItemID)
			if line == nil {
				return types.NotFound("allocated item", received.ItemID)
			}
			receipt := &CleaningItemReceipt{
				RoomCleaningItemID: line.ID,
				CleanerID:          actor.ID,
				QuantityAssigned:   received.Quantity,
			}
			if err := c.allocationRepo.CreateReceipt(ctx, tx, receipt); err != nil {
				return err
			}
		}

		lines, err = c.allocationRepo.ListByTask(ctx, tx, task.ID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to confirm receipt", err, "taskID", taskID)
	}

	return lines, nil
}

func (c *RequestController) List(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	status RequestStatus,
) ([]*CleaningItemRequest, error) {
	log := c.log.TraceFromContext(ctx).Function("List")

	if err := actor.Require(
		types.RoleAdmin,
		types.RoleManager,
		types.RoleSupervisor,
		types.RoleInspector,
		types.RoleCleaner,
	); err != nil {
		return nil, err
	}

	switch status {
	case "", RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
	default:
		return nil, types.Validation("status", "unknown request status %q", status)
	}

	if _, err := c.taskRepo.GetByID(ctx, c.db.SQL, taskID); err != nil {
		return nil, err
	}

	entries, err := c.requestRepo.ListByTask(ctx, c.db.SQL, taskID, status)
	if err != nil {
		return nil, log.Err("failed to list requests", err, "taskID", taskID)
	}

	return entries, nil
}

func (c *RequestController) openTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*Task, error) {
	task, err := c.taskRepo.GetByID(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsSubmitted {
		return nil, types.InvalidTransition("task %s has already been released", task.ID)
	}
	return task, nil
}

// pendingEntry loads a queue entry the inspector may still decide on.
func (c *RequestController) pendingEntry(
	ctx context.Context,
	tx *gorm.DB,
	actor types.Actor,
	taskID uuid.UUID,
	requestID uuid.UUID,
) (*Task, *CleaningItemRequest, error) {
	task, err := c.openTask(ctx, tx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := actor.RequireMember(task.AssignedInspectors, types.RoleInspector); err != nil {
		return nil, nil, err
	}

	entry, err := c.requestRepo.GetByID(ctx, tx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if entry.TaskID != task.ID {
		return nil, nil, types.NotFound("request", requestID)
	}
	if entry.Completed {
		return nil, nil, types.InvalidTransition("request %s has already been %s", entry.ID, entry.Status())
	}

	return task, entry, nil
}

func (c *RequestController) complete(
	ctx context.Context,
	tx *gorm.DB,
	requestID uuid.UUID,
	outcome repositories.RequestOutcome,
) error {
	completed, err := c.requestRepo.Complete(ctx, tx, requestID, outcome)
	if err != nil {
		return err
	}
	if !completed {
		return types.InvalidTransition("request %s has already been completed", requestID)
	}
	return nil
}

func latestLine(lines []*RoomCleaningItem, itemID uuid.UUID) *RoomCleaningItem {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].CleaningItemID == itemID {
			return lines[i]
		}
	}
	return nil
}
