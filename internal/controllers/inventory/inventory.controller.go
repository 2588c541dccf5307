package inventoryController

import (
	"context"
	"strings"

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

type InventoryController struct {
	itemRepo           repositories.CleaningItemRepository
	taskRepo           repositories.TaskRepository
	allocationRepo     repositories.RoomCleaningItemRepository
	transactionService *services.TransactionService
	ledger             *services.LedgerService
	db                 database.DB
	log                logger.Logger
}

type CreateItemRequest struct {
	Name     string           `json:"name"`
	Quantity decimal.Decimal  `json:"quantity"`
	Unit     string           `json:"unit"`
	Kind     CleaningItemKind `json:"kind"`
}

func (r *CreateItemRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return types.Validation("name", "name is required")
	}
	if r.Quantity.IsNegative() {
		return types.Validation("quantity", "quantity cannot be negative")
	}
	if err := types.CheckQuantityScale("quantity", r.Quantity); err != nil {
		return err
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return types.Validation("kind", "kind must be consumable or tool")
	}
	return nil
}

type RestockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (r *RestockRequest) Validate() error {
	if !r.Quantity.IsPositive() {
		return types.Validation("quantity", "quantity must be positive")
	}
	return types.CheckQuantityScale("quantity", r.Quantity)
}

type ReturnedItem struct {
	ItemID          uuid.UUID       `json:"itemId"`
	Quantity        decimal.Decimal `json:"quantity"`
	Damaged         bool            `json:"damaged"`
	DamagedQuantity decimal.Decimal `json:"damagedQuantity"`
}

// FinalQuantity is the amount credited back to stock.
func (r ReturnedItem) FinalQuantity() decimal.Decimal {
	if r.Damaged {
		return r.Quantity.Sub(r.DamagedQuantity)
	}
	return r.Quantity
}

type ReturnAllocationsRequest struct {
	Items []ReturnedItem `json:"items"`
}

func (r *ReturnAllocationsRequest) Validate() error {
	if len(r.Items) == 0 {
		return types.Validation("items", "at least one item must be returned")
	}
	seen := make(map[uuid.UUID]bool, len(r.Items))
	for _, item := range r.Items {
		if item.ItemID == uuid.Nil {
			return types.Validation("items", "itemId is required")
		}
		if seen[item.ItemID] {
			return types.Validation("items", "item %s is listed more than once", item.ItemID)
		}
		seen[item.ItemID] = true
		if item.Quantity.IsNegative() {
			return types.Validation("items", "quantity for item %s cannot be negative", item.ItemID)
		}
		if err := types.CheckQuantityScale("items", item.Quantity); err != nil {
			return err
		}
		if err := types.CheckQuantityScale("items", item.DamagedQuantity); err != nil {
			return err
		}
		if item.Damaged {
			if item.DamagedQuantity.IsNegative() || item.DamagedQuantity.GreaterThan(item.Quantity) {
				return types.Validation(
					"items",
					"damaged quantity for item %s must be between 0 and %s",
					item.ItemID,
					item.Quantity.String(),
				)
			}
		}
	}
	return nil
}

type ReturnedStock struct {
	ItemID   uuid.UUID       `json:"itemId"`
	Credited decimal.Decimal `json:"credited"`
	Quantity decimal.Decimal `json:"quantity"`
}

type InventoryControllerInterface interface {
	CreateItem(ctx context.Context, actor types.Actor, request *CreateItemRequest) (*CleaningItem, error)
	Restock(
		ctx context.Context,
		actor types.Actor,
		itemID uuid.UUID,
		request *RestockRequest,
	) (*CleaningItem, error)
	GetItem(ctx context.Context, actor types.Actor, itemID uuid.UUID) (*CleaningItem, error)
	ListItems(ctx context.Context, actor types.Actor) ([]*CleaningItem, error)
	ReturnAllocations(
		ctx context.Context,
		actor types.Actor,
		taskID uuid.UUID,
		request *ReturnAllocationsRequest,
	) ([]ReturnedStock, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) InventoryControllerInterface {
	return &InventoryController{
		itemRepo:           repos.CleaningItem,
		taskRepo:           repos.Task,
		allocationRepo:     repos.RoomCleaningItem,
		transactionService: services.Transaction,
		ledger:             services.Ledger,
		db:                 db,
		log:                logger.New("inventoryController"),
	}
}

func (c *InventoryController) CreateItem(
	ctx context.Context,
	actor types.Actor,
	request *CreateItemRequest,
) (*CleaningItem, error) {
	log := c.log.TraceFromContext(ctx).Function("CreateItem")

	if err := actor.Require(types.RoleManager, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	item := &CleaningItem{
		Name:     request.Name,
		Quantity: request.Quantity,
		Unit:     request.Unit,
		Kind:     request.Kind,
	}
	if err := c.itemRepo.Create(ctx, c.db.SQL, item); err != nil {
		return nil, log.Err("failed to create cleaning item", err, "name", request.Name)
	}

	log.Info("Cleaning item created", "itemID", item.ID, "quantity", item.Quantity)
	return item, nil
}

// Restock is the administrative top-up. It goes through the same guarded
// increment as a ledger return.
func (c *InventoryController) Restock(
	ctx context.Context,
	actor types.Actor,
	itemID uuid.UUID,
	request *RestockRequest,
) (*CleaningItem, error) {
	log := c.log.TraceFromContext(ctx).Function("Restock")

	if err := actor.Require(types.RoleManager, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	var item *CleaningItem
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.ledger.Return(ctx, tx, itemID, request.Quantity); err != nil {
			return err
		}

		var err error
		item, err = c.itemRepo.GetByID(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to restock", err, "itemID", itemID)
	}

	return item, nil
}

func (c *InventoryController) GetItem(
	ctx context.Context,
	actor types.Actor,
	itemID uuid.UUID,
) (*CleaningItem, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	return c.itemRepo.GetByID(ctx, c.db.SQL, itemID)
}

func (c *InventoryController) ListItems(ctx context.Context, actor types.Actor) ([]*CleaningItem, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	return c.itemRepo.List(ctx, c.db.SQL)
}

// ReturnAllocations credits unused stock from a task back to the ledger and
// closes every allocation line of the returned items.
func (c *InventoryController) ReturnAllocations(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	request *ReturnAllocationsRequest,
) ([]ReturnedStock, error) {
	log := c.log.TraceFromContext(ctx).Function("ReturnAllocations")

	if err := actor.Require(types.RoleManager, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	returned := make([]ReturnedStock, 0, len(request.Items))
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.taskRepo.GetByID(ctx, tx, taskID); err != nil {
			return err
		}

		lines, err := c.allocationRepo.ListByTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		for _, item := range request.Items {
			open, err := openLines(lines, item.ItemID)
			if err != nil {
				return err
			}

			allocated := AllocatedTotal(open, item.ItemID)
			if item.Quantity.GreaterThan(allocated) {
				return types.Validation(
					"items",
					"cannot return %s of item %s, only %s was allocated",
					item.Quantity.String(),
					item.ItemID,
					allocated.String(),
				)
			}

			for _, line := range open {
				reconciled, err := c.allocationRepo.MarkReconciled(ctx, tx, line.ID)
				if err != nil {
					return err
				}
				if !reconciled {
					return types.Conflict("allocation of item %s has already been returned", item.ItemID)
				}
			}

			credited := item.FinalQuantity()
			if credited.IsPositive() {
				if err := c.ledger.Return(ctx, tx, item.ItemID, credited); err != nil {
					return err
				}
			}

			quantity, err := c.ledger.ReadQuantity(ctx, tx, item.ItemID)
			if err != nil {
				return err
			}
			returned = append(returned, ReturnedStock{
				ItemID:   item.ItemID,
				Credited: credited,
				Quantity: quantity,
			})
		}

		return nil
	})
	if err != nil {
		return nil, log.Err("failed to return allocations", err, "taskID", taskID)
	}

	return returned, nil
}

func openLines(lines []*RoomCleaningItem, itemID uuid.UUID) ([]*RoomCleaningItem, error) {
	var (
		open  []*RoomCleaningItem
		found bool
	)
	for _, line := range lines {
		if line.CleaningItemID != itemID {
			continue
		}
		found = true
		if !line.Reconciled {
			open = append(open, line)
		}
	}

	if !found {
		return nil, types.NotFound("allocated item", itemID)
	}
	if len(open) == 0 {
		return nil, types.Conflict("allocation of item %s has already been returned", itemID)
	}
	return open, nil
}

func requireStaff(actor types.Actor) error {
	return actor.Require(
		types.RoleAdmin,
		types.RoleManager,
		types.RoleSupervisor,
		types.RoleInspector,
		types.RoleCleaner,
	)
}
