package repositories

import (
	"context"
	"errors"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CleaningItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *CleaningItem) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*CleaningItem, error)
	List(ctx context.Context, tx *gorm.DB) ([]*CleaningItem, error)
	// Decrement subtracts quantity only while enough stock remains. It reports
	// false when the guard rejected the write.
	Decrement(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) (bool, error)
	Increment(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) (bool, error)
}

type cleaningItemRepository struct{}

func NewCleaningItemRepository() CleaningItemRepository {
	return &cleaningItemRepository{}
}

func (r *cleaningItemRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	item *CleaningItem,
) error {
	log := logger.New("cleaningItemRepository").TraceFromContext(ctx).Function("Create")

	if err := gorm.G[CleaningItem](tx).Create(ctx, item); err != nil {
		return log.Err("failed to create cleaning item", err, "name", item.Name)
	}

	return nil
}

func (r *cleaningItemRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*CleaningItem, error) {
	log := logger.New("cleaningItemRepository").TraceFromContext(ctx).Function("GetByID")

	item, err := gorm.G[*CleaningItem](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("cleaning item", id)
		}
		return nil, log.Err("failed to get cleaning item", err, "itemID", id)
	}

	return item, nil
}

func (r *cleaningItemRepository) List(ctx context.Context, tx *gorm.DB) ([]*CleaningItem, error) {
	log := logger.New("cleaningItemRepository").TraceFromContext(ctx).Function("List")

	items, err := gorm.G[*CleaningItem](tx).Order("name ASC").Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list cleaning items", err)
	}

	return items, nil
}

func (r *cleaningItemRepository) Decrement(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	quantity decimal.Decimal,
) (bool, error) {
	log := logger.New("cleaningItemRepository").TraceFromContext(ctx).Function("Decrement")

	rows, err := gorm.G[CleaningItem](tx).
		Where("id = ? AND quantity >= ?", id, quantity).
		Update(ctx, "quantity", gorm.Expr("quantity - ?", quantity))
	if err != nil {
		return false, log.Err("failed to decrement stock", err, "itemID", id, "quantity", quantity)
	}

	return rows == 1, nil
}

func (r *cleaningItemRepository) Increment(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	quantity decimal.Decimal,
) (bool, error) {
	log := logger.New("cleaningItemRepository").TraceFromContext(ctx).Function("Increment")

	rows, err := gorm.G[CleaningItem](tx).
		Where("id = ?", id).
		Update(ctx, "quantity", gorm.Expr("quantity + ?", quantity))
	if err != nil {
		return false, log.Err("failed to increment stock", err, "itemID", id, "quantity", quantity)
	}

	return rows == 1, nil
}
