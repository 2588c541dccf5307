package services

import (
	"context"

	"cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the only writer of cleaning item quantities outside an
// administrative restock. Each movement is a single guarded update so
// concurrent reservations can never drive stock negative.
type LedgerService struct {
	items repositories.CleaningItemRepository
	log   logger.Logger
}

func NewLedgerService(items repositories.CleaningItemRepository) *LedgerService {
	return &LedgerService{
		items: items,
		log:   logger.New("LedgerService"),
	}
}

// Reserve removes quantity from stock and returns the item as it stands after
// the reservation.
func (s *LedgerService) Reserve(
	ctx context.Context,
	tx *gorm.DB,
	itemID uuid.UUID,
	quantity decimal.Decimal,
) (*models.CleaningItem, error) {
	log := s.log.TraceFromContext(ctx).Function("Reserve")

	if !quantity.IsPositive() {
		return nil, types.Validation("quantity", "quantity must be positive")
	}
	if err := types.CheckQuantityScale("quantity", quantity); err != nil {
		return nil, err
	}

	ok, err := s.items.Decrement(ctx, tx, itemID, quantity)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	if !ok {
		log.Info(
			"Reservation rejected",
			"itemID",
			itemID,
			"requested",
			quantity,
			"available",
			item.Quantity,
		)
		return nil, types.InsufficientStock(item.Name, item.Quantity, quantity)
	}

	return item, nil
}

// Return puts quantity back into stock.
func (s *LedgerService) Return(
	ctx context.Context,
	tx *gorm.DB,
	itemID uuid.UUID,
	quantity decimal.Decimal,
) error {
	if !quantity.IsPositive() {
		return types.Validation("quantity", "quantity must be positive")
	}
	if err := types.CheckQuantityScale("quantity", quantity); err != nil {
		return err
	}

	ok, err := s.items.Increment(ctx, tx, itemID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return types.NotFound("cleaning item", itemID)
	}

	return nil
}

func (s *LedgerService) ReadQuantity(
	ctx context.Context,
	tx *gorm.DB,
	itemID uuid.UUID,
) (decimal.Decimal, error) {
	item, err := s.items.GetByID(ctx, tx, itemID)
	if err != nil {
		return decimal.Zero, err
	}

	return item.Quantity, nil
}
