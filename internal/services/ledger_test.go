package services

import (
	"context"
	"sync"
	"testing"

	"cleanops/internal/database"
	"cleanops/internal/repositories"
	"cleanops/internal/testutil"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*LedgerService, *TransactionService, database.DB) {
	db := testutil.NewDB(t)
	return NewLedgerService(repositories.NewCleaningItemRepository()), NewTransactionService(db), db
}

func TestLedgerService_Reserve(t *testing.T) {
	ledger, _, db := newLedger(t)
	sqlDB := db.SQL
	ctx := context.Background()

	itemID := testutil.CreateItem(t, db, "Degreaser", "10").ID

	reserved, err := ledger.Reserve(ctx, sqlDB, itemID, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, reserved.Quantity.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, "Degreaser", reserved.Name)

	tests := []struct {
		name     string
		itemID   uuid.UUID
		quantity decimal.Decimal
		kind     error
	}{
		{"zero quantity", itemID, decimal.Zero, types.ErrValidation},
		{"negative quantity", itemID, decimal.NewFromInt(-1), types.ErrValidation},
		{"finer than two places", itemID, decimal.RequireFromString("0.004"), types.ErrValidation},
		{"more than stock", itemID, decimal.NewFromInt(7), types.ErrInsufficientStock},
		{"unknown item", uuid.New(), decimal.NewFromInt(1), types.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Reserve(ctx, sqlDB, tt.itemID, tt.quantity)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	quantity, err := ledger.ReadQuantity(ctx, sqlDB, itemID)
	require.NoError(t, err)
	assert.True(t, quantity.Equal(decimal.NewFromInt(6)))
}

func TestLedgerService_InsufficientStockNamesItem(t *testing.T) {
	ledger, _, db := newLedger(t)
	sqlDB := db.SQL
	item := testutil.CreateItem(t, db, "Sanitizer", "3")

	_, err := ledger.Reserve(context.Background(), sqlDB, item.ID, decimal.NewFromInt(5))

	require.ErrorIs(t, err, types.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Sanitizer")
	assert.True(t, testutil.Quantity(t, db, item.ID).Equal(decimal.NewFromInt(3)))
}

func TestLedgerService_Return(t *testing.T) {
	ledger, _, db := newLedger(t)
	sqlDB := db.SQL
	ctx := context.Background()
	item := testutil.CreateItem(t, db, "Brush", "1")

	require.NoError(t, ledger.Return(ctx, sqlDB, item.ID, decimal.RequireFromString("2.5")))
	assert.True(
		t,
		testutil.Quantity(t, db, item.ID).Equal(decimal.RequireFromString("3.5")),
	)

	assert.ErrorIs(t, ledger.Return(ctx, sqlDB, uuid.New(), decimal.NewFromInt(1)), types.ErrNotFound)
	assert.ErrorIs(t, ledger.Return(ctx, sqlDB, item.ID, decimal.Zero), types.ErrValidation)
	assert.ErrorIs(
		t,
		ledger.Return(ctx, sqlDB, item.ID, decimal.RequireFromString("1.001")),
		types.ErrValidation,
	)
	assert.True(
		t,
		testutil.Quantity(t, db, item.ID).Equal(decimal.RequireFromString("3.5")),
	)
}

func TestLedgerService_ConcurrentReservesNeverOversell(t *testing.T) {
	tests := []struct {
		name     string
		stock    int64
		quantity int64
		workers  int
	}{
		{"two reservers, one fits", 10, 6, 2},
		{"six reservers of three from ten", 10, 3, 6},
		{"eight reservers of two from seven", 7, 2, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, transaction, db := newLedger(t)
			item := testutil.CreateItem(t, db, "Gloves", decimal.NewFromInt(tt.stock).String())

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int64
				rejected  int64
			)
			for range tt.workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := transaction.Execute(
						context.Background(),
						func(ctx context.Context, tx *gorm.DB) error {
							_, err := ledger.Reserve(ctx, tx, item.ID, decimal.NewFromInt(tt.quantity))
							return err
						},
					)
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						succeeded++
					} else if assert.ErrorIs(t, err, types.ErrInsufficientStock) {
						rejected++
					}
				}()
			}
			wg.Wait()

			fits := tt.stock / tt.quantity
			assert.Equal(t, fits, succeeded)
			assert.Equal(t, int64(tt.workers)-fits, rejected)
			remaining := decimal.NewFromInt(tt.stock - fits*tt.quantity)
			assert.True(t, testutil.Quantity(t, db, item.ID).Equal(remaining))
		})
	}
}
