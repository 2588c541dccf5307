package repositories_test

import (
	"context"
	"testing"

	"cleanops/internal/repositories"
	"cleanops/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaningItemRepository_DecrementGuard(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewCleaningItemRepository()
	ctx := context.Background()
	item := testutil.CreateItem(t, db, "Degreaser", "5")

	ok, err := repo.Decrement(ctx, db.SQL, item.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, testutil.Quantity(t, db, item.ID).Equal(decimal.NewFromInt(5)))

	ok, err = repo.Decrement(ctx, db.SQL, uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Decrement(ctx, db.SQL, item.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, testutil.Quantity(t, db, item.ID).IsZero())
}

func TestCleaningItemRepository_DecrementChecksCurrentStock(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewCleaningItemRepository()
	ctx := context.Background()
	item := testutil.CreateItem(t, db, "Gloves", "5")

	seen, err := repo.GetByID(ctx, db.SQL, item.ID)
	require.NoError(t, err)

	ok, err := repo.Decrement(ctx, db.SQL, item.ID, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.True(t, ok)

	// A writer acting on the quantity it read earlier must not take stock
	// that has since gone.
	ok, err = repo.Decrement(ctx, db.SQL, item.ID, seen.Quantity)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, testutil.Quantity(t, db, item.ID).Equal(decimal.NewFromInt(2)))
}

func TestCleaningItemRepository_Increment(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewCleaningItemRepository()
	ctx := context.Background()
	item := testutil.CreateItem(t, db, "Brush", "1")

	ok, err := repo.Increment(ctx, db.SQL, item.ID, decimal.RequireFromString("1.25"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, testutil.Quantity(t, db, item.ID).Equal(decimal.RequireFromString("2.25")))

	ok, err = repo.Increment(ctx, db.SQL, uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}
