package inventoryController

import (
	"context"
	"testing"

	"cleanops/config"
	"cleanops/internal/controllers/tasks"
	"cleanops/internal/database"
	"cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/services"
	"cleanops/internal/testutil"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	controller InventoryControllerInterface
	tasks      taskController.TaskControllerInterface
	db         database.DB
	fixture    testutil.Fixture
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repositories.New(db)
	svc := services.New(db, repos, nil)

	return &testEnv{
		controller: New(repos, svc, db),
		tasks:      taskController.New(repos, svc, config.Config{CleaningExpiryHours: 12}, db),
		db:         db,
		fixture:    testutil.Seed(t, db),
	}
}

func (e *testEnv) manager() types.Actor {
	return testutil.ActorFor(e.fixture.Manager)
}

func (e *testEnv) taskWith(t *testing.T, itemID uuid.UUID, quantity int64) *models.Task {
	t.Helper()

	task, err := e.tasks.CreateTask(context.Background(), e.manager(), &taskController.CreateTaskRequest{
		LocationID: e.fixture.Location.ID,
		RoomID:     e.fixture.Room.ID,
		Cleaners:   []uuid.UUID{e.fixture.Cleaner.ID},
		Inspectors: []uuid.UUID{e.fixture.Inspector.ID},
		CleaningItems: []taskController.CleaningItemLine{
			{ItemID: itemID, Quantity: decimal.NewFromInt(quantity)},
		},
	})
	require.NoError(t, err)
	return task
}

func TestCreateItemAndRestock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item, err := env.controller.CreateItem(ctx, env.manager(), &CreateItemRequest{
		Name:     "  Sanitiser  ",
		Quantity: decimal.NewFromInt(4),
		Unit:     "litre",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sanitiser", item.Name)
	assert.Equal(t, models.CleaningItemKindConsumable, item.Kind)

	restocked, err := env.controller.Restock(ctx, env.manager(), item.ID, &RestockRequest{
		Quantity: decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)
	assert.True(t, restocked.Quantity.Equal(decimal.RequireFromString("6.5")))

	read, err := env.controller.GetItem(ctx, testutil.ActorFor(env.fixture.Cleaner), item.ID)
	require.NoError(t, err)
	assert.True(t, read.Quantity.Equal(decimal.RequireFromString("6.5")))

	items, err := env.controller.ListItems(ctx, testutil.ActorFor(env.fixture.Inspector))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreateItemAndRestock_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
		field   string
	}{
		{
			name: "cleaner cannot create items",
			run: func() error {
				_, err := env.controller.CreateItem(ctx, testutil.ActorFor(env.fixture.Cleaner), &CreateItemRequest{
					Name: "Mop",
				})
				return err
			},
			wantErr: types.ErrForbidden,
		},
		{
			name: "blank name",
			run: func() error {
				_, err := env.controller.CreateItem(ctx, env.manager(), &CreateItemRequest{Name: " "})
				return err
			},
			wantErr: types.ErrValidation,
			field:   "name",
		},
		{
			name: "unknown kind",
			run: func() error {
				_, err := env.controller.CreateItem(ctx, env.manager(), &CreateItemRequest{
					Name: "Mop",
					Kind: "gadget",
				})
				return err
			},
			wantErr: types.ErrValidation,
			field:   "kind",
		},
		{
			name: "restock with zero",
			run: func() error {
				_, err := env.controller.Restock(ctx, env.manager(), uuid.New(), &RestockRequest{})
				return err
			},
			wantErr: types.ErrValidation,
			field:   "quantity",
		},
		{
			name: "initial quantity finer than two places",
			run: func() error {
				_, err := env.controller.CreateItem(ctx, env.manager(), &CreateItemRequest{
					Name:     "Mop",
					Quantity: decimal.RequireFromString("1.234"),
				})
				return err
			},
			wantErr: types.ErrValidation,
			field:   "quantity",
		},
		{
			name: "restock finer than two places",
			run: func() error {
				_, err := env.controller.Restock(ctx, env.manager(), uuid.New(), &RestockRequest{
					Quantity: decimal.RequireFromString("0.005"),
				})
				return err
			},
			wantErr: types.ErrValidation,
			field:   "quantity",
		},
		{
			name: "restock unknown item",
			run: func() error {
				_, err := env.controller.Restock(ctx, env.manager(), uuid.New(), &RestockRequest{
					Quantity: decimal.NewFromInt(1),
				})
				return err
			},
			wantErr: types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.field != "" {
				assert.Equal(t, tt.field, types.FieldOf(err))
			}
		})
	}
}

func TestReturnAllocations_CreditsUndamagedStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, env.db, "Degreaser", "10")
	task := env.taskWith(t, item.ID, 6)
	require.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(4)))

	returned, err := env.controller.ReturnAllocations(ctx, env.manager(), task.ID, &ReturnAllocationsRequest{
		Items: []ReturnedItem{{
			ItemID:          item.ID,
			Quantity:        decimal.NewFromInt(5),
			Damaged:         true,
			DamagedQuantity: decimal.NewFromInt(2),
		}},
	})
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.True(t, returned[0].Credited.Equal(decimal.NewFromInt(3)))
	assert.True(t, returned[0].Quantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(7)))

	_, err = env.controller.ReturnAllocations(ctx, env.manager(), task.ID, &ReturnAllocationsRequest{
		Items: []ReturnedItem{{ItemID: item.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(7)))
}

func TestReturnAllocations_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, env.db, "Degreaser", "10")
	other := testutil.CreateItem(t, env.db, "Brush", "3")
	task := env.taskWith(t, item.ID, 2)

	tests := []struct {
		name    string
		taskID  uuid.UUID
		item    ReturnedItem
		wantErr error
	}{
		{
			name:    "more than allocated",
			taskID:  task.ID,
			item:    ReturnedItem{ItemID: item.ID, Quantity: decimal.NewFromInt(3)},
			wantErr: types.ErrValidation,
		},
		{
			name:    "never allocated",
			taskID:  task.ID,
			item:    ReturnedItem{ItemID: other.ID, Quantity: decimal.NewFromInt(1)},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "unknown task",
			taskID:  uuid.New(),
			item:    ReturnedItem{ItemID: item.ID, Quantity: decimal.NewFromInt(1)},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "quantity finer than two places",
			taskID:  task.ID,
			item:    ReturnedItem{ItemID: item.ID, Quantity: decimal.RequireFromString("0.555")},
			wantErr: types.ErrValidation,
		},
		{
			name:   "damage exceeds quantity",
			taskID: task.ID,
			item: ReturnedItem{
				ItemID:          item.ID,
				Quantity:        decimal.NewFromInt(1),
				Damaged:         true,
				DamagedQuantity: decimal.NewFromInt(2),
			},
			wantErr: types.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.controller.ReturnAllocations(ctx, env.manager(), tt.taskID, &ReturnAllocationsRequest{
				Items: []ReturnedItem{tt.item},
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(8)))
	assert.True(t, testutil.Quantity(t, env.db, other.ID).Equal(decimal.NewFromInt(3)))
}

func TestReturnedItem_FinalQuantity(t *testing.T) {
	assert.True(t, ReturnedItem{Quantity: decimal.NewFromInt(4)}.FinalQuantity().Equal(decimal.NewFromInt(4)))
	assert.True(t, ReturnedItem{
		Quantity:        decimal.NewFromInt(4),
		Damaged:         true,
		DamagedQuantity: decimal.NewFromInt(1),
	}.FinalQuantity().Equal(decimal.NewFromInt(3)))
	assert.True(t, ReturnedItem{
		Quantity:        decimal.NewFromInt(4),
		DamagedQuantity: decimal.NewFromInt(1),
	}.FinalQuantity().Equal(decimal.NewFromInt(4)))
}
