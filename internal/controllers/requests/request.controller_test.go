package requestController

import (
	"context"
	"testing"
	"time"

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
	controller    *RequestController
	tasks         taskController.TaskControllerInterface
	db            database.DB
	fixture       testutil.Fixture
	notifications *testutil.Notifications
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repositories.New(db)
	svc := services.New(db, repos, nil)
	controller := New(repos, svc, db).(*RequestController)

	env := &testEnv{
		controller:    controller,
		tasks:         taskController.New(repos, svc, config.Config{CleaningExpiryHours: 12}, db),
		db:            db,
		fixture:       testutil.Seed(t, db),
		notifications: &testutil.Notifications{},
	}
	clock := testutil.NewClock(time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC))
	controller.notifier = env.notifications
	controller.now = clock.Now

	return env
}

func (e *testEnv) createTask(t *testing.T, lines ...taskController.CleaningItemLine) *models.Task {
	t.Helper()

	task, err := e.tasks.CreateTask(
		context.Background(),
		testutil.ActorFor(e.fixture.Manager),
		&taskController.CreateTaskRequest{
			LocationID:    e.fixture.Location.ID,
			RoomID:        e.fixture.Room.ID,
			Cleaners:      []uuid.UUID{e.fixture.Cleaner.ID},
			Inspectors:    []uuid.UUID{e.fixture.Inspector.ID},
			CleaningItems: lines,
		},
	)
	require.NoError(t, err)
	return task
}

func (e *testEnv) raise(t *testing.T, taskID, itemID uuid.UUID, quantity string) *models.CleaningItemRequest {
	t.Helper()

	entries, err := e.controller.Raise(
		context.Background(),
		testutil.ActorFor(e.fixture.Cleaner),
		taskID,
		&RaiseRequest{Items: []RequestedItem{{
			ItemID:   itemID,
			Quantity: decimal.RequireFromString(quantity),
			Reason:   "ran out",
		}}},
	)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestRaise_QueuesPendingEntryAndNotifiesInspector(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.CreateItem(t, env.db, "Degreaser", "5")
	task := env.createTask(t)

	entry := env.raise(t, task.ID, item.ID, "2")
	second := env.raise(t, task.ID, item.ID, "1")

	assert.Equal(t, models.RequestStatusPending, entry.Status())
	assert.Equal(t, env.fixture.Cleaner.ID, entry.RequestedBy)
	assert.NotEqual(t, entry.ID, second.ID)
	assert.Len(t, env.notifications.For(env.fixture.Inspector.ID), 2)

	pending, err := env.controller.List(
		context.Background(),
		testutil.ActorFor(env.fixture.Inspector),
		task.ID,
		models.RequestStatusPending,
	)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRaise_Rejections(t *testing.T) {
	env := newTestEnv(t)
	item := testutil.CreateItem(t, env.db, "Degreaser", "5")
	task := env.createTask(t)

	tests := []struct {
		name    string
		actor   types.Actor
		taskID  uuid.UUID
		itemID  uuid.UUID
		wantErr error
	}{
		{
			name:    "inspector cannot raise",
			actor:   testutil.ActorFor(env.fixture.Inspector),
			taskID:  task.ID,
			itemID:  item.ID,
			wantErr: types.ErrForbidden,
		},
		{
			name:    "unassigned cleaner",
			actor:   testutil.ActorFor(env.fixture.Cleaner2),
			taskID:  task.ID,
			itemID:  item.ID,
			wantErr: types.ErrForbidden,
		},
		{
			name:    "unknown task",
			actor:   testutil.ActorFor(env.fixture.Cleaner),
			taskID:  uuid.New(),
			itemID:  item.ID,
			wantErr: types.ErrNotFound,
		},
		{
			name:    "unknown item",
			actor:   testutil.ActorFor(env.fixture.Cleaner),
			taskID:  task.ID,
			itemID:  uuid.New(),
			wantErr: types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.controller.Raise(context.Background(), tt.actor, tt.taskID, &RaiseRequest{
				Items: []RequestedItem{{ItemID: tt.itemID, Quantity: decimal.NewFromInt(1)}},
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := env.controller.Raise(
		context.Background(),
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&RaiseRequest{Items: []RequestedItem{{ItemID: item.ID, Quantity: decimal.Zero}}},
	)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "items", types.FieldOf(err))

	_, err = env.controller.Raise(
		context.Background(),
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&RaiseRequest{Items: []RequestedItem{{ItemID: item.ID, Quantity: decimal.RequireFromString("0.001")}}},
	)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "items", types.FieldOf(err))

	pending, err := env.controller.List(
		context.Background(),
		testutil.ActorFor(env.fixture.Inspector),
		task.ID,
		models.RequestStatusPending,
	)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApprove_ReservesStockAndAppendsAllocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, env.db, "Degreaser", "3")
	task := env.createTask(t)
	entry := env.raise(t, task.ID, item.ID, "5")
	inspector := testutil.ActorFor(env.fixture.Inspector)

	_, err := env.controller.Approve(ctx, inspector, task.ID, entry.ID, &ApproveRequest{
		GrantedQuantity: decimal.RequireFromString("0.004"),
	})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "grantedQuantity", types.FieldOf(err))

	_, err = env.controller.Approve(ctx, inspector, task.ID, entry.ID, &ApproveRequest{
		GrantedQuantity: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, types.ErrInsufficientStock)
	assert.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(3)))

	stillPending, err := env.controller.List(ctx, inspector, task.ID, models.RequestStatusPending)
	require.NoError(t, err)
	assert.Len(t, stillPending, 1)

	approved, err := env.controller.Approve(ctx, inspector, task.ID, entry.ID, &ApproveRequest{
		GrantedQuantity: decimal.NewFromInt(3),
		Comment:         "all we have",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusApproved, approved.Status())
	require.NotNil(t, approved.GrantedQuantity)
	assert.True(t, approved.GrantedQuantity.Equal(decimal.NewFromInt(3)))
	require.NotNil(t, approved.CompletedBy)
	assert.Equal(t, env.fixture.Inspector.ID, *approved.CompletedBy)
	assert.True(t, testutil.Quantity(t, env.db, item.ID).IsZero())

	lines, err := repositories.NewRoomCleaningItemRepository().ListByTask(ctx, env.db.SQL, task.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.AllocationSourceRequest, lines[0].Source)
	require.NotNil(t, lines[0].RequestID)
	assert.Equal(t, entry.ID, *lines[0].RequestID)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(3)))

	requester := env.notifications.For(env.fixture.Cleaner.ID)
	require.Len(t, requester, 1)
	assert.Equal(t, "Cleaning item request approved", requester[0].Title)
}

func TestCompletedRequestIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, env.db, "Degreaser", "10")
	task := env.createTask(t)
	entry := env.raise(t, task.ID, item.ID, "2")
	inspector := testutil.ActorFor(env.fixture.Inspector)

	rejected, err := env.controller.Reject(ctx, inspector, task.ID, entry.ID, &RejectRequest{Comment: "use the spare"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status())
	assert.Equal(t, "use the spare", rejected.InspectorReason)

	_, err = env.controller.Approve(ctx, inspector, task.ID, entry.ID, &ApproveRequest{
		GrantedQuantity: decimal.NewFromInt(2),
	})
	assert.ErrorIs(t, err, types.ErrInvalidStateTransition)

	_, err = env.controller.Reject(ctx, inspector, task.ID, entry.ID, &RejectRequest{})
	assert.ErrorIs(t, err, types.ErrInvalidStateTransition)

	assert.True(t, testutil.Quantity(t, env.db, item.ID).Equal(decimal.NewFromInt(10)))

	rejectedOnly, err := env.controller.List(ctx, inspector, task.ID, models.RequestStatusRejected)
	require.NoError(t, err)
	assert.Len(t, rejectedOnly, 1)
}

func TestApprove_RequestFromAnotherTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	item := testutil.CreateItem(t, env.db, "Degreaser", "10")
	task := env.createTask(t)
	entry := env.raise(t, task.ID, item.ID, "2")

	other, err := env.tasks.CreateTask(ctx, testutil.ActorFor(env.fixture.Manager), &taskController.CreateTaskRequest{
		LocationID: env.fixture.Location.ID,
		RoomID:     env.fixture.Room.ID,
		Cleaners:   []uuid.UUID{env.fixture.Cleaner2.ID},
		Inspectors: []uuid.UUID{env.fixture.Inspector.ID},
	})
	require.NoError(t, err)

	_, err = env.controller.Approve(ctx, testutil.ActorFor(env.fixture.Inspector), other.ID, entry.ID, &ApproveRequest{
		GrantedQuantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestConfirmReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	allocated := testutil.CreateItem(t, env.db, "Degreaser", "10")
	unallocated := testutil.CreateItem(t, env.db, "Brush", "4")
	task := env.createTask(t, taskController.CleaningItemLine{
		ItemID:   allocated.ID,
		Quantity: decimal.NewFromInt(2),
	})
	cleaner := testutil.ActorFor(env.fixture.Cleaner)

	lines, err := env.controller.ConfirmReceipt(ctx, cleaner, task.ID, &ConfirmReceiptRequest{
		RoomID: env.fixture.Room.ID,
		Items:  []ReceivedItem{{ItemID: allocated.ID, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Receipts, 1)
	assert.Equal(t, env.fixture.Cleaner.ID, lines[0].Receipts[0].CleanerID)
	assert.True(t, lines[0].Receipts[0].QuantityAssigned.Equal(decimal.NewFromInt(2)))

	_, err = env.controller.ConfirmReceipt(ctx, cleaner, task.ID, &ConfirmReceiptRequest{
		RoomID: env.fixture.Room.ID,
		Items:  []ReceivedItem{{ItemID: unallocated.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = env.controller.ConfirmReceipt(ctx, cleaner, task.ID, &ConfirmReceiptRequest{
		RoomID: uuid.New(),
		Items:  []ReceivedItem{{ItemID: allocated.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, "roomId", types.FieldOf(err))

	_, err = env.controller.ConfirmReceipt(ctx, testutil.ActorFor(env.fixture.Cleaner2), task.ID, &ConfirmReceiptRequest{
		RoomID: env.fixture.Room.ID,
		Items:  []ReceivedItem{{ItemID: allocated.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, types.ErrForbidden)
}
