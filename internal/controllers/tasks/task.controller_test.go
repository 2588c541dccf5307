package taskController

import (
	"context"
	"testing"
	"time"

	"cleanops/config"
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

var scheduledAt = time.Date(2024, 4, 30, 6, 0, 0, 0, time.UTC)

type testEnv struct {
	controller    *TaskController
	db            database.DB
	fixture       testutil.Fixture
	notifications *testutil.Notifications
	clock         *testutil.Clock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	repos := repositories.New(db)
	controller := New(
		repos,
		services.New(db, repos, nil),
		config.Config{CleaningExpiryHours: 12},
		db,
	).(*TaskController)

	env := &testEnv{
		controller:    controller,
		db:            db,
		fixture:       testutil.Seed(t, db),
		notifications: &testutil.Notifications{},
		clock:         testutil.NewClock(scheduledAt.Add(2 * time.Hour)),
	}
	controller.notifier = env.notifications
	controller.now = env.clock.Now

	return env
}

func (e *testEnv) request() *CreateTaskRequest {
	scheduled := scheduledAt
	return &CreateTaskRequest{
		LocationID:    e.fixture.Location.ID,
		RoomID:        e.fixture.Room.ID,
		Cleaners:      []uuid.UUID{e.fixture.Cleaner.ID},
		Inspectors:    []uuid.UUID{e.fixture.Inspector.ID},
		ScheduledDate: &scheduled,
	}
}

func (e *testEnv) createTask(t *testing.T) *models.Task {
	t.Helper()

	task, err := e.controller.CreateTask(
		context.Background(),
		testutil.ActorFor(e.fixture.Manager),
		e.request(),
	)
	require.NoError(t, err)
	return task
}

func TestCreateTask_StampsItemsAndReservesStock(t *testing.T) {
	env := newTestEnv(t)
	gloves := testutil.CreateItem(t, env.db, "Gloves", "10")

	request := env.request()
	request.CleaningItems = []CleaningItemLine{
		{ItemID: gloves.ID, Quantity: decimal.NewFromInt(4)},
	}

	task, err := env.controller.CreateTask(
		context.Background(),
		testutil.ActorFor(env.fixture.Manager),
		request,
	)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStageClean, task.Stage)
	assert.False(t, task.IsSubmitted)
	assert.Equal(t, 1, task.Version)
	assert.Equal(t, env.fixture.Manager.ID, task.AssignedManager)
	require.Len(t, task.Items, 2)
	for _, item := range task.Items {
		assert.True(t, item.CleaningExpiryAt.Equal(scheduledAt.Add(12*time.Hour)))
		assert.False(t, item.IsDone)
		assert.Nil(t, item.LastCleanedAt)
	}

	assert.True(t, testutil.Quantity(t, env.db, gloves.ID).Equal(decimal.NewFromInt(6)))

	detail, err := env.controller.GetTask(
		context.Background(),
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
	)
	require.NoError(t, err)
	require.Len(t, detail.Allocations, 1)
	assert.Equal(t, models.AllocationSourceTask, detail.Allocations[0].Source)
	assert.True(t, detail.Allocations[0].Quantity.Equal(decimal.NewFromInt(4)))

	assert.Len(t, env.notifications.For(env.fixture.Cleaner.ID), 1)
}

func TestCreateTask_UnscheduledUsesNow(t *testing.T) {
	env := newTestEnv(t)

	request := env.request()
	request.ScheduledDate = nil

	task, err := env.controller.CreateTask(
		context.Background(),
		testutil.ActorFor(env.fixture.Manager),
		request,
	)
	require.NoError(t, err)
	require.NotEmpty(t, task.Items)
	assert.True(t, task.Items[0].CleaningExpiryAt.Equal(env.clock.Now().Add(12*time.Hour)))
}

func TestCreateTask_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		actor   func(e *testEnv) types.Actor
		prepare func(t *testing.T, e *testEnv, r *CreateTaskRequest)
		kind    error
		field   string
	}{
		{
			name:  "cleaner cannot create tasks",
			actor: func(e *testEnv) types.Actor { return testutil.ActorFor(e.fixture.Cleaner) },
			kind:  types.ErrForbidden,
		},
		{
			name: "missing room",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.RoomID = uuid.Nil
			},
			kind:  types.ErrValidation,
			field: "roomId",
		},
		{
			name: "unknown location",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.LocationID = uuid.New()
			},
			kind: types.ErrNotFound,
		},
		{
			name: "unknown room",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.RoomID = uuid.New()
			},
			kind: types.ErrNotFound,
		},
		{
			name: "room from another location",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				other := models.Location{Name: "South Plant"}
				require.NoError(t, e.db.SQL.Create(&other).Error)
				r.LocationID = other.ID
			},
			kind:  types.ErrValidation,
			field: "roomId",
		},
		{
			name: "unknown cleaner",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.Cleaners = []uuid.UUID{uuid.New()}
			},
			kind: types.ErrNotFound,
		},
		{
			name: "inspector listed as cleaner",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.Cleaners = []uuid.UUID{e.fixture.Inspector.ID}
			},
			kind:  types.ErrValidation,
			field: "cleaners",
		},
		{
			name: "fired inspector",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				require.NoError(t, e.db.SQL.Model(&models.User{}).
					Where("id = ?", e.fixture.Inspector.ID).
					Update("flag", models.WorkerFlagFired).Error)
			},
			kind:  types.ErrValidation,
			field: "inspectors",
		},
		{
			name: "item outside the room",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				r.RoomDetailIDs = []uuid.UUID{uuid.New()}
			},
			kind:  types.ErrValidation,
			field: "items",
		},
		{
			name: "zero stock cleaning item",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				empty := testutil.CreateItem(t, e.db, "Bleach", "0")
				r.CleaningItems = []CleaningItemLine{{ItemID: empty.ID, Quantity: decimal.NewFromInt(1)}}
			},
			kind:  types.ErrValidation,
			field: "cleaningItems",
		},
		{
			name: "cleaning item short of stock",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				mops := testutil.CreateItem(t, e.db, "Mop heads", "2")
				r.CleaningItems = []CleaningItemLine{{ItemID: mops.ID, Quantity: decimal.NewFromInt(3)}}
			},
			kind:  types.ErrInsufficientStock,
			field: "quantity",
		},
		{
			name: "room detail listed twice",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				conveyor := e.fixture.Room.Details[0].ID
				r.RoomDetailIDs = []uuid.UUID{conveyor, conveyor, e.fixture.Room.Details[1].ID}
			},
			kind:  types.ErrValidation,
			field: "items",
		},
		{
			name: "cleaning item quantity finer than the store keeps",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				degreaser := testutil.CreateItem(t, e.db, "Degreaser", "10")
				r.CleaningItems = []CleaningItemLine{
					{ItemID: degreaser.ID, Quantity: decimal.RequireFromString("0.004")},
				}
			},
			kind:  types.ErrValidation,
			field: "cleaningItems",
		},
		{
			name: "duplicate open task",
			prepare: func(t *testing.T, e *testEnv, r *CreateTaskRequest) {
				e.createTask(t)
			},
			kind: types.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			actor := testutil.ActorFor(env.fixture.Manager)
			if tt.actor != nil {
				actor = tt.actor(env)
			}
			request := env.request()
			if tt.prepare != nil {
				tt.prepare(t, env, request)
			}

			task, err := env.controller.CreateTask(context.Background(), actor, request)

			assert.Nil(t, task)
			assert.ErrorIs(t, err, tt.kind)
			if tt.field != "" {
				assert.Equal(t, tt.field, types.FieldOf(err))
			}
		})
	}
}

func TestCreateTask_FailedReservationLeavesNoTask(t *testing.T) {
	env := newTestEnv(t)
	gloves := testutil.CreateItem(t, env.db, "Gloves", "5")
	mops := testutil.CreateItem(t, env.db, "Mop heads", "1")

	request := env.request()
	request.CleaningItems = []CleaningItemLine{
		{ItemID: gloves.ID, Quantity: decimal.NewFromInt(2)},
		{ItemID: mops.ID, Quantity: decimal.NewFromInt(2)},
	}

	_, err := env.controller.CreateTask(
		context.Background(),
		testutil.ActorFor(env.fixture.Manager),
		request,
	)
	require.ErrorIs(t, err, types.ErrInsufficientStock)

	var count int64
	require.NoError(t, env.db.SQL.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.True(t, testutil.Quantity(t, env.db, gloves.ID).Equal(decimal.NewFromInt(5)))
}

func TestCreateTask_DifferentDayIsNotDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t)

	request := env.request()
	nextDay := scheduledAt.Add(24 * time.Hour)
	request.ScheduledDate = &nextDay

	_, err := env.controller.CreateTask(
		context.Background(),
		testutil.ActorFor(env.fixture.Manager),
		request,
	)
	assert.NoError(t, err)
}
