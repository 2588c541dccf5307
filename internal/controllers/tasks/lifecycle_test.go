package taskController

import (
	"context"
	"testing"
	"time"

	"cleanops/internal/models"
	"cleanops/internal/testutil"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveItems_PartialThenComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cleaner := testutil.ActorFor(env.fixture.Cleaner)
	inspector := testutil.ActorFor(env.fixture.Inspector)

	task := env.createTask(t)
	detailA := env.fixture.Room.Details[0].ID
	detailB := env.fixture.Room.Details[1].ID

	task, err := env.controller.SubmitByCleaner(ctx, cleaner, task.ID, &SubmitTaskRequest{CleanTimeSeconds: 600})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStagePreop, task.Stage)

	task, err = env.controller.ApproveItems(ctx, inspector, task.ID, &ApproveItemsRequest{
		DoneItemIDs:      []uuid.UUID{detailA},
		PreOpTimeSeconds: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStageClean, task.Stage)
	assert.False(t, task.IsSubmitted)
	item, ok := task.ItemByDetail(detailA)
	require.True(t, ok)
	assert.True(t, item.IsDone)
	require.NotNil(t, item.LastCleanedAt)
	assert.True(t, item.LastCleanedAt.Equal(env.clock.Now()))

	outstanding := env.notifications.For(env.fixture.Cleaner.ID)
	require.NotEmpty(t, outstanding)
	assert.Equal(t, "Task returned for cleaning", outstanding[len(outstanding)-1].Title)

	task, err = env.controller.ApproveItems(ctx, inspector, task.ID, &ApproveItemsRequest{
		DoneItemIDs:      []uuid.UUID{detailB},
		PreOpTimeSeconds: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStageRelease, task.Stage)
	assert.True(t, task.IsSubmitted)
	assert.True(t, task.AllItemsDone())

	detail, err := env.controller.GetTask(ctx, inspector, task.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.ActualTime)
	assert.Equal(t, []int64{600}, detail.ActualTime.CleanTime.Samples)
	assert.Equal(t, []int64{120, 60}, detail.ActualTime.PreOpTime.Samples)
	require.NotNil(t, detail.ActualTime.ReleaseTime)
	assert.Equal(t, int64(780), *detail.ActualTime.ReleaseTime)
	assert.Equal(t, env.fixture.Cleaner.ID, *detail.ActualTime.CleanTime.ActorID)
	assert.Equal(t, env.fixture.Inspector.ID, *detail.ActualTime.PreOpTime.ActorID)
}

func TestApproveItems_ReleasedTaskIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inspector := testutil.ActorFor(env.fixture.Inspector)

	task := env.createTask(t)
	all := []uuid.UUID{task.Items[0].ID, task.Items[1].ID}

	task, err := env.controller.ApproveItems(ctx, inspector, task.ID, &ApproveItemsRequest{
		DoneItemIDs:      all,
		PreOpTimeSeconds: 30,
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStageRelease, task.Stage)

	_, err = env.controller.ApproveItems(ctx, inspector, task.ID, &ApproveItemsRequest{
		DoneItemIDs:      all,
		PreOpTimeSeconds: 30,
	})
	assert.ErrorIs(t, err, types.ErrInvalidStateTransition)

	_, err = env.controller.SubmitByCleaner(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&SubmitTaskRequest{CleanTimeSeconds: 10},
	)
	assert.ErrorIs(t, err, types.ErrInvalidStateTransition)

	detail, err := env.controller.GetTask(ctx, inspector, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), *detail.ActualTime.ReleaseTime)
}

func TestSubmitByCleaner_ResubmissionOnlyAppendsSample(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cleaner := testutil.ActorFor(env.fixture.Cleaner)

	task := env.createTask(t)

	task, err := env.controller.SubmitByCleaner(ctx, cleaner, task.ID, &SubmitTaskRequest{CleanTimeSeconds: 100})
	require.NoError(t, err)
	task, err = env.controller.SubmitByCleaner(ctx, cleaner, task.ID, &SubmitTaskRequest{CleanTimeSeconds: 50})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStagePreop, task.Stage)
	assert.Equal(t, 2, task.Version)

	detail, err := env.controller.GetTask(ctx, cleaner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 50}, detail.ActualTime.CleanTime.Samples)
	assert.Nil(t, detail.ActualTime.ReleaseTime)
	assert.Len(t, env.notifications.For(env.fixture.Inspector.ID), 1)
}

func TestLifecycle_ActorChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t)

	_, err := env.controller.SubmitByCleaner(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner2),
		task.ID,
		&SubmitTaskRequest{},
	)
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = env.controller.ApproveItems(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&ApproveItemsRequest{},
	)
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = env.controller.ApproveItems(
		ctx,
		testutil.ActorFor(env.fixture.Inspector),
		task.ID,
		&ApproveItemsRequest{DoneItemIDs: []uuid.UUID{uuid.New()}},
	)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = env.controller.SubmitByCleaner(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner),
		uuid.New(),
		&SubmitTaskRequest{},
	)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = env.controller.SubmitByCleaner(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&SubmitTaskRequest{CleanTimeSeconds: -1},
	)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestAdvanceStage_StaleVersionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createTask(t)

	_, err := env.controller.SubmitByCleaner(
		ctx,
		testutil.ActorFor(env.fixture.Cleaner),
		task.ID,
		&SubmitTaskRequest{CleanTimeSeconds: 1},
	)
	require.NoError(t, err)

	moved, err := env.controller.taskRepo.AdvanceStage(ctx, env.db.SQL, task.ID, 1, models.TaskStageClean)
	require.NoError(t, err)
	assert.False(t, moved)

	released, err := env.controller.taskRepo.Release(ctx, env.db.SQL, task.ID, 1)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestGetTask_RecomputesOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inspector := testutil.ActorFor(env.fixture.Inspector)

	task := env.createTask(t)
	_, err := env.controller.ApproveItems(ctx, inspector, task.ID, &ApproveItemsRequest{
		DoneItemIDs: []uuid.UUID{task.Items[0].ID},
	})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	detail, err := env.controller.GetTask(ctx, inspector, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.OverdueCount)

	env.clock.Advance(12 * time.Hour)
	detail, err = env.controller.GetTask(ctx, inspector, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.OverdueCount)
}

func TestSweepOverdue_PersistsFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := env.createTask(t)
	_, err := env.controller.ApproveItems(
		ctx,
		testutil.ActorFor(env.fixture.Inspector),
		task.ID,
		&ApproveItemsRequest{DoneItemIDs: []uuid.UUID{task.Items[0].ID}},
	)
	require.NoError(t, err)

	count, err := env.controller.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var stored []models.TaskItem
	require.NoError(t, env.db.SQL.Where("task_id = ?", task.ID).Find(&stored).Error)
	flags := map[uuid.UUID]bool{}
	for _, item := range stored {
		flags[item.ID] = item.IsOverdue
	}
	assert.False(t, flags[task.Items[0].ID])
	assert.True(t, flags[task.Items[1].ID])
}
