package repositories_test

import (
	"context"
	"testing"

	"cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActualTimeRepository_GetOrCreate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewActualTimeRepository()
	ctx := context.Background()
	taskID := uuid.New()

	first, err := repo.GetOrCreate(ctx, db.SQL, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, first.TaskID)

	second, err := repo.GetOrCreate(ctx, db.SQL, taskID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.SQL.Model(&models.ActualTime{}).Where("task_id = ?", taskID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestActualTimeRepository_GetOrCreateKeepsRowWrittenByAnotherActor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewActualTimeRepository()
	ctx := context.Background()
	taskID := uuid.New()

	committed := models.ActualTime{TaskID: taskID}
	require.NoError(t, db.SQL.Create(&committed).Error)

	record, err := repo.GetOrCreate(ctx, db.SQL, taskID)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, record.ID)

	var count int64
	require.NoError(t, db.SQL.Model(&models.ActualTime{}).Where("task_id = ?", taskID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
