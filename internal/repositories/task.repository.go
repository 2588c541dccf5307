package repositories

import (
	"context"
	"errors"
	"time"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Create(ctx context.Context, tx *gorm.DB, task *Task) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Task, error)
	FindOpenForRoom(
		ctx context.Context,
		tx *gorm.DB,
		locationID uuid.UUID,
		roomID uuid.UUID,
	) ([]*Task, error)
	ListOpen(ctx context.Context, tx *gorm.DB) ([]*Task, error)
	// AdvanceStage moves an unsubmitted task to stage when its version still
	// matches. It reports false when another writer got there first.
	AdvanceStage(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		version int,
		stage TaskStage,
	) (bool, error)
	// Release moves the task to release and marks it submitted.
	Release(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int) (bool, error)
	MarkItemsCleaned(
		ctx context.Context,
		tx *gorm.DB,
		taskID uuid.UUID,
		itemIDs []uuid.UUID,
		at time.Time,
	) error
	SetOverdue(ctx context.Context, tx *gorm.DB, itemIDs []uuid.UUID, overdue bool) error
}

type taskRepository struct{}

func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

// Create inserts the task and its items in one statement batch.
func (r *taskRepository) Create(ctx context.Context, tx *gorm.DB, task *Task) error {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("Create")

	if err := gorm.G[Task](tx).Create(ctx, task); err != nil {
		return log.Err("failed to create task", err, "roomID", task.RoomID)
	}

	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Task, error) {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("GetByID")

	task, err := gorm.G[*Task](tx).
		Preload("Items", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("task", id)
		}
		return nil, log.Err("failed to get task", err, "taskID", id)
	}

	return task, nil
}

func (r *taskRepository) FindOpenForRoom(
	ctx context.Context,
	tx *gorm.DB,
	locationID uuid.UUID,
	roomID uuid.UUID,
) ([]*Task, error) {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("FindOpenForRoom")

	tasks, err := gorm.G[*Task](tx).
		Where("location_id = ? AND room_id = ? AND is_submitted = ?", locationID, roomID, false).
		Find(ctx)
	if err != nil {
		return nil, log.Err(
			"failed to find open tasks",
			err,
			"locationID",
			locationID,
			"roomID",
			roomID,
		)
	}

	return tasks, nil
}

func (r *taskRepository) ListOpen(ctx context.Context, tx *gorm.DB) ([]*Task, error) {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("ListOpen")

	tasks, err := gorm.G[*Task](tx).
		Preload("Items", nil).
		Where("is_submitted = ?", false).
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list open tasks", err)
	}

	return tasks, nil
}

func (r *taskRepository) AdvanceStage(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	version int,
	stage TaskStage,
) (bool, error) {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("AdvanceStage")

	rows, err := gorm.G[Task](tx).
		Where("id = ? AND version = ? AND is_submitted = ?", id, version, false).
		Updates(ctx, Task{Stage: stage, Version: version + 1})
	if err != nil {
		return false, log.Err("failed to advance task stage", err, "taskID", id, "stage", stage)
	}

	return rows == 1, nil
}

func (r *taskRepository) Release(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	version int,
) (bool, error) {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("Release")

	rows, err := gorm.G[Task](tx).
		Where("id = ? AND version = ? AND is_submitted = ?", id, version, false).
		Updates(ctx, Task{Stage: TaskStageRelease, IsSubmitted: true, Version: version + 1})
	if err != nil {
		return false, log.Err("failed to release task", err, "taskID", id)
	}

	return rows == 1, nil
}

func (r *taskRepository) MarkItemsCleaned(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
	itemIDs []uuid.UUID,
	at time.Time,
) error {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("MarkItemsCleaned")

	if len(itemIDs) == 0 {
		return nil
	}

	_, err := gorm.G[TaskItem](tx).
		Where("task_id = ? AND id IN ?", taskID, itemIDs).
		Updates(ctx, TaskItem{IsDone: true, LastCleanedAt: &at})
	if err != nil {
		return log.Err("failed to mark items cleaned", err, "taskID", taskID, "count", len(itemIDs))
	}

	return nil
}

func (r *taskRepository) SetOverdue(
	ctx context.Context,
	tx *gorm.DB,
	itemIDs []uuid.UUID,
	overdue bool,
) error {
	log := logger.New("taskRepository").TraceFromContext(ctx).Function("SetOverdue")

	if len(itemIDs) == 0 {
		return nil
	}

	_, err := gorm.G[TaskItem](tx).
		Where("id IN ?", itemIDs).
		Update(ctx, "is_overdue", overdue)
	if err != nil {
		return log.Err("failed to update overdue flags", err, "count", len(itemIDs))
	}

	return nil
}
