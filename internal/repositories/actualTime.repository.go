package repositories

import (
	"context"
	"errors"

	. "cleanops/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActualTimeRepository interface {
	// GetOrCreate returns the task's time record, creating an empty one on
	// first use.
	GetOrCreate(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*ActualTime, error)
	GetByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*ActualTime, error)
	AddSample(ctx context.Context, tx *gorm.DB, sample *ActualTimeSample) error
	SetActor(ctx context.Context, tx *gorm.DB, id uuid.UUID, phase TimePhase, actorID uuid.UUID) error
	// SetReleaseTime writes the release total once. It reports false when a
	// total was already recorded.
	SetReleaseTime(ctx context.Context, tx *gorm.DB, id uuid.UUID, seconds int64) (bool, error)
}

type actualTimeRepository struct{}

func NewActualTimeRepository() ActualTimeRepository {
	return &actualTimeRepository{}
}

func (r *actualTimeRepository) GetOrCreate(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) (*ActualTime, error) {
	log := logger.New("actualTimeRepository").TraceFromContext(ctx).Function("GetOrCreate")

	// Two actors may record the first sample of a task at once; the loser's
	// insert is ignored and both read the same row.
	created := &ActualTime{TaskID: taskID}
	err := gorm.G[ActualTime](tx.Clauses(clause.OnConflict{DoNothing: true})).Create(ctx, created)
	if err != nil {
		return nil, log.Err("failed to create actual time", err, "taskID", taskID)
	}

	record, err := r.GetByTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, log.ErrMsg("actual time missing after insert")
	}

	return record, nil
}

// GetByTask returns nil without error when the task has no record yet.
func (r *actualTimeRepository) GetByTask(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) (*ActualTime, error) {
	log := logger.New("actualTimeRepository").TraceFromContext(ctx).Function("GetByTask")

	record, err := gorm.G[*ActualTime](tx).
		Preload("Samples", nil).
		Where("task_id = ?", taskID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get actual time", err, "taskID", taskID)
	}

	return record, nil
}

func (r *actualTimeRepository) AddSample(
	ctx context.Context,
	tx *gorm.DB,
	sample *ActualTimeSample,
) error {
	log := logger.New("actualTimeRepository").TraceFromContext(ctx).Function("AddSample")

	if err := gorm.G[ActualTimeSample](tx).Create(ctx, sample); err != nil {
		return log.Err(
			"failed to add time sample",
			err,
			"actualTimeID",
			sample.ActualTimeID,
			"phase",
			sample.Phase,
		)
	}

	return nil
}

func (r *actualTimeRepository) SetActor(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	phase TimePhase,
	actorID uuid.UUID,
) error {
	log := logger.New("actualTimeRepository").TraceFromContext(ctx).Function("SetActor")

	column := "cleaner_id"
	if phase == TimePhasePreop {
		column = "inspector_id"
	}

	if _, err := gorm.G[ActualTime](tx).Where("id = ?", id).Update(ctx, column, actorID); err != nil {
		return log.Err("failed to set time actor", err, "actualTimeID", id, "phase", phase)
	}

	return nil
}

func (r *actualTimeRepository) SetReleaseTime(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	seconds int64,
) (bool, error) {
	log := logger.New("actualTimeRepository").TraceFromContext(ctx).Function("SetReleaseTime")

	rows, err := gorm.G[ActualTime](tx).
		Where("id = ? AND release_time_seconds IS NULL", id).
		Update(ctx, "release_time_seconds", seconds)
	if err != nil {
		return false, log.Err("failed to set release time", err, "actualTimeID", id)
	}

	return rows == 1, nil
}
