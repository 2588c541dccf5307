package repositories

import (
	"context"
	"errors"
	"time"

	"cleanops/internal/database"
	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	STAGE_PROGRESS_CACHE_PREFIX = "stage_progress"
	STAGE_PROGRESS_CACHE_EXPIRY = 24 * time.Hour
)

type FacilityTimerRepository interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, workOrderID uuid.UUID) (*FacilityTimer, error)
	ListStages(ctx context.Context, tx *gorm.DB, workOrderID uuid.UUID) ([]FacilityTimerStage, error)
	GetStage(
		ctx context.Context,
		tx *gorm.DB,
		workOrderID uuid.UUID,
		name string,
	) (*FacilityTimerStage, error)
	// CreateStage records a started stage. A second start of the same stage
	// name for a work order is reported as a conflict.
	CreateStage(ctx context.Context, tx *gorm.DB, stage *FacilityTimerStage) error
	// StopStage closes a started stage. It reports false when the stage had
	// already been stopped.
	StopStage(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		stoppedBy uuid.UUID,
		at time.Time,
	) (bool, error)

	GetCachedProgress(ctx context.Context, workOrderID uuid.UUID) (*WorkOrderProgress, bool)
	SetCachedProgress(ctx context.Context, workOrderID uuid.UUID, progress *WorkOrderProgress)
	ClearCachedProgress(ctx context.Context, workOrderID uuid.UUID)
}

type facilityTimerRepository struct {
	cache database.CacheClient
}

func NewFacilityTimerRepository(cache database.CacheClient) FacilityTimerRepository {
	return &facilityTimerRepository{
		cache: cache,
	}
}

func (r *facilityTimerRepository) GetOrCreate(
	ctx context.Context,
	tx *gorm.DB,
	workOrderID uuid.UUID,
) (*FacilityTimer, error) {
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("GetOrCreate")

	timer, err := gorm.G[*FacilityTimer](tx).Where("work_order_id = ?", workOrderID).First(ctx)
	if err == nil {
		return timer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, log.Err("failed to get facility timer", err, "workOrderID", workOrderID)
	}

	created := &FacilityTimer{WorkOrderID: workOrderID}
	err = gorm.G[FacilityTimer](tx.Clauses(clause.OnConflict{DoNothing: true})).Create(ctx, created)
	if err != nil {
		return nil, log.Err("failed to create facility timer", err, "workOrderID", workOrderID)
	}

	timer, err = gorm.G[*FacilityTimer](tx).Where("work_order_id = ?", workOrderID).First(ctx)
	if err != nil {
		return nil, log.Err("failed to reload facility timer", err, "workOrderID", workOrderID)
	}

	return timer, nil
}

func (r *facilityTimerRepository) ListStages(
	ctx context.Context,
	tx *gorm.DB,
	workOrderID uuid.UUID,
) ([]FacilityTimerStage, error) {
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("ListStages")

	stages, err := gorm.G[FacilityTimerStage](tx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list timer stages", err, "workOrderID", workOrderID)
	}

	return stages, nil
}

func (r *facilityTimerRepository) GetStage(
	ctx context.Context,
	tx *gorm.DB,
	workOrderID uuid.UUID,
	name string,
) (*FacilityTimerStage, error) {
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("GetStage")

	stage, err := gorm.G[*FacilityTimerStage](tx).
		Where("work_order_id = ? AND name = ?", workOrderID, name).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("stage", name)
		}
		return nil, log.Err("failed to get timer stage", err, "workOrderID", workOrderID, "name", name)
	}

	return stage, nil
}

func (r *facilityTimerRepository) CreateStage(
	ctx context.Context,
	tx *gorm.DB,
	stage *FacilityTimerStage,
) error {
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("CreateStage")

	if err := gorm.G[FacilityTimerStage](tx).Create(ctx, stage); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.Conflict("stage %s already started", stage.Name)
		}
		return log.Err(
			"failed to create timer stage",
			err,
			"workOrderID",
			stage.WorkOrderID,
			"name",
			stage.Name,
		)
	}

	return nil
}

func (r *facilityTimerRepository) StopStage(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	stoppedBy uuid.UUID,
	at time.Time,
) (bool, error) {
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("StopStage")

	rows, err := gorm.G[FacilityTimerStage](tx).
		Where("id = ? AND actual_stop_time IS NULL", id).
		Updates(ctx, FacilityTimerStage{ActualStopTime: &at, StoppedBy: &stoppedBy})
	if err != nil {
		return false, log.Err("failed to stop timer stage", err, "stageID", id)
	}

	return rows == 1, nil
}

func (r *facilityTimerRepository) GetCachedProgress(
	ctx context.Context,
	workOrderID uuid.UUID,
) (*WorkOrderProgress, bool) {
	if r.cache == nil {
		return nil, false
	}
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("GetCachedProgress")

	progress := &WorkOrderProgress{}
	found, err := database.NewCacheBuilder(r.cache, workOrderID).
		WithContext(ctx).
		WithHash(STAGE_PROGRESS_CACHE_PREFIX).
		Get(progress)
	if err != nil {
		log.Warn("failed to get stage progress from cache", "workOrderID", workOrderID, "error", err)
		return nil, false
	}

	return progress, found
}

func (r *facilityTimerRepository) SetCachedProgress(
	ctx context.Context,
	workOrderID uuid.UUID,
	progress *WorkOrderProgress,
) {
	if r.cache == nil {
		return
	}
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("SetCachedProgress")

	err := database.NewCacheBuilder(r.cache, workOrderID).
		WithContext(ctx).
		WithHash(STAGE_PROGRESS_CACHE_PREFIX).
		WithStruct(progress).
		WithTTL(STAGE_PROGRESS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to set stage progress in cache", "workOrderID", workOrderID, "error", err)
	}
}

func (r *facilityTimerRepository) ClearCachedProgress(ctx context.Context, workOrderID uuid.UUID) {
	if r.cache == nil {
		return
	}
	log := logger.New("facilityTimerRepository").TraceFromContext(ctx).Function("ClearCachedProgress")

	err := database.NewCacheBuilder(r.cache, workOrderID).
		WithContext(ctx).
		WithHash(STAGE_PROGRESS_CACHE_PREFIX).
		Delete()
	if err != nil {
		log.Warn("failed to clear stage progress cache", "workOrderID", workOrderID, "error", err)
	}
}
