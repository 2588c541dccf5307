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

type WorkOrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, workOrder *FacilityWorkOrder) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*FacilityWorkOrder, error)
	FindForLocationDay(
		ctx context.Context,
		tx *gorm.DB,
		locationID uuid.UUID,
		dayStart time.Time,
	) ([]*FacilityWorkOrder, error)
	AddNote(ctx context.Context, tx *gorm.DB, note *WorkOrderStageNote) error
	// MarkCompleted reports false when the work order was already completed.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
	ListDueRepeats(ctx context.Context, tx *gorm.DB, now time.Time) ([]*FacilityWorkOrder, error)
	// MarkRepeated claims a work order for repetition. It reports false when
	// another run already repeated it.
	MarkRepeated(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
}

type workOrderRepository struct{}

func NewWorkOrderRepository() WorkOrderRepository {
	return &workOrderRepository{}
}

func (r *workOrderRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	workOrder *FacilityWorkOrder,
) error {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("Create")

	if err := gorm.G[FacilityWorkOrder](tx).Create(ctx, workOrder); err != nil {
		return log.Err(
			"failed to create work order",
			err,
			"locationID",
			workOrder.LocationID,
			"scheduledDate",
			workOrder.ScheduledDate,
		)
	}

	return nil
}

func (r *workOrderRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*FacilityWorkOrder, error) {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("GetByID")

	workOrder, err := gorm.G[*FacilityWorkOrder](tx).
		Preload("Stages", func(db gorm.PreloadBuilder) error {
			db.Order("position ASC")
			return nil
		}).
		Preload("Stages.Notes", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("work order", id)
		}
		return nil, log.Err("failed to get work order", err, "workOrderID", id)
	}

	return workOrder, nil
}

func (r *workOrderRepository) FindForLocationDay(
	ctx context.Context,
	tx *gorm.DB,
	locationID uuid.UUID,
	dayStart time.Time,
) ([]*FacilityWorkOrder, error) {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("FindForLocationDay")

	workOrders, err := gorm.G[*FacilityWorkOrder](tx).
		Where(
			"location_id = ? AND scheduled_date >= ? AND scheduled_date < ?",
			locationID,
			dayStart,
			dayStart.Add(24*time.Hour),
		).
		Find(ctx)
	if err != nil {
		return nil, log.Err(
			"failed to find work orders for day",
			err,
			"locationID",
			locationID,
			"day",
			dayStart,
		)
	}

	return workOrders, nil
}

func (r *workOrderRepository) AddNote(
	ctx context.Context,
	tx *gorm.DB,
	note *WorkOrderStageNote,
) error {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("AddNote")

	if err := gorm.G[WorkOrderStageNote](tx).Create(ctx, note); err != nil {
		return log.Err("failed to add stage note", err, "stageID", note.StageID)
	}

	return nil
}

func (r *workOrderRepository) MarkCompleted(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) (bool, error) {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("MarkCompleted")

	rows, err := gorm.G[FacilityWorkOrder](tx).
		Where("id = ? AND completed = ?", id, false).
		Updates(ctx, FacilityWorkOrder{Completed: true, CompletedAt: &at})
	if err != nil {
		return false, log.Err("failed to complete work order", err, "workOrderID", id)
	}

	return rows == 1, nil
}

func (r *workOrderRepository) ListDueRepeats(
	ctx context.Context,
	tx *gorm.DB,
	now time.Time,
) ([]*FacilityWorkOrder, error) {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("ListDueRepeats")

	workOrders, err := gorm.G[*FacilityWorkOrder](tx).
		Preload("Stages", nil).
		Where(
			"completed = ? AND repeat <> ? AND repeated_at IS NULL AND repeat_date IS NOT NULL AND repeat_date <= ?",
			true,
			RepeatNone,
			now,
		).
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list due repeats", err)
	}

	return workOrders, nil
}

func (r *workOrderRepository) MarkRepeated(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) (bool, error) {
	log := logger.New("workOrderRepository").TraceFromContext(ctx).Function("MarkRepeated")

	rows, err := gorm.G[FacilityWorkOrder](tx).
		Where("id = ? AND repeated_at IS NULL", id).
		Update(ctx, "repeated_at", at)
	if err != nil {
		return false, log.Err("failed to mark work order repeated", err, "workOrderID", id)
	}

	return rows == 1, nil
}
