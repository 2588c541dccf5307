package repositories

import (
	"context"
	"errors"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomCleaningItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, line *RoomCleaningItem) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*RoomCleaningItem, error)
	ListByTask(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*RoomCleaningItem, error)
	// MarkReconciled flags a line as returned to stock. It reports false when
	// the line was already reconciled.
	MarkReconciled(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	CreateReceipt(ctx context.Context, tx *gorm.DB, receipt *CleaningItemReceipt) error
}

type roomCleaningItemRepository struct{}

func NewRoomCleaningItemRepository() RoomCleaningItemRepository {
	return &roomCleaningItemRepository{}
}

func (r *roomCleaningItemRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	line *RoomCleaningItem,
) error {
	log := logger.New("roomCleaningItemRepository").TraceFromContext(ctx).Function("Create")

	if err := gorm.G[RoomCleaningItem](tx.Omit("CleaningItem")).Create(ctx, line); err != nil {
		return log.Err(
			"failed to create allocation line",
			err,
			"taskID",
			line.TaskID,
			"itemID",
			line.CleaningItemID,
		)
	}

	return nil
}

func (r *roomCleaningItemRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*RoomCleaningItem, error) {
	log := logger.New("roomCleaningItemRepository").TraceFromContext(ctx).Function("GetByID")

	line, err := gorm.G[*RoomCleaningItem](tx).
		Preload("CleaningItem", nil).
		Preload("Receipts", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("allocation", id)
		}
		return nil, log.Err("failed to get allocation line", err, "lineID", id)
	}

	return line, nil
}

func (r *roomCleaningItemRepository) ListByTask(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) ([]*RoomCleaningItem, error) {
	log := logger.New("roomCleaningItemRepository").TraceFromContext(ctx).Function("ListByTask")

	lines, err := gorm.G[*RoomCleaningItem](tx).
		Preload("CleaningItem", nil).
		Preload("Receipts", nil).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list allocation lines", err, "taskID", taskID)
	}

	return lines, nil
}

func (r *roomCleaningItemRepository) MarkReconciled(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (bool, error) {
	log := logger.New("roomCleaningItemRepository").TraceFromContext(ctx).Function("MarkReconciled")

	rows, err := gorm.G[RoomCleaningItem](tx).
		Where("id = ? AND reconciled = ?", id, false).
		Update(ctx, "reconciled", true)
	if err != nil {
		return false, log.Err("failed to reconcile allocation line", err, "lineID", id)
	}

	return rows == 1, nil
}

func (r *roomCleaningItemRepository) CreateReceipt(
	ctx context.Context,
	tx *gorm.DB,
	receipt *CleaningItemReceipt,
) error {
	log := logger.New("roomCleaningItemRepository").TraceFromContext(ctx).Function("CreateReceipt")

	if err := gorm.G[CleaningItemReceipt](tx).Create(ctx, receipt); err != nil {
		return log.Err(
			"failed to create receipt",
			err,
			"lineID",
			receipt.RoomCleaningItemID,
			"cleanerID",
			receipt.CleanerID,
		)
	}

	return nil
}
