package repositories

import (
	"context"
	"errors"
	"time"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestOutcome is the terminal decision written onto a queue entry.
type RequestOutcome struct {
	Approved        bool
	GrantedQuantity *decimal.Decimal
	InspectorReason string
	CompletedBy     uuid.UUID
	CompletedAt     time.Time
}

type CleaningItemRequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *CleaningItemRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*CleaningItemRequest, error)
	ListByTask(
		ctx context.Context,
		tx *gorm.DB,
		taskID uuid.UUID,
		status RequestStatus,
	) ([]*CleaningItemRequest, error)
	// Complete closes a pending entry. It reports false when the entry had
	// already been completed by someone else.
	Complete(ctx context.Context, tx *gorm.DB, id uuid.UUID, outcome RequestOutcome) (bool, error)
}

type cleaningItemRequestRepository struct{}

func NewCleaningItemRequestRepository() CleaningItemRequestRepository {
	return &cleaningItemRequestRepository{}
}

func (r *cleaningItemRequestRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	request *CleaningItemRequest,
) error {
	log := logger.New("cleaningItemRequestRepository").TraceFromContext(ctx).Function("Create")

	if err := gorm.G[CleaningItemRequest](tx.Omit("CleaningItem")).Create(ctx, request); err != nil {
		return log.Err(
			"failed to create request",
			err,
			"taskID",
			request.TaskID,
			"itemID",
			request.CleaningItemID,
		)
	}

	return nil
}

func (r *cleaningItemRequestRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*CleaningItemRequest, error) {
	log := logger.New("cleaningItemRequestRepository").TraceFromContext(ctx).Function("GetByID")

	request, err := gorm.G[*CleaningItemRequest](tx).
		Preload("CleaningItem", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("request", id)
		}
		return nil, log.Err("failed to get request", err, "requestID", id)
	}

	return request, nil
}

// ListByTask filters by status when one is given; an empty status lists all.
func (r *cleaningItemRequestRepository) ListByTask(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
	status RequestStatus,
) ([]*CleaningItemRequest, error) {
	log := logger.New("cleaningItemRequestRepository").TraceFromContext(ctx).Function("ListByTask")

	query := gorm.G[*CleaningItemRequest](tx).
		Preload("CleaningItem", nil).
		Where("task_id = ?", taskID)

	switch status {
	case RequestStatusPending:
		query = query.Where("completed = ?", false)
	case RequestStatusApproved:
		query = query.Where("completed = ? AND approved = ?", true, true)
	case RequestStatusRejected:
		query = query.Where("completed = ? AND approved = ?", true, false)
	}

	requests, err := query.Order("created_at ASC").Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list requests", err, "taskID", taskID, "status", status)
	}

	return requests, nil
}

func (r *cleaningItemRequestRepository) Complete(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	outcome RequestOutcome,
) (bool, error) {
	log := logger.New("cleaningItemRequestRepository").TraceFromContext(ctx).Function("Complete")

	completedBy := outcome.CompletedBy
	completedAt := outcome.CompletedAt
	rows, err := gorm.G[CleaningItemRequest](tx).
		Where("id = ? AND completed = ?", id, false).
		Select("completed", "approved", "granted_quantity", "inspector_reason", "completed_by", "completed_at").
		Updates(ctx, CleaningItemRequest{
			Completed:       true,
			Approved:        outcome.Approved,
			GrantedQuantity: outcome.GrantedQuantity,
			InspectorReason: outcome.InspectorReason,
			CompletedBy:     &completedBy,
			CompletedAt:     &completedAt,
		})
	if err != nil {
		return false, log.Err("failed to complete request", err, "requestID", id)
	}

	return rows == 1, nil
}
