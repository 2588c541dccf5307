package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// CleaningItemRequest is one entry of a task's request queue. Completed is
// terminal: once set the entry is never revisited.
type CleaningItemRequest struct {
	BaseUUIDModel
	TaskID            uuid.UUID        `gorm:"type:uuid;not null;index"     json:"taskId"`
	CleaningItemID    uuid.UUID        `gorm:"type:uuid;not null;index"     json:"itemId"`
	CleaningItem      *CleaningItem    `gorm:"foreignKey:CleaningItemID"    json:"item,omitempty"`
	RequestedBy       uuid.UUID        `gorm:"type:uuid;not null"           json:"requestedBy"`
	RequestedQuantity decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"requestedQuantity"`
	GrantedQuantity   *decimal.Decimal `gorm:"type:decimal(12,2)"           json:"grantedQuantity,omitempty"`
	CleanerReason     string           `gorm:"type:text"                    json:"cleanerReason"`
	InspectorReason   string           `gorm:"type:text"                    json:"inspectorReason"`
	Approved          bool             `gorm:"not null;default:false"       json:"approved"`
	Completed         bool             `gorm:"not null;default:false;index" json:"completed"`
	CompletedBy       *uuid.UUID       `gorm:"type:uuid"                    json:"completedBy,omitempty"`
	CompletedAt       *time.Time       `                                    json:"completedAt,omitempty"`
}

func (r *CleaningItemRequest) BeforeCreate(tx *gorm.DB) error {
	if r.TaskID == uuid.Nil || r.CleaningItemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if !r.RequestedQuantity.IsPositive() {
		return gorm.ErrInvalidValue
	}
	return r.BaseUUIDModel.BeforeCreate(tx)
}

func (r *CleaningItemRequest) Status() RequestStatus {
	switch {
	case !r.Completed:
		return RequestStatusPending
	case r.Approved:
		return RequestStatusApproved
	default:
		return RequestStatusRejected
	}
}
