package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AllocationSource string

const (
	AllocationSourceTask    AllocationSource = "task"
	AllocationSourceRequest AllocationSource = "request"
)

// RoomCleaningItem is one allocation line of cleaning stock handed to a task.
// Lines are appended on task creation and on every approved request.
type RoomCleaningItem struct {
	BaseUUIDModel
	TaskID         uuid.UUID             `gorm:"type:uuid;not null;index"  json:"taskId"`
	RoomID         uuid.UUID             `gorm:"type:uuid;not null;index"  json:"roomId"`
	CleaningItemID uuid.UUID             `gorm:"type:uuid;not null;index"  json:"itemId"`
	CleaningItem   *CleaningItem         `gorm:"foreignKey:CleaningItemID" json:"item,omitempty"`
	Quantity       decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"quantity"`
	Unit           string                `gorm:"type:text;not null"        json:"unit"`
	Source         AllocationSource      `gorm:"type:text;not null"        json:"source"`
	RequestID      *uuid.UUID            `gorm:"type:uuid"                 json:"requestId,omitempty"`
	Reconciled     bool                  `gorm:"not null;default:false"    json:"reconciled"`
	Receipts       []CleaningItemReceipt `gorm:"foreignKey:RoomCleaningItemID" json:"receipts"`
}

// CleaningItemReceipt records a cleaner confirming they received stock from
// an allocation line.
type CleaningItemReceipt struct {
	BaseUUIDModel
	RoomCleaningItemID uuid.UUID       `gorm:"type:uuid;not null;index"   json:"roomCleaningItemId"`
	CleanerID          uuid.UUID       `gorm:"type:uuid;not null;index"   json:"cleanerId"`
	QuantityAssigned   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantityAssigned"`
}

// AllocatedTotal sums the quantity of lines that reference itemID.
func AllocatedTotal(lines []*RoomCleaningItem, itemID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.CleaningItemID == itemID {
			total = total.Add(line.Quantity)
		}
	}
	return total
}
