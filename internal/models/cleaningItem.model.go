package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CleaningItemKind string

const (
	CleaningItemKindConsumable CleaningItemKind = "consumable"
	CleaningItemKindTool       CleaningItemKind = "tool"
)

func (k CleaningItemKind) Valid() bool {
	return k == CleaningItemKindConsumable || k == CleaningItemKindTool
}

// CleaningItem is an inventory row. Quantity only moves through the ledger's
// conditional updates or an administrative restock and never goes negative.
type CleaningItem struct {
	BaseUUIDModel
	Name     string           `gorm:"type:text;not null;index"                                                        json:"name"`
	Quantity decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0;check:chk_cleaning_items_quantity,quantity >= 0" json:"quantity"`
	Unit     string           `gorm:"type:text;not null;default:'unit'"                                               json:"unit"`
	Kind     CleaningItemKind `gorm:"type:text;not null;default:'consumable'"                                         json:"kind"`
}

func (c *CleaningItem) BeforeCreate(tx *gorm.DB) error {
	if c.Name == "" {
		return gorm.ErrInvalidValue
	}
	if c.Quantity.IsNegative() {
		return gorm.ErrInvalidValue
	}
	if c.Kind == "" {
		c.Kind = CleaningItemKindConsumable
	}
	if c.Unit == "" {
		c.Unit = "unit"
	}
	return c.BaseUUIDModel.BeforeCreate(tx)
}
