package models

import (
	"cleanops/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Directory records are owned by the identity and location services. The
// lifecycle engine only reads them; they are written by the seed command.

type WorkerFlag string

const (
	WorkerFlagActive WorkerFlag = "ACTIVE"
	WorkerFlagFired  WorkerFlag = "FIRED"
)

type User struct {
	BaseUUIDModel
	FirstName string     `gorm:"type:text;not null"               json:"firstName"`
	LastName  string     `gorm:"type:text"                        json:"lastName"`
	Email     *string    `gorm:"type:text;uniqueIndex"            json:"email,omitempty"`
	Role      types.Role `gorm:"type:text;not null;index"         json:"role"`
	Flag      WorkerFlag `gorm:"type:text;not null;default:'ACTIVE'" json:"flag"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.FirstName == "" || !u.Role.Valid() {
		return gorm.ErrInvalidValue
	}
	if u.Flag == "" {
		u.Flag = WorkerFlagActive
	}
	return u.BaseUUIDModel.BeforeCreate(tx)
}

func (u *User) IsActive() bool {
	return u.Flag == WorkerFlagActive
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Location struct {
	BaseUUIDModel
	Name  string `gorm:"type:text;not null"       json:"name"`
	Rooms []Room `gorm:"foreignKey:LocationID"    json:"rooms,omitempty"`
}

type Room struct {
	BaseUUIDModel
	LocationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"locationId"`
	Name       string       `gorm:"type:text;not null"       json:"name"`
	Details    []RoomDetail `gorm:"foreignKey:RoomID"        json:"details,omitempty"`
}

// RoomDetail is one entry of a room's planned item catalogue (a surface, a
// fixture, an asset) that a task must see cleaned.
type RoomDetail struct {
	BaseUUIDModel
	RoomID uuid.UUID `gorm:"type:uuid;not null;index" json:"roomId"`
	Name   string    `gorm:"type:text;not null"       json:"name"`
}
