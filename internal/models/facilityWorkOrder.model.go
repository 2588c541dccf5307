package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RepeatRule string

const (
	RepeatNone     RepeatRule = "none"
	RepeatDaily    RepeatRule = "daily"
	RepeatWeekly   RepeatRule = "weekly"
	RepeatBiweekly RepeatRule = "biweekly"
	RepeatMonthly  RepeatRule = "monthly"
	RepeatYearly   RepeatRule = "yearly"
)

// FacilityWorkOrder owns the planned stage sequence for one facility day.
// Actual timings live on the FacilityTimer keyed by the work order id.
type FacilityWorkOrder struct {
	BaseUUIDModel
	LocationID          uuid.UUID                     `gorm:"type:uuid;not null;index:idx_work_orders_location_date" json:"facilityId"`
	ScheduledDate       time.Time                     `gorm:"not null;index:idx_work_orders_location_date"           json:"scheduledDate"`
	AssignedSupervisors datatypes.JSONSlice[uuid.UUID] `gorm:"not null"                                               json:"assignedSupervisors"`
	AssignedRooms       datatypes.JSONSlice[uuid.UUID] `gorm:"not null"                                               json:"assignedRooms"`
	AssignedManager     uuid.UUID                     `gorm:"type:uuid;not null"                                     json:"assignedManager"`
	Repeat              RepeatRule                    `gorm:"type:text;not null;default:'none'"                      json:"repeat"`
	RepeatDate          *time.Time                    `gorm:"index"                                                  json:"repeatDate,omitempty"`
	RepeatedAt          *time.Time                    `                                                              json:"repeatedAt,omitempty"`
	Completed           bool                          `gorm:"not null;default:false;index"                           json:"completed"`
	CompletedAt         *time.Time                    `                                                              json:"completedAt,omitempty"`
	Stages              []WorkOrderStage              `gorm:"foreignKey:WorkOrderID"                                 json:"stages"`
}

func (w *FacilityWorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.LocationID == uuid.Nil || w.ScheduledDate.IsZero() {
		return gorm.ErrInvalidValue
	}
	if w.Repeat == "" {
		w.Repeat = RepeatNone
	}
	return w.BaseUUIDModel.BeforeCreate(tx)
}

// SharesSupervisor reports whether any supervisor is assigned to both orders.
func (w *FacilityWorkOrder) SharesSupervisor(supervisors []uuid.UUID) bool {
	for _, id := range supervisors {
		if slices.Contains(w.AssignedSupervisors, id) {
			return true
		}
	}
	return false
}

func (w *FacilityWorkOrder) HasStage(name string) bool {
	for _, stage := range w.Stages {
		if stage.Name == name {
			return true
		}
	}
	return false
}

type WorkOrderStage struct {
	BaseUUIDModel
	WorkOrderID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"workOrderId"`
	Name             string               `gorm:"type:text;not null"       json:"name"`
	Position         int                  `gorm:"not null"                 json:"position"`
	PlannedStartTime *time.Time           `                                json:"plannedStartTime,omitempty"`
	Notes            []WorkOrderStageNote `gorm:"foreignKey:StageID"       json:"notes"`
}

type WorkOrderStageNote struct {
	BaseUUIDModel
	StageID  uuid.UUID `gorm:"type:uuid;not null;index" json:"stageId"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null"       json:"authorId"`
	Note     string    `gorm:"type:text;not null"       json:"note"`
}
