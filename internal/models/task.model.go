package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStage string

const (
	TaskStageClean   TaskStage = "clean"
	TaskStagePreop   TaskStage = "preop"
	TaskStageRelease TaskStage = "release"
)

// DefaultCleaningExpiry is the business window an item stays clean after the
// task's scheduled date.
const DefaultCleaningExpiry = 12 * time.Hour

func (s TaskStage) Valid() bool {
	return s == TaskStageClean || s == TaskStagePreop || s == TaskStageRelease
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// release is terminal. An inspection may bounce any open task back to clean
// (including clean itself) or release it once every item is done.
func (s TaskStage) CanTransitionTo(next TaskStage) bool {
	switch s {
	case TaskStageClean:
		return next == TaskStagePreop || next == TaskStageClean || next == TaskStageRelease
	case TaskStagePreop:
		return next == TaskStageClean || next == TaskStageRelease
	default:
		return false
	}
}

type Task struct {
	BaseUUIDModel
	LocationID          uuid.UUID                     `gorm:"type:uuid;not null;index"                 json:"locationId"`
	RoomID              uuid.UUID                     `gorm:"type:uuid;not null;index"                 json:"roomId"`
	AssignedCleaners    datatypes.JSONSlice[uuid.UUID] `gorm:"not null"                                 json:"assignedCleaners"`
	AssignedInspectors  datatypes.JSONSlice[uuid.UUID] `gorm:"not null"                                 json:"assignedInspectors"`
	AssignedManager     uuid.UUID                     `gorm:"type:uuid;not null"                       json:"assignedManager"`
	FacilityWorkOrderID *uuid.UUID                    `gorm:"type:uuid;index"                          json:"facilityWorkOrderId,omitempty"`
	Stage               TaskStage                     `gorm:"type:text;not null;default:'clean';index" json:"stage"`
	IsSubmitted         bool                          `gorm:"not null;default:false;index"             json:"isSubmitted"`
	ScheduledDate       *time.Time                    `gorm:"index"                                    json:"scheduledDate,omitempty"`
	DateAdded           time.Time                     `gorm:"not null"                                 json:"dateAdded"`
	Version             int                           `gorm:"not null;default:1"                       json:"version"`
	Items               []TaskItem                    `gorm:"foreignKey:TaskID"                        json:"items"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.LocationID == uuid.Nil || t.RoomID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if t.Stage == "" {
		t.Stage = TaskStageClean
	}
	if t.Version == 0 {
		t.Version = 1
	}
	if t.DateAdded.IsZero() {
		t.DateAdded = time.Now().UTC()
	}
	return t.BaseUUIDModel.BeforeCreate(tx)
}

// Baseline is the instant the cleaning interval is measured from.
func (t *Task) Baseline() time.Time {
	if t.ScheduledDate != nil {
		return *t.ScheduledDate
	}
	return t.DateAdded
}

func (t *Task) AllItemsDone() bool {
	if len(t.Items) == 0 {
		return false
	}
	for _, item := range t.Items {
		if !item.IsDone {
			return false
		}
	}
	return true
}

// RefreshOverdue recomputes the cached overdue flag of every item and returns
// how many are overdue at now.
func (t *Task) RefreshOverdue(now time.Time) int {
	overdue := 0
	baseline := t.Baseline()
	for i := range t.Items {
		t.Items[i].IsOverdue = t.Items[i].IsOverdueAt(now, baseline)
		if t.Items[i].IsOverdue {
			overdue++
		}
	}
	return overdue
}

func (t *Task) ItemByDetail(roomDetailID uuid.UUID) (*TaskItem, bool) {
	for i := range t.Items {
		if t.Items[i].RoomDetailID == roomDetailID {
			return &t.Items[i], true
		}
	}
	return nil, false
}

type TaskItem struct {
	BaseUUIDModel
	TaskID           uuid.UUID  `gorm:"type:uuid;not null;index"     json:"taskId"`
	RoomDetailID     uuid.UUID  `gorm:"type:uuid;not null;index"     json:"roomDetailId"`
	Name             string     `gorm:"type:text;not null"           json:"name"`
	IsDone           bool       `gorm:"not null;default:false"       json:"isDone"`
	LastCleanedAt    *time.Time `                                    json:"lastCleanedAt,omitempty"`
	CleaningExpiryAt time.Time  `gorm:"not null"                     json:"cleaningExpiryAt"`
	IsOverdue        bool       `gorm:"not null;default:false"       json:"isOverdue"`
}

// IsOverdueAt reports whether the configured cleaning interval has elapsed
// since the item was last serviced. An item never serviced is overdue.
func (i TaskItem) IsOverdueAt(now time.Time, baseline time.Time) bool {
	if i.LastCleanedAt == nil {
		return true
	}
	interval := i.CleaningExpiryAt.Sub(baseline)
	return now.Sub(*i.LastCleanedAt) > interval
}

// CleaningExpiry stamps the fixed expiry of a new task item.
func CleaningExpiry(scheduled *time.Time, now time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = DefaultCleaningExpiry
	}
	if scheduled != nil {
		return scheduled.Add(window)
	}
	return now.Add(window)
}
