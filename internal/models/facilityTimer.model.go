package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FacilityTimer records actual stage timings for one work order. Each stage
// name may be recorded once per work order; the unique index enforces first
// writer wins.
type FacilityTimer struct {
	BaseUUIDModel
	WorkOrderID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex" json:"workOrderId"`
	Stages      []FacilityTimerStage `gorm:"foreignKey:FacilityTimerID"     json:"stages"`
}

type FacilityTimerStage struct {
	BaseUUIDModel
	FacilityTimerID uuid.UUID  `gorm:"type:uuid;not null;index"                                json:"facilityTimerId"`
	WorkOrderID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_timer_stages_work_order_name" json:"workOrderId"`
	Name            string     `gorm:"type:text;not null;uniqueIndex:idx_timer_stages_work_order_name" json:"name"`
	ActualStartTime *time.Time `                                                               json:"actualStartTime,omitempty"`
	ActualStopTime  *time.Time `                                                               json:"actualStopTime,omitempty"`
	StartedBy       *uuid.UUID `gorm:"type:uuid"                                               json:"startedBy,omitempty"`
	StoppedBy       *uuid.UUID `gorm:"type:uuid"                                               json:"stoppedBy,omitempty"`
}

type StageStatus string

const (
	StageStatusNotStarted StageStatus = "not_started"
	StageStatusStarted    StageStatus = "started"
	StageStatusStopped    StageStatus = "stopped"
)

func (s *FacilityTimerStage) Status() StageStatus {
	switch {
	case s.ActualStartTime == nil:
		return StageStatusNotStarted
	case s.ActualStopTime == nil:
		return StageStatusStarted
	default:
		return StageStatusStopped
	}
}

// StageProgress is a planned stage joined with its recorded timing.
type StageProgress struct {
	StageID          uuid.UUID   `json:"stageId"`
	TimerEntryID     *uuid.UUID  `json:"timerEntryId,omitempty"`
	Name             string      `json:"name"`
	Position         int         `json:"position"`
	Status           StageStatus `json:"status"`
	PlannedStartTime *time.Time  `json:"plannedStartTime,omitempty"`
	ActualStartTime  *time.Time  `json:"actualStartTime,omitempty"`
	ActualStopTime   *time.Time  `json:"actualStopTime,omitempty"`
	StartedBy        *uuid.UUID  `json:"startedBy,omitempty"`
	StoppedBy        *uuid.UUID  `json:"stoppedBy,omitempty"`
}

// BuildStageProgress derives the per-stage status list in planned order.
func BuildStageProgress(planned []WorkOrderStage, recorded []FacilityTimerStage) []StageProgress {
	byName := make(map[string]FacilityTimerStage, len(recorded))
	for _, entry := range recorded {
		byName[entry.Name] = entry
	}

	ordered := make([]WorkOrderStage, len(planned))
	copy(ordered, planned)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	progress := make([]StageProgress, 0, len(ordered))
	for _, stage := range ordered {
		item := StageProgress{
			StageID:          stage.ID,
			Name:             stage.Name,
			Position:         stage.Position,
			Status:           StageStatusNotStarted,
			PlannedStartTime: stage.PlannedStartTime,
		}
		if entry, ok := byName[stage.Name]; ok {
			entryID := entry.ID
			item.TimerEntryID = &entryID
			item.Status = entry.Status()
			item.ActualStartTime = entry.ActualStartTime
			item.ActualStopTime = entry.ActualStopTime
			item.StartedBy = entry.StartedBy
			item.StoppedBy = entry.StoppedBy
		}
		progress = append(progress, item)
	}
	return progress
}

// CurrentStage returns the first stage without a stop time. When a supervisor
// has already started the following stage without closing that one, the
// following stage is reported. With every stage stopped the last is reported.
func CurrentStage(progress []StageProgress) (StageProgress, bool) {
	if len(progress) == 0 {
		return StageProgress{}, false
	}
	for i, stage := range progress {
		if stage.Status == StageStatusStopped {
			continue
		}
		if i+1 < len(progress) && progress[i+1].Status == StageStatusStarted {
			return progress[i+1], true
		}
		return stage, true
	}
	return progress[len(progress)-1], true
}

// ReleaseBlockers lists why a work order cannot be released yet. An empty
// result means every planned stage has a recorded start and stop.
func ReleaseBlockers(planned []WorkOrderStage, recorded []FacilityTimerStage) []string {
	var blockers []string
	if len(planned) != len(recorded) {
		blockers = append(blockers, "recorded stage count does not match planned stage count")
	}
	for _, entry := range recorded {
		if entry.ActualStartTime == nil {
			blockers = append(blockers, "stage "+entry.Name+" has no start time")
		}
		if entry.ActualStopTime == nil {
			blockers = append(blockers, "stage "+entry.Name+" has no stop time")
		}
	}
	return blockers
}

// WorkOrderProgress is the derived stage view of a work order.
type WorkOrderProgress struct {
	WorkOrderID uuid.UUID       `json:"workOrderId"`
	Stages      []StageProgress `json:"stages"`
	Current     *StageProgress  `json:"currentStage,omitempty"`
	Completed   bool            `json:"completed"`
}

func BuildWorkOrderProgress(workOrder *FacilityWorkOrder, recorded []FacilityTimerStage) WorkOrderProgress {
	progress := WorkOrderProgress{
		WorkOrderID: workOrder.ID,
		Stages:      BuildStageProgress(workOrder.Stages, recorded),
		Completed:   workOrder.Completed,
	}
	if current, ok := CurrentStage(progress.Stages); ok {
		progress.Current = &current
	}
	return progress
}
