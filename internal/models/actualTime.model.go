package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimePhase string

const (
	TimePhaseClean TimePhase = "clean"
	TimePhasePreop TimePhase = "preop"
)

// ActualTime holds the append-only time samples recorded against a task.
// ReleaseTimeSeconds is written exactly once, when the task is released.
type ActualTime struct {
	BaseUUIDModel
	TaskID             uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"taskId"`
	CleanerID          *uuid.UUID         `gorm:"type:uuid"                      json:"cleanerId,omitempty"`
	InspectorID        *uuid.UUID         `gorm:"type:uuid"                      json:"inspectorId,omitempty"`
	ReleaseTimeSeconds *int64             `                                      json:"releaseTimeSeconds,omitempty"`
	Samples            []ActualTimeSample `gorm:"foreignKey:ActualTimeID"        json:"samples,omitempty"`
}

type ActualTimeSample struct {
	BaseUUIDModel
	ActualTimeID uuid.UUID `gorm:"type:uuid;not null;index"                            json:"actualTimeId"`
	Phase        TimePhase `gorm:"type:text;not null"                                  json:"phase"`
	ActorID      uuid.UUID `gorm:"type:uuid;not null"                                  json:"actorId"`
	Seconds      int64     `gorm:"not null;check:chk_actual_time_samples_seconds,seconds >= 0" json:"seconds"`
}

func (s *ActualTimeSample) BeforeCreate(tx *gorm.DB) error {
	if s.Seconds < 0 {
		return gorm.ErrInvalidValue
	}
	if s.Phase != TimePhaseClean && s.Phase != TimePhasePreop {
		return gorm.ErrInvalidValue
	}
	return s.BaseUUIDModel.BeforeCreate(tx)
}

func (a *ActualTime) SumSeconds(phase TimePhase) int64 {
	var total int64
	for _, sample := range a.Samples {
		if sample.Phase == phase {
			total += sample.Seconds
		}
	}
	return total
}

func (a *ActualTime) TotalSeconds() int64 {
	return a.SumSeconds(TimePhaseClean) + a.SumSeconds(TimePhasePreop)
}

type PhaseTime struct {
	ActorID *uuid.UUID `json:"actorId,omitempty"`
	Samples []int64    `json:"samples"`
}

type ActualTimeView struct {
	TaskID      uuid.UUID `json:"taskId"`
	CleanTime   PhaseTime `json:"cleanTime"`
	PreOpTime   PhaseTime `json:"preOpTime"`
	ReleaseTime *int64    `json:"releaseTime,omitempty"`
}

func (a *ActualTime) View() ActualTimeView {
	view := ActualTimeView{
		TaskID:      a.TaskID,
		CleanTime:   PhaseTime{ActorID: a.CleanerID, Samples: []int64{}},
		PreOpTime:   PhaseTime{ActorID: a.InspectorID, Samples: []int64{}},
		ReleaseTime: a.ReleaseTimeSeconds,
	}
	for _, sample := range a.Samples {
		switch sample.Phase {
		case TimePhaseClean:
			view.CleanTime.Samples = append(view.CleanTime.Samples, sample.Seconds)
		case TimePhasePreop:
			view.PreOpTime.Samples = append(view.PreOpTime.Samples, sample.Seconds)
		}
	}
	return view
}
