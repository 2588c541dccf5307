package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func plannedStages(names ...string) []WorkOrderStage {
	stages := make([]WorkOrderStage, len(names))
	for i, name := range names {
		stages[i] = WorkOrderStage{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Name: name, Position: i}
	}
	return stages
}

func timerEntry(name string, started, stopped bool) FacilityTimerStage {
	entry := FacilityTimerStage{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Name: name}
	now := time.Now()
	if started {
		entry.ActualStartTime = &now
	}
	if stopped {
		entry.ActualStopTime = &now
	}
	return entry
}

func TestCurrentStage(t *testing.T) {
	planned := plannedStages("clean", "preop", "release")

	tests := []struct {
		name     string
		recorded []FacilityTimerStage
		expected string
	}{
		{
			name:     "nothing recorded reports first stage",
			recorded: nil,
			expected: "clean",
		},
		{
			name:     "first stage running",
			recorded: []FacilityTimerStage{timerEntry("clean", true, false)},
			expected: "clean",
		},
		{
			name:     "first stopped reports second",
			recorded: []FacilityTimerStage{timerEntry("clean", true, true)},
			expected: "preop",
		},
		{
			name: "successor started without closing prior",
			recorded: []FacilityTimerStage{
				timerEntry("clean", true, false),
				timerEntry("preop", true, false),
			},
			expected: "preop",
		},
		{
			name: "all stopped reports last",
			recorded: []FacilityTimerStage{
				timerEntry("clean", true, true),
				timerEntry("preop", true, true),
				timerEntry("release", true, true),
			},
			expected: "release",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, ok := CurrentStage(BuildStageProgress(planned, tt.recorded))
			assert.True(t, ok)
			assert.Equal(t, tt.expected, current.Name)
		})
	}
}

func TestCurrentStage_Empty(t *testing.T) {
	_, ok := CurrentStage(nil)
	assert.False(t, ok)
}

func TestBuildStageProgress_OrdersByPosition(t *testing.T) {
	planned := []WorkOrderStage{
		{Name: "release", Position: 2},
		{Name: "clean", Position: 0},
		{Name: "preop", Position: 1},
	}

	progress := BuildStageProgress(planned, []FacilityTimerStage{timerEntry("preop", true, false)})

	assert.Equal(t, []string{"clean", "preop", "release"}, []string{progress[0].Name, progress[1].Name, progress[2].Name})
	assert.Equal(t, StageStatusNotStarted, progress[0].Status)
	assert.Equal(t, StageStatusStarted, progress[1].Status)
	assert.NotNil(t, progress[1].TimerEntryID)
	assert.Nil(t, progress[2].TimerEntryID)
}

func TestReleaseBlockers(t *testing.T) {
	planned := plannedStages("clean", "preop", "release")

	t.Run("missing timer entry", func(t *testing.T) {
		blockers := ReleaseBlockers(planned, []FacilityTimerStage{
			timerEntry("clean", true, true),
			timerEntry("preop", true, true),
		})
		assert.NotEmpty(t, blockers)
	})

	t.Run("unstopped stage", func(t *testing.T) {
		blockers := ReleaseBlockers(planned, []FacilityTimerStage{
			timerEntry("clean", true, true),
			timerEntry("preop", true, true),
			timerEntry("release", true, false),
		})
		assert.Equal(t, []string{"stage release has no stop time"}, blockers)
	})

	t.Run("ready", func(t *testing.T) {
		blockers := ReleaseBlockers(planned, []FacilityTimerStage{
			timerEntry("clean", true, true),
			timerEntry("preop", true, true),
			timerEntry("release", true, true),
		})
		assert.Empty(t, blockers)
	})
}
