package facilityController

import (
	"context"
	"errors"

	. "cleanops/internal/models"
	"cleanops/internal/types"
	"cleanops/internal/utils"

	"gorm.io/gorm"
)

// RepeatDueWorkOrders creates the next occurrence of every released work order
// whose repeat date has arrived. The stage plan is copied with planned times
// shifted by the same offset as the scheduled date.
func (c *FacilityController) RepeatDueWorkOrders(ctx context.Context) (int, error) {
	log := c.log.TraceFromContext(ctx).Function("RepeatDueWorkOrders")

	now := c.now()
	due, err := c.workOrderRepo.ListDueRepeats(ctx, c.db.SQL, now)
	if err != nil {
		return 0, log.Err("failed to list due work orders", err)
	}

	created := 0
	for _, source := range due {
		var next *FacilityWorkOrder
		err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			claimed, err := c.workOrderRepo.MarkRepeated(ctx, tx, source.ID, now)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}

			candidate, err := nextOccurrence(source)
			if err != nil {
				return err
			}
			if err := c.rejectOverlap(ctx, tx, candidate); err != nil {
				if errors.Is(err, types.ErrConflict) {
					log.Warn("Skipping repeat of work order", "workOrderID", source.ID, "reason", err.Error())
					return nil
				}
				return err
			}

			if err := c.workOrderRepo.Create(ctx, tx, candidate); err != nil {
				return err
			}
			next = candidate
			return nil
		})
		if err != nil {
			log.Er("failed to repeat work order", err, "workOrderID", source.ID)
			continue
		}
		if next == nil {
			continue
		}

		created++
		log.Info("Work order repeated", "sourceID", source.ID, "workOrderID", next.ID)
	}

	return created, nil
}

func nextOccurrence(source *FacilityWorkOrder) (*FacilityWorkOrder, error) {
	scheduled := source.RepeatDate.UTC()
	offset := scheduled.Sub(source.ScheduledDate)

	repeatDate, err := utils.CalculateNextDate(scheduled, string(source.Repeat))
	if err != nil {
		return nil, err
	}

	next := &FacilityWorkOrder{
		LocationID:          source.LocationID,
		ScheduledDate:       scheduled,
		AssignedSupervisors: source.AssignedSupervisors,
		AssignedRooms:       source.AssignedRooms,
		AssignedManager:     source.AssignedManager,
		Repeat:              source.Repeat,
		RepeatDate:          &repeatDate,
	}
	for _, stage := range source.Stages {
		copied := WorkOrderStage{
			Name:     stage.Name,
			Position: stage.Position,
		}
		if stage.PlannedStartTime != nil {
			planned := stage.PlannedStartTime.Add(offset).UTC()
			copied.PlannedStartTime = &planned
		}
		next.Stages = append(next.Stages, copied)
	}

	return next, nil
}
