package facilityController

import (
	"context"
	"errors"
	"strings"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// supervisedOrder loads a work order the actor supervises and that is still open.
func (c *FacilityController) supervisedOrder(
	ctx context.Context,
	tx *gorm.DB,
	actor types.Actor,
	workOrderID uuid.UUID,
) (*FacilityWorkOrder, error) {
	workOrder, err := c.workOrderRepo.GetByID(ctx, tx, workOrderID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireMember(workOrder.AssignedSupervisors, types.RoleSupervisor); err != nil {
		return nil, err
	}
	if workOrder.Completed {
		return nil, types.InvalidTransition("work order %s has already been released", workOrder.ID)
	}
	return workOrder, nil
}

// StartStage records the start of a planned stage. The first supervisor to
// start a stage wins; any later start of the same stage is a conflict.
func (c *FacilityController) StartStage(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
	stageName string,
) (*FacilityTimerStage, error) {
	log := c.log.TraceFromContext(ctx).Function("StartStage")

	stageName = strings.TrimSpace(stageName)
	if stageName == "" {
		return nil, types.Validation("stage", "stage name is required")
	}

	var entry *FacilityTimerStage
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		workOrder, err := c.supervisedOrder(ctx, tx, actor, workOrderID)
		if err != nil {
			return err
		}
		if !workOrder.HasStage(stageName) {
			return types.NotFound("stage", stageName)
		}

		existing, err := c.timerRepo.GetStage(ctx, tx, workOrderID, stageName)
		if err == nil && existing.ActualStartTime != nil {
			return types.Conflict("stage %s already started", stageName)
		}
		if err != nil && !isNotFound(err) {
			return err
		}

		timer, err := c.timerRepo.GetOrCreate(ctx, tx, workOrderID)
		if err != nil {
			return err
		}

		now := c.now()
		entry = &FacilityTimerStage{
			FacilityTimerID: timer.ID,
			WorkOrderID:     workOrderID,
			Name:            stageName,
			ActualStartTime: &now,
			StartedBy:       &actor.ID,
		}
		return c.timerRepo.CreateStage(ctx, tx, entry)
	})
	if err != nil {
		return nil, log.Err("failed to start stage", err, "workOrderID", workOrderID, "stage", stageName)
	}

	c.timerRepo.ClearCachedProgress(ctx, workOrderID)
	return entry, nil
}

func (c *FacilityController) StopStage(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
	stageName string,
	request *StopStageRequest,
) (*FacilityTimerStage, error) {
	log := c.log.TraceFromContext(ctx).Function("StopStage")

	if err := request.Validate(); err != nil {
		return nil, err
	}
	stageName = strings.TrimSpace(stageName)

	var entry *FacilityTimerStage
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.supervisedOrder(ctx, tx, actor, workOrderID); err != nil {
			return err
		}

		var err error
		entry, err = c.timerRepo.GetStage(ctx, tx, workOrderID, stageName)
		if err != nil {
			if isNotFound(err) {
				return types.InvalidTransition("stage %s has not been started", stageName)
			}
			return err
		}
		if entry.ActualStopTime != nil {
			return types.Conflict("stage %s already stopped", stageName)
		}
		if entry.ID != request.EntryID || entry.ActualStartTime == nil {
			return types.InvalidTransition("stage %s has no started entry %s", stageName, request.EntryID)
		}

		now := c.now()
		stopped, err := c.timerRepo.StopStage(ctx, tx, entry.ID, actor.ID, now)
		if err != nil {
			return err
		}
		if !stopped {
			return types.Conflict("stage %s already stopped", stageName)
		}

		entry.ActualStopTime = &now
		entry.StoppedBy = &actor.ID
		return nil
	})
	if err != nil {
		return nil, log.Err("failed to stop stage", err, "workOrderID", workOrderID, "stage", stageName)
	}

	c.timerRepo.ClearCachedProgress(ctx, workOrderID)
	return entry, nil
}

// AddStageNote attaches a note to a planned stage. Notes never gate a
// transition.
func (c *FacilityController) AddStageNote(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
	stageID uuid.UUID,
	request *StageNoteRequest,
) (*WorkOrderStageNote, error) {
	log := c.log.TraceFromContext(ctx).Function("AddStageNote")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	workOrder, err := c.workOrderRepo.GetByID(ctx, c.db.SQL, workOrderID)
	if err != nil {
		return nil, log.Err("failed to get work order", err, "workOrderID", workOrderID)
	}
	if err := actor.RequireMember(workOrder.AssignedSupervisors, types.RoleSupervisor); err != nil {
		return nil, err
	}

	var planned bool
	for _, stage := range workOrder.Stages {
		if stage.ID == stageID {
			planned = true
			break
		}
	}
	if !planned {
		return nil, types.NotFound("stage", stageID)
	}

	note := &WorkOrderStageNote{
		StageID:  stageID,
		AuthorID: actor.ID,
		Note:     request.Note,
	}
	if err := c.workOrderRepo.AddNote(ctx, c.db.SQL, note); err != nil {
		return nil, log.Err("failed to add stage note", err, "workOrderID", workOrderID, "stageID", stageID)
	}

	return note, nil
}

// ReleaseWorkOrder completes a work order once every planned stage has a
// recorded start and stop. Release is terminal.
func (c *FacilityController) ReleaseWorkOrder(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
) (*FacilityWorkOrder, error) {
	log := c.log.TraceFromContext(ctx).Function("ReleaseWorkOrder")

	var workOrder *FacilityWorkOrder
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		workOrder, err = c.workOrderRepo.GetByID(ctx, tx, workOrderID)
		if err != nil {
			return err
		}
		if !actor.Is(types.RoleManager, types.RoleAdmin) {
			if err := actor.RequireMember(workOrder.AssignedSupervisors, types.RoleSupervisor); err != nil {
				return err
			}
		}
		if workOrder.Completed {
			return types.InvalidTransition("work order %s has already been released", workOrder.ID)
		}

		recorded, err := c.timerRepo.ListStages(ctx, tx, workOrderID)
		if err != nil {
			return err
		}
		if blockers := ReleaseBlockers(workOrder.Stages, recorded); len(blockers) > 0 {
			return types.InvalidTransition(
				"work order %s cannot be released: %s",
				workOrder.ID,
				strings.Join(blockers, "; "),
			)
		}

		now := c.now()
		completed, err := c.workOrderRepo.MarkCompleted(ctx, tx, workOrderID, now)
		if err != nil {
			return err
		}
		if !completed {
			return types.InvalidTransition("work order %s has already been released", workOrder.ID)
		}

		workOrder.Completed = true
		workOrder.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, log.Err("failed to release work order", err, "workOrderID", workOrderID)
	}

	c.timerRepo.ClearCachedProgress(ctx, workOrderID)

	recipients := append([]uuid.UUID{workOrder.AssignedManager}, workOrder.AssignedSupervisors...)
	for _, recipient := range recipients {
		if recipient == actor.ID {
			continue
		}
		c.notifier.Notify(ctx, types.Notification{
			RecipientID: recipient,
			Title:       "Work order released",
			Body:        "Every stage of the facility work order has been recorded",
			Data:        map[string]any{"workOrderId": workOrder.ID},
		})
	}

	log.Info("Work order released", "workOrderID", workOrder.ID)
	return workOrder, nil
}

// StageProgress returns the per-stage status and current stage, served from
// the cache when possible.
func (c *FacilityController) StageProgress(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
) (*WorkOrderProgress, error) {
	log := c.log.TraceFromContext(ctx).Function("StageProgress")

	if err := actor.Require(types.RoleAdmin, types.RoleManager, types.RoleSupervisor); err != nil {
		return nil, err
	}

	if cached, found := c.timerRepo.GetCachedProgress(ctx, workOrderID); found {
		return cached, nil
	}

	workOrder, err := c.workOrderRepo.GetByID(ctx, c.db.SQL, workOrderID)
	if err != nil {
		return nil, log.Err("failed to get work order", err, "workOrderID", workOrderID)
	}

	recorded, err := c.timerRepo.ListStages(ctx, c.db.SQL, workOrderID)
	if err != nil {
		return nil, log.Err("failed to list timer stages", err, "workOrderID", workOrderID)
	}

	progress := BuildWorkOrderProgress(workOrder, recorded)
	c.timerRepo.SetCachedProgress(ctx, workOrderID, &progress)

	return &progress, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
