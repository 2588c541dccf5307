package taskController

import (
	"context"
	"time"

	. "cleanops/internal/models"
	"cleanops/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmitByCleaner records a clean-time sample and hands the task to
// inspection. A task already in preop only gains the extra sample.
func (c *TaskController) SubmitByCleaner(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	request *SubmitTaskRequest,
) (*Task, error) {
	log := c.log.TraceFromContext(ctx).Function("SubmitByCleaner")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	var (
		task         *Task
		transitioned bool
	)
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		task, err = c.taskRepo.GetByID(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := actor.RequireMember(task.AssignedCleaners, types.RoleCleaner); err != nil {
			return err
		}
		if task.IsSubmitted {
			return types.InvalidTransition("task %s has already been released", task.ID)
		}

		if err := c.recordSample(ctx, tx, task.ID, TimePhaseClean, actor.ID, request.CleanTimeSeconds); err != nil {
			return err
		}

		if task.Stage == TaskStageClean {
			if err := c.moveStage(ctx, tx, task, TaskStagePreop); err != nil {
				return err
			}
			transitioned = true
		}

		task, err = c.taskRepo.GetByID(ctx, tx, taskID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to submit task", err, "taskID", taskID)
	}

	if transitioned {
		for _, inspector := range task.AssignedInspectors {
			c.notifier.Notify(ctx, types.Notification{
				RecipientID: inspector,
				Title:       "Task ready for inspection",
				Body:        "A cleaner has submitted a task for inspection",
				Data:        map[string]any{"taskId": task.ID},
			})
		}
	}

	return task, nil
}

// ApproveItems marks inspected items done. When every item is done the task is
// released and its release time fixed; otherwise it goes back to clean.
func (c *TaskController) ApproveItems(
	ctx context.Context,
	actor types.Actor,
	taskID uuid.UUID,
	request *ApproveItemsRequest,
) (*Task, error) {
	log := c.log.TraceFromContext(ctx).Function("ApproveItems")

	if err := request.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	var task *Task
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		task, err = c.taskRepo.GetByID(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := actor.RequireMember(task.AssignedInspectors, types.RoleInspector); err != nil {
			return err
		}
		if task.IsSubmitted {
			return types.InvalidTransition("task %s has already been released", task.ID)
		}

		done := make([]uuid.UUID, 0, len(request.DoneItemIDs))
		for _, id := range request.DoneItemIDs {
			item, ok := resolveItem(task, id)
			if !ok {
				return types.NotFound("task item", id)
			}
			item.IsDone = true
			item.LastCleanedAt = &now
			done = append(done, item.ID)
		}
		if err := c.taskRepo.MarkItemsCleaned(ctx, tx, task.ID, done, now); err != nil {
			return err
		}

		actualTime, err := c.actualTimeRepo.GetOrCreate(ctx, tx, task.ID)
		if err != nil {
			return err
		}
		if actualTime.InspectorID == nil {
			if err := c.actualTimeRepo.SetActor(ctx, tx, actualTime.ID, TimePhasePreop, actor.ID); err != nil {
				return err
			}
		}
		sample := &ActualTimeSample{
			ActualTimeID: actualTime.ID,
			Phase:        TimePhasePreop,
			ActorID:      actor.ID,
			Seconds:      request.PreOpTimeSeconds,
		}
		if err := c.actualTimeRepo.AddSample(ctx, tx, sample); err != nil {
			return err
		}
		actualTime.Samples = append(actualTime.Samples, *sample)

		if !task.AllItemsDone() {
			if err := c.moveStage(ctx, tx, task, TaskStageClean); err != nil {
				return err
			}
			task, err = c.taskRepo.GetByID(ctx, tx, taskID)
			return err
		}

		if !task.Stage.CanTransitionTo(TaskStageRelease) {
			return types.InvalidTransition("task %s cannot be released from %s", task.ID, task.Stage)
		}
		released, err := c.taskRepo.Release(ctx, tx, task.ID, task.Version)
		if err != nil {
			return err
		}
		if !released {
			return types.Conflict("task %s was changed by someone else, reload and retry", task.ID)
		}

		recorded, err := c.actualTimeRepo.SetReleaseTime(ctx, tx, actualTime.ID, actualTime.TotalSeconds())
		if err != nil {
			return err
		}
		if !recorded {
			return types.InvalidTransition("release time for task %s was already recorded", task.ID)
		}

		task, err = c.taskRepo.GetByID(ctx, tx, taskID)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to approve items", err, "taskID", taskID)
	}

	c.notifyInspectionOutcome(ctx, task)

	return task, nil
}

func (c *TaskController) notifyInspectionOutcome(ctx context.Context, task *Task) {
	if task.Stage == TaskStageRelease {
		recipients := append([]uuid.UUID{task.AssignedManager}, task.AssignedCleaners...)
		for _, recipient := range recipients {
			c.notifier.Notify(ctx, types.Notification{
				RecipientID: recipient,
				Title:       "Task released",
				Body:        "Every item passed inspection",
				Data:        map[string]any{"taskId": task.ID},
			})
		}
		return
	}

	outstanding := make([]string, 0, len(task.Items))
	for _, item := range task.Items {
		if !item.IsDone {
			outstanding = append(outstanding, item.Name)
		}
	}
	for _, cleaner := range task.AssignedCleaners {
		c.notifier.Notify(ctx, types.Notification{
			RecipientID: cleaner,
			Title:       "Task returned for cleaning",
			Body:        "Some items did not pass inspection",
			Data:        map[string]any{"taskId": task.ID, "outstanding": outstanding},
		})
	}
}

// resolveItem accepts either a task item id or the room detail id it was
// created from.
func resolveItem(task *Task, id uuid.UUID) (*TaskItem, bool) {
	for i := range task.Items {
		if task.Items[i].ID == id {
			return &task.Items[i], true
		}
	}
	return task.ItemByDetail(id)
}

func (c *TaskController) moveStage(ctx context.Context, tx *gorm.DB, task *Task, next TaskStage) error {
	if !task.Stage.CanTransitionTo(next) {
		return types.InvalidTransition("task %s cannot move from %s to %s", task.ID, task.Stage, next)
	}

	moved, err := c.taskRepo.AdvanceStage(ctx, tx, task.ID, task.Version, next)
	if err != nil {
		return err
	}
	if !moved {
		return types.Conflict("task %s was changed by someone else, reload and retry", task.ID)
	}

	return nil
}

func (c *TaskController) recordSample(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
	phase TimePhase,
	actorID uuid.UUID,
	seconds int64,
) error {
	actualTime, err := c.actualTimeRepo.GetOrCreate(ctx, tx, taskID)
	if err != nil {
		return err
	}

	if phase == TimePhaseClean && actualTime.CleanerID == nil {
		if err := c.actualTimeRepo.SetActor(ctx, tx, actualTime.ID, phase, actorID); err != nil {
			return err
		}
	}

	return c.actualTimeRepo.AddSample(ctx, tx, &ActualTimeSample{
		ActualTimeID: actualTime.ID,
		Phase:        phase,
		ActorID:      actorID,
		Seconds:      seconds,
	})
}

// SweepOverdue refreshes the cached overdue flag on every open task item and
// returns how many items are overdue.
func (c *TaskController) SweepOverdue(ctx context.Context) (int, error) {
	log := c.log.TraceFromContext(ctx).Function("SweepOverdue")

	now := c.now()
	total := 0
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		tasks, err := c.taskRepo.ListOpen(ctx, tx)
		if err != nil {
			return err
		}

		var overdue, current []uuid.UUID
		for _, task := range tasks {
			total += task.RefreshOverdue(now)
			for _, item := range task.Items {
				if item.IsOverdue {
					overdue = append(overdue, item.ID)
				} else {
					current = append(current, item.ID)
				}
			}
		}

		if err := c.taskRepo.SetOverdue(ctx, tx, overdue, true); err != nil {
			return err
		}
		return c.taskRepo.SetOverdue(ctx, tx, current, false)
	})
	if err != nil {
		return 0, log.Err("failed to sweep overdue items", err)
	}

	log.Info("Overdue sweep complete", "overdue", total, "at", now.Format(time.RFC3339))
	return total, nil
}
