package jobs

import (
	"context"

	"cleanops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type WorkOrderRepeater interface {
	RepeatDueWorkOrders(ctx context.Context) (int, error)
}

// WorkOrderRepeatJob creates the next occurrence of released repeating work
// orders.
type WorkOrderRepeatJob struct {
	repeater WorkOrderRepeater
	log      logger.Logger
	schedule services.Schedule
}

func NewWorkOrderRepeatJob(repeater WorkOrderRepeater, schedule services.Schedule) *WorkOrderRepeatJob {
	log := logger.New("workOrderRepeatJob")
	log.Info("Creating new work order repeat job", "schedule", schedule)

	return &WorkOrderRepeatJob{
		repeater: repeater,
		log:      log,
		schedule: schedule,
	}
}

func (j *WorkOrderRepeatJob) Name() string {
	return "WorkOrderRepeat"
}

func (j *WorkOrderRepeatJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	created, err := j.repeater.RepeatDueWorkOrders(ctx)
	if err != nil {
		return log.Err("work order repeat failed", err)
	}

	log.Info("Work order repeat completed", "created", created)
	return nil
}

func (j *WorkOrderRepeatJob) Schedule() services.Schedule {
	return j.schedule
}
