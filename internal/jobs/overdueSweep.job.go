package jobs

import (
	"context"

	"cleanops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// OverdueSweepJob refreshes the cached overdue flag on every open task item.
type OverdueSweepJob struct {
	sweeper  OverdueSweeper
	log      logger.Logger
	schedule services.Schedule
}

func NewOverdueSweepJob(sweeper OverdueSweeper, schedule services.Schedule) *OverdueSweepJob {
	log := logger.New("overdueSweepJob")
	log.Info("Creating new overdue sweep job", "schedule", schedule)

	return &OverdueSweepJob{
		sweeper:  sweeper,
		log:      log,
		schedule: schedule,
	}
}

func (j *OverdueSweepJob) Name() string {
	return "OverdueSweep"
}

func (j *OverdueSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	overdue, err := j.sweeper.SweepOverdue(ctx)
	if err != nil {
		return log.Err("overdue sweep failed", err)
	}

	log.Info("Overdue sweep completed", "overdueItems", overdue)
	return nil
}

func (j *OverdueSweepJob) Schedule() services.Schedule {
	return j.schedule
}
