package jobs

import (
	"cleanops/config"
	"cleanops/internal/controllers"
	"cleanops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Daily  = services.Daily
	Hourly = services.Hourly
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	controllers controllers.Controllers,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	if err := schedulerService.AddJob(NewOverdueSweepJob(controllers.Task, Hourly)); err != nil {
		return log.Err("failed to register overdue sweep job", err)
	}
	log.Info("Registered overdue sweep job", "schedule", "hourly")

	if err := schedulerService.AddJob(NewWorkOrderRepeatJob(controllers.Facility, Daily)); err != nil {
		return log.Err("failed to register work order repeat job", err)
	}
	log.Info("Registered work order repeat job", "schedule", "daily")

	return nil
}
