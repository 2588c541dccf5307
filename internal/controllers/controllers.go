package controllers

import (
	"cleanops/config"
	"cleanops/internal/database"
	"cleanops/internal/repositories"
	"cleanops/internal/services"

	facilityController "cleanops/internal/controllers/facility"
	inventoryController "cleanops/internal/controllers/inventory"
	requestController "cleanops/internal/controllers/requests"
	taskController "cleanops/internal/controllers/tasks"
)

type Controllers struct {
	Task      taskController.TaskControllerInterface
	Request   requestController.RequestControllerInterface
	Inventory inventoryController.InventoryControllerInterface
	Facility  facilityController.FacilityControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Task:      taskController.New(repos, services, config, db),
		Request:   requestController.New(repos, services, db),
		Inventory: inventoryController.New(repos, services, db),
		Facility:  facilityController.New(repos, services, db),
	}
}
