package database

import (
	"cleanops/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// Models lists every table owned by the service in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Location{},
		&models.Room{},
		&models.RoomDetail{},
		&models.CleaningItem{},
		&models.FacilityWorkOrder{},
		&models.WorkOrderStage{},
		&models.WorkOrderStageNote{},
		&models.Task{},
		&models.TaskItem{},
		&models.ActualTime{},
		&models.ActualTimeSample{},
		&models.RoomCleaningItem{},
		&models.CleaningItemReceipt{},
		&models.CleaningItemRequest{},
		&models.FacilityTimer{},
		&models.FacilityTimerStage{},
	}
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range Models() {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}
