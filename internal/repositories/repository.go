package repositories

import (
	"cleanops/internal/database"
)

type Repository struct {
	Directory           DirectoryRepository
	CleaningItem        CleaningItemRepository
	Task                TaskRepository
	ActualTime          ActualTimeRepository
	RoomCleaningItem    RoomCleaningItemRepository
	CleaningItemRequest CleaningItemRequestRepository
	WorkOrder           WorkOrderRepository
	FacilityTimer       FacilityTimerRepository
}

func New(db database.DB) Repository {
	return Repository{
		Directory:           NewDirectoryRepository(),
		CleaningItem:        NewCleaningItemRepository(),
		Task:                NewTaskRepository(),
		ActualTime:          NewActualTimeRepository(),
		RoomCleaningItem:    NewRoomCleaningItemRepository(),
		CleaningItemRequest: NewCleaningItemRequestRepository(),
		WorkOrder:           NewWorkOrderRepository(),
		FacilityTimer:       NewFacilityTimerRepository(db.Cache.General),
	}
}
