package services

import (
	"cleanops/internal/database"
	"cleanops/internal/events"
	"cleanops/internal/repositories"
)

type Service struct {
	Transaction  *TransactionService
	Ledger       *LedgerService
	Directory    *DirectoryService
	Notification *NotificationService
	Scheduler    *SchedulerService
}

func New(db database.DB, repos repositories.Repository, eventBus *events.EventBus) Service {
	return Service{
		Transaction:  NewTransactionService(db),
		Ledger:       NewLedgerService(repos.CleaningItem),
		Directory:    NewDirectoryService(repos.Directory),
		Notification: NewNotificationService(eventBus),
		Scheduler:    NewSchedulerService(),
	}
}
