package services

import (
	"context"

	"cleanops/internal/events"
	"cleanops/internal/types"

	logger "github.com/Bparsons0904/goLogger"
)

// Notifier delivers lifecycle notifications. Delivery is best effort and
// never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, notification types.Notification)
}

type NotificationService struct {
	eventBus *events.EventBus
	log      logger.Logger
}

func NewNotificationService(eventBus *events.EventBus) *NotificationService {
	return &NotificationService{
		eventBus: eventBus,
		log:      logger.New("NotificationService"),
	}
}

func (s *NotificationService) Notify(ctx context.Context, notification types.Notification) {
	log := s.log.TraceFromContext(ctx).Function("Notify")

	if s.eventBus == nil {
		log.Debug("No event bus configured, dropping notification", "recipient", notification.RecipientID)
		return
	}

	go func() {
		if err := s.eventBus.PublishNotification(notification); err != nil {
			log.Warn(
				"failed to deliver notification",
				"recipient",
				notification.RecipientID,
				"title",
				notification.Title,
				"error",
				err,
			)
		}
	}()
}
