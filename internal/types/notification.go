package types

import "github.com/google/uuid"

type Notification struct {
	RecipientID uuid.UUID      `json:"recipientId"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
}
