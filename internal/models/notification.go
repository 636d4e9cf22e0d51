package models

import "time"

// Категории уведомлений. Поле свободное, это лишь частые значения.
const (
	MessageTypeNotification = "notification"
	MessageTypeAlert        = "alert"
	MessageTypeProfit       = "profit"
	MessageTypeError        = "error"
	MessageTypeTest         = "test"
)

// NotificationRecord запись журнала об одной попытке отправки. Только append.
type NotificationRecord struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Message     string         `json:"message"`
	MessageType string         `json:"message_type"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
