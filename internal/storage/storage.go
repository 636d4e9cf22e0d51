// Package storage описывает внешние хранилища, с которыми работает шлюз.
// Реализации: pg (pgx), sqlite (database/sql), memory.
package storage

import (
	"context"
	"errors"

	"arb_gateway/internal/models"
)

var ErrNotFound = errors.New("storage: not found")

// ConfigStore настройки бота. Шлюз конфиг никогда не пишет.
type ConfigStore interface {
	GetConfig(ctx context.Context, userID string) (*models.BotConfig, error)
}

// StatusStore статус движка. Единственная запись из шлюза: /stop.
type StatusStore interface {
	GetStatus(ctx context.Context, userID string) (*models.BotStatus, error)
	UpdateStatus(ctx context.Context, userID string, patch models.StatusPatch) (*models.BotStatus, error)
}

// TransactionStore история транзакций, от новых к старым.
// limit <= 0 означает без ограничения во всех бэкендах.
type TransactionStore interface {
	GetRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
}

// NotificationLog журнал попыток отправки уведомлений.
type NotificationLog interface {
	AppendRecord(ctx context.Context, userID string, rec *models.NotificationRecord) (*models.NotificationRecord, error)
	RecentRecords(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error)
}

type Store interface {
	ConfigStore
	StatusStore
	TransactionStore
	NotificationLog
	Close() error
}
