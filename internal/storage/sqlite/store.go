package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store реализация storage.Store на sqlite.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open открывает файл базы, создавая каталог при необходимости.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New оборачивает готовое соединение.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bot_configs (
			user_id TEXT PRIMARY KEY,
			network_mode TEXT NOT NULL DEFAULT 'testnet',
			polygon_rpc_url TEXT NOT NULL DEFAULT '',
			polygon_testnet_rpc_url TEXT NOT NULL DEFAULT '',
			min_profit_percent TEXT NOT NULL DEFAULT '0',
			min_net_profit_percent TEXT NOT NULL DEFAULT '0',
			flash_loan_amount TEXT NOT NULL DEFAULT '0',
			scan_interval INTEGER NOT NULL DEFAULT 0,
			max_loan_usd TEXT NOT NULL DEFAULT '0',
			daily_loss_limit TEXT NOT NULL DEFAULT '0',
			max_single_loss_usd TEXT NOT NULL DEFAULT '0',
			insurance_fund_percent TEXT NOT NULL DEFAULT '0',
			max_gas_price_gwei TEXT NOT NULL DEFAULT '0',
			priority_fee_gwei TEXT NOT NULL DEFAULT '0',
			min_net_profit_usd TEXT NOT NULL DEFAULT '0',
			enable_real_trading INTEGER NOT NULL DEFAULT 0,
			use_simulation INTEGER NOT NULL DEFAULT 1,
			auto_pause_enabled INTEGER NOT NULL DEFAULT 1,
			telegram_bot_token TEXT NOT NULL DEFAULT '',
			telegram_chat_id TEXT NOT NULL DEFAULT '',
			private_key TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS bot_status (
			user_id TEXT PRIMARY KEY,
			is_running INTEGER NOT NULL DEFAULT 0,
			is_paused INTEGER NOT NULL DEFAULT 0,
			pause_reason TEXT NOT NULL DEFAULT '',
			total_profit_usd TEXT NOT NULL DEFAULT '0',
			net_24h_usd TEXT NOT NULL DEFAULT '0',
			gas_cost_usd TEXT NOT NULL DEFAULT '0',
			insurance_fund_usd TEXT NOT NULL DEFAULT '0',
			success_rate TEXT NOT NULL DEFAULT '0',
			active_opportunities INTEGER NOT NULL DEFAULT 0,
			last_started_at DATETIME,
			last_stopped_at DATETIME,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS arbitrage_transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			tx_hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			profit_usd TEXT NOT NULL DEFAULT '0',
			gas_cost_usd TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_user_created ON arbitrage_transactions (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS telegram_messages (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			message_type TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			metadata TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user_created ON telegram_messages (user_id, created_at);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("run migration query: %w", err)
		}
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, userID string) (*models.BotConfig, error) {
	var (
		c    models.BotConfig
		mode string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, network_mode, polygon_rpc_url, polygon_testnet_rpc_url,
		       min_profit_percent, min_net_profit_percent, flash_loan_amount, scan_interval,
		       max_loan_usd, daily_loss_limit, max_single_loss_usd, insurance_fund_percent,
		       max_gas_price_gwei, priority_fee_gwei, min_net_profit_usd,
		       enable_real_trading, use_simulation, auto_pause_enabled,
		       telegram_bot_token, telegram_chat_id
		FROM bot_configs WHERE user_id = ?`, userID).Scan(
		&c.UserID, &mode, &c.PolygonRPCURL, &c.PolygonTestnetRPCURL,
		&c.MinProfitPercent, &c.MinNetProfitPercent, &c.FlashLoanAmount, &c.ScanInterval,
		&c.MaxLoanUSD, &c.DailyLossLimit, &c.MaxSingleLossUSD, &c.InsuranceFundPercent,
		&c.MaxGasPriceGwei, &c.PriorityFeeGwei, &c.MinNetProfitUSD,
		&c.EnableRealTrading, &c.UseSimulation, &c.AutoPauseEnabled,
		&c.TelegramBotToken, &c.TelegramChatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	c.NetworkMode = models.NetworkMode(mode)
	return &c, nil
}

const selectStatus = `
	SELECT user_id, is_running, is_paused, pause_reason,
	       total_profit_usd, net_24h_usd, gas_cost_usd, insurance_fund_usd, success_rate,
	       active_opportunities, last_started_at, last_stopped_at, updated_at
	FROM bot_status WHERE user_id = ?`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (*models.BotStatus, error) {
	var (
		st               models.BotStatus
		started, stopped sql.NullTime
	)
	err := row.Scan(
		&st.UserID, &st.IsRunning, &st.IsPaused, &st.PauseReason,
		&st.TotalProfitUSD, &st.Net24hUSD, &st.GasCostUSD, &st.InsuranceFundUSD, &st.SuccessRate,
		&st.ActiveOpportunities, &started, &stopped, &st.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if started.Valid {
		st.LastStartedAt = &started.Time
	}
	if stopped.Valid {
		st.LastStoppedAt = &stopped.Time
	}
	return &st, nil
}

func (s *Store) GetStatus(ctx context.Context, userID string) (*models.BotStatus, error) {
	st, err := scanStatus(s.db.QueryRowContext(ctx, selectStatus, userID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return st, err
}

func (s *Store) UpdateStatus(ctx context.Context, userID string, patch models.StatusPatch) (*models.BotStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update status: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO bot_status (user_id, updated_at) VALUES (?, ?)`, userID, now); err != nil {
		return nil, fmt.Errorf("update status: ensure row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bot_status SET
			is_running = COALESCE(?, is_running),
			is_paused = COALESCE(?, is_paused),
			pause_reason = COALESCE(?, pause_reason),
			last_started_at = COALESCE(?, last_started_at),
			last_stopped_at = COALESCE(?, last_stopped_at),
			updated_at = ?
		WHERE user_id = ?`,
		patch.IsRunning, patch.IsPaused, patch.PauseReason, patch.LastStartedAt, patch.LastStoppedAt, now, userID,
	); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	st, err := scanStatus(tx.QueryRowContext(ctx, selectStatus, userID))
	if err != nil {
		return nil, fmt.Errorf("update status: reload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update status: commit: %w", err)
	}
	return st, nil
}

func (s *Store) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tx_hash, status, profit_usd, gas_cost_usd, created_at
		FROM arbitrage_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx     models.Transaction
			status string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.TxHash, &status, &tx.ProfitUSD, &tx.GasCostUSD, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Status = models.TxStatus(status)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) AppendRecord(ctx context.Context, userID string, rec *models.NotificationRecord) (*models.NotificationRecord, error) {
	r := *rec
	r.UserID = userID
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	var meta any
	if len(r.Metadata) > 0 {
		raw, err := sonic.Marshal(r.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(raw)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO telegram_messages (id, user_id, message, message_type, success, error, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Message, r.MessageType, r.Success, r.Error, meta, r.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	return &r, nil
}

func (s *Store) RecentRecords(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, message_type, success, error, metadata, created_at
		FROM telegram_messages
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}
	defer rows.Close()

	var out []models.NotificationRecord
	for rows.Next() {
		var (
			r    models.NotificationRecord
			meta sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Message, &r.MessageType, &r.Success, &r.Error, &meta, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if meta.Valid && meta.String != "" {
			if err := sonic.UnmarshalString(meta.String, &r.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sqlLimit limit <= 0 означает "все строки"; в sqlite это LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
