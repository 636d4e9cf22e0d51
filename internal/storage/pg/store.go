package pg

import (
	"context"
	"time"

	"arb_gateway/internal/models"
	"arb_gateway/internal/storage"
	"arb_gateway/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Store реализация storage.Store поверх pgx.
type Store struct {
	db db.TxManager
}

var _ storage.Store = (*Store)(nil)

// New instance
func New(txm db.TxManager) *Store {
	return &Store{db: txm}
}

func (s *Store) Close() error {
	if c, ok := s.db.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

const selectConfig = `
SELECT user_id, network_mode,
       COALESCE(polygon_rpc_url, ''), COALESCE(polygon_testnet_rpc_url, ''),
       min_profit_percent, min_net_profit_percent, flash_loan_amount, scan_interval,
       max_loan_usd, daily_loss_limit, max_single_loss_usd, insurance_fund_percent,
       max_gas_price_gwei, priority_fee_gwei, min_net_profit_usd,
       enable_real_trading, use_simulation, auto_pause_enabled,
       COALESCE(telegram_bot_token, ''), COALESCE(telegram_chat_id, '')
FROM bot_configs
WHERE user_id = $1`

// GetConfig in db
func (s *Store) GetConfig(ctx context.Context, userID string) (cfg *models.BotConfig, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.GetConfig")
		}
	}()

	var (
		c    models.BotConfig
		mode string
	)
	err = s.db.Conn().QueryRow(ctx, selectConfig, userID).Scan(
		&c.UserID, &mode,
		&c.PolygonRPCURL, &c.PolygonTestnetRPCURL,
		&c.MinProfitPercent, &c.MinNetProfitPercent, &c.FlashLoanAmount, &c.ScanInterval,
		&c.MaxLoanUSD, &c.DailyLossLimit, &c.MaxSingleLossUSD, &c.InsuranceFundPercent,
		&c.MaxGasPriceGwei, &c.PriorityFeeGwei, &c.MinNetProfitUSD,
		&c.EnableRealTrading, &c.UseSimulation, &c.AutoPauseEnabled,
		&c.TelegramBotToken, &c.TelegramChatID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.NetworkMode = models.NetworkMode(mode)
	return &c, nil
}

const statusColumns = `
user_id, is_running, is_paused, COALESCE(pause_reason, ''),
total_profit_usd, net_24h_usd, gas_cost_usd, insurance_fund_usd, success_rate,
active_opportunities, last_started_at, last_stopped_at, updated_at`

func scanStatus(row pgx.Row) (*models.BotStatus, error) {
	var st models.BotStatus
	err := row.Scan(
		&st.UserID, &st.IsRunning, &st.IsPaused, &st.PauseReason,
		&st.TotalProfitUSD, &st.Net24hUSD, &st.GasCostUSD, &st.InsuranceFundUSD, &st.SuccessRate,
		&st.ActiveOpportunities, &st.LastStartedAt, &st.LastStoppedAt, &st.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStatus in db
func (s *Store) GetStatus(ctx context.Context, userID string) (st *models.BotStatus, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.GetStatus")
		}
	}()
	return scanStatus(s.db.Conn().QueryRow(ctx,
		`SELECT `+statusColumns+` FROM bot_status WHERE user_id = $1`, userID))
}

// UpdateStatus частичный апдейт; строка создаётся, если её ещё нет.
func (s *Store) UpdateStatus(ctx context.Context, userID string, patch models.StatusPatch) (st *models.BotStatus, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.UpdateStatus")
		}
	}()

	// вставка строки и патч должны видеть один снимок
	err = s.db.RunRepeatableRead(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		if _, err := tx.Exec(ctxTx,
			`INSERT INTO bot_status (user_id, updated_at) VALUES ($1, now()) ON CONFLICT (user_id) DO NOTHING`,
			userID,
		); err != nil {
			return err
		}

		var e error
		st, e = scanStatus(tx.QueryRow(ctxTx, `
UPDATE bot_status SET
    is_running      = COALESCE($2, is_running),
    is_paused       = COALESCE($3, is_paused),
    pause_reason    = COALESCE($4, pause_reason),
    last_started_at = COALESCE($5, last_started_at),
    last_stopped_at = COALESCE($6, last_stopped_at),
    updated_at      = now()
WHERE user_id = $1
RETURNING `+statusColumns,
			userID, patch.IsRunning, patch.IsPaused, patch.PauseReason, patch.LastStartedAt, patch.LastStoppedAt,
		))
		return e
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetRecentTransactions in db
func (s *Store) GetRecentTransactions(ctx context.Context, userID string, limit int) (out []models.Transaction, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.GetRecentTransactions")
		}
	}()

	rows, err := s.db.Conn().Query(ctx, `
SELECT id, user_id, COALESCE(tx_hash, ''), status, profit_usd, gas_cost_usd, created_at
FROM arbitrage_transactions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`, userID, nullLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tx     models.Transaction
			status string
		)
		if err = rows.Scan(&tx.ID, &tx.UserID, &tx.TxHash, &status, &tx.ProfitUSD, &tx.GasCostUSD, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Status = models.TxStatus(status)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// AppendRecord in db
func (s *Store) AppendRecord(ctx context.Context, userID string, rec *models.NotificationRecord) (out *models.NotificationRecord, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.AppendRecord")
		}
	}()

	r := *rec
	r.UserID = userID
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	var meta []byte
	if len(r.Metadata) > 0 {
		if meta, err = sonic.Marshal(r.Metadata); err != nil {
			return nil, err
		}
	}

	_, err = s.db.Conn().Exec(ctx, `
INSERT INTO telegram_messages (id, user_id, message, message_type, success, error, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		r.ID, r.UserID, r.Message, r.MessageType, r.Success, r.Error, meta, r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecentRecords in db
func (s *Store) RecentRecords(ctx context.Context, userID string, limit int) (out []models.NotificationRecord, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.RecentRecords")
		}
	}()

	rows, err := s.db.Conn().Query(ctx, `
SELECT id, user_id, message, message_type, success, COALESCE(error, ''), metadata, created_at
FROM telegram_messages
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`, userID, nullLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r    models.NotificationRecord
			meta []byte
		)
		if err = rows.Scan(&r.ID, &r.UserID, &r.Message, &r.MessageType, &r.Success, &r.Error, &meta, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err = sonic.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// nullLimit limit <= 0 означает "все строки"; в postgres это LIMIT NULL.
func nullLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
