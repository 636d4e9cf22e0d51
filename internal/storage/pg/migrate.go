package pg

import (
	"context"

	"github.com/pkg/errors"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS bot_configs (
		user_id                 TEXT PRIMARY KEY,
		network_mode            TEXT NOT NULL DEFAULT 'testnet',
		polygon_rpc_url         TEXT,
		polygon_testnet_rpc_url TEXT,
		min_profit_percent      NUMERIC NOT NULL DEFAULT 0,
		min_net_profit_percent  NUMERIC NOT NULL DEFAULT 0,
		flash_loan_amount       NUMERIC NOT NULL DEFAULT 0,
		scan_interval           INTEGER NOT NULL DEFAULT 0,
		max_loan_usd            NUMERIC NOT NULL DEFAULT 0,
		daily_loss_limit        NUMERIC NOT NULL DEFAULT 0,
		max_single_loss_usd     NUMERIC NOT NULL DEFAULT 0,
		insurance_fund_percent  NUMERIC NOT NULL DEFAULT 0,
		max_gas_price_gwei      NUMERIC NOT NULL DEFAULT 0,
		priority_fee_gwei       NUMERIC NOT NULL DEFAULT 0,
		min_net_profit_usd      NUMERIC NOT NULL DEFAULT 0,
		enable_real_trading     BOOLEAN NOT NULL DEFAULT FALSE,
		use_simulation          BOOLEAN NOT NULL DEFAULT TRUE,
		auto_pause_enabled      BOOLEAN NOT NULL DEFAULT TRUE,
		telegram_bot_token      TEXT,
		telegram_chat_id        TEXT,
		private_key             TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS bot_status (
		user_id              TEXT PRIMARY KEY,
		is_running           BOOLEAN NOT NULL DEFAULT FALSE,
		is_paused            BOOLEAN NOT NULL DEFAULT FALSE,
		pause_reason         TEXT,
		total_profit_usd     NUMERIC NOT NULL DEFAULT 0,
		net_24h_usd          NUMERIC NOT NULL DEFAULT 0,
		gas_cost_usd         NUMERIC NOT NULL DEFAULT 0,
		insurance_fund_usd   NUMERIC NOT NULL DEFAULT 0,
		success_rate         NUMERIC NOT NULL DEFAULT 0,
		active_opportunities INTEGER NOT NULL DEFAULT 0,
		last_started_at      TIMESTAMPTZ,
		last_stopped_at      TIMESTAMPTZ,
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS arbitrage_transactions (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		tx_hash      TEXT,
		status       TEXT NOT NULL,
		profit_usd   NUMERIC NOT NULL DEFAULT 0,
		gas_cost_usd NUMERIC NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS arbitrage_transactions_user_created_idx
		ON arbitrage_transactions (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS telegram_messages (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		message      TEXT NOT NULL,
		message_type TEXT NOT NULL,
		success      BOOLEAN NOT NULL,
		error        TEXT,
		metadata     JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS telegram_messages_user_created_idx
		ON telegram_messages (user_id, created_at DESC)`,
}

// Migrate создаёт таблицы, если их нет.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range migrations {
		if _, err := s.db.Conn().Exec(ctx, q); err != nil {
			return errors.Wrap(err, "pg.Migrate")
		}
	}
	return nil
}
