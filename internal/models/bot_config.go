package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type NetworkMode string

const (
	NetworkMainnet NetworkMode = "mainnet"
	NetworkTestnet NetworkMode = "testnet"
)

// BotConfig настройки бота пользователя. Шлюз их только читает.
type BotConfig struct {
	UserID string `json:"user_id"`

	NetworkMode          NetworkMode `json:"network_mode"`
	PolygonRPCURL        string      `json:"polygon_rpc_url"`
	PolygonTestnetRPCURL string      `json:"polygon_testnet_rpc_url"`

	// Параметры торговли
	MinProfitPercent    decimal.Decimal `json:"min_profit_percent"`
	MinNetProfitPercent decimal.Decimal `json:"min_net_profit_percent"`
	FlashLoanAmount     decimal.Decimal `json:"flash_loan_amount"`
	ScanInterval        int             `json:"scan_interval"` // секунды

	// Лимиты безопасности
	MaxLoanUSD           decimal.Decimal `json:"max_loan_usd"`
	DailyLossLimit       decimal.Decimal `json:"daily_loss_limit"`
	MaxSingleLossUSD     decimal.Decimal `json:"max_single_loss_usd"`
	InsuranceFundPercent decimal.Decimal `json:"insurance_fund_percent"`

	// Gas
	MaxGasPriceGwei decimal.Decimal `json:"max_gas_price_gwei"`
	PriorityFeeGwei decimal.Decimal `json:"priority_fee_gwei"`
	MinNetProfitUSD decimal.Decimal `json:"min_net_profit_usd"`

	EnableRealTrading bool `json:"enable_real_trading"`
	UseSimulation     bool `json:"use_simulation"`
	AutoPauseEnabled  bool `json:"auto_pause_enabled"`

	// Секреты: наружу не сериализуются
	TelegramBotToken string `json:"-"`
	TelegramChatID   string `json:"telegram_chat_id"`
	PrivateKey       string `json:"-"`
}

// TelegramConfigured есть и токен, и чат.
func (c *BotConfig) TelegramConfigured() bool {
	return c != nil &&
		strings.TrimSpace(c.TelegramBotToken) != "" &&
		strings.TrimSpace(c.TelegramChatID) != ""
}

func (c *BotConfig) IsMainnet() bool {
	return c != nil && c.NetworkMode == NetworkMainnet
}

// RPCURL эндпоинт текущей сети.
func (c *BotConfig) RPCURL() string {
	if c == nil {
		return ""
	}
	if c.IsMainnet() {
		return c.PolygonRPCURL
	}
	return c.PolygonTestnetRPCURL
}
