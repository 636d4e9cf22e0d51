package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotStatus состояние торгового движка. Владельцы: движок и хранилище.
type BotStatus struct {
	UserID string `json:"user_id"`

	IsRunning   bool   `json:"is_running"`
	IsPaused    bool   `json:"is_paused"`
	PauseReason string `json:"pause_reason,omitempty"`

	TotalProfitUSD   decimal.Decimal `json:"total_profit_usd"`
	Net24hUSD        decimal.Decimal `json:"net_24h_usd"`
	GasCostUSD       decimal.Decimal `json:"gas_cost_usd"`
	InsuranceFundUSD decimal.Decimal `json:"insurance_fund_usd"`
	SuccessRate      decimal.Decimal `json:"success_rate"` // накопительный, %

	ActiveOpportunities int `json:"active_opportunities"`

	LastStartedAt *time.Time `json:"last_started_at,omitempty"`
	LastStoppedAt *time.Time `json:"last_stopped_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// StatusPatch частичное обновление статуса: nil-поля не трогаем.
type StatusPatch struct {
	IsRunning     *bool
	IsPaused      *bool
	PauseReason   *string
	LastStartedAt *time.Time
	LastStoppedAt *time.Time
}

// Apply применяет патч к статусу на месте.
func (p StatusPatch) Apply(s *BotStatus) {
	if p.IsRunning != nil {
		s.IsRunning = *p.IsRunning
	}
	if p.IsPaused != nil {
		s.IsPaused = *p.IsPaused
	}
	if p.PauseReason != nil {
		s.PauseReason = *p.PauseReason
	}
	if p.LastStartedAt != nil {
		t := *p.LastStartedAt
		s.LastStartedAt = &t
	}
	if p.LastStoppedAt != nil {
		t := *p.LastStoppedAt
		s.LastStoppedAt = &t
	}
}

// StopPatch снимает флаг работы и ставит время остановки.
func StopPatch(at time.Time) StatusPatch {
	running := false
	return StatusPatch{IsRunning: &running, LastStoppedAt: &at}
}
