package memory

import (
	"fmt"
	"os"
	"time"

	"arb_gateway/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// fixtureFile формат yaml-файла с начальными данными для memory-драйвера.
type fixtureFile struct {
	Users []fixtureUser `yaml:"users"`
}

type fixtureUser struct {
	ID     string `yaml:"id"`
	Config struct {
		NetworkMode          string  `yaml:"network_mode"`
		PolygonRPCURL        string  `yaml:"polygon_rpc_url"`
		PolygonTestnetRPCURL string  `yaml:"polygon_testnet_rpc_url"`
		MinProfitPercent     float64 `yaml:"min_profit_percent"`
		MinNetProfitPercent  float64 `yaml:"min_net_profit_percent"`
		FlashLoanAmount      float64 `yaml:"flash_loan_amount"`
		ScanInterval         int     `yaml:"scan_interval"`
		MaxLoanUSD           float64 `yaml:"max_loan_usd"`
		DailyLossLimit       float64 `yaml:"daily_loss_limit"`
		MaxSingleLossUSD     float64 `yaml:"max_single_loss_usd"`
		InsuranceFundPercent float64 `yaml:"insurance_fund_percent"`
		MaxGasPriceGwei      float64 `yaml:"max_gas_price_gwei"`
		PriorityFeeGwei      float64 `yaml:"priority_fee_gwei"`
		MinNetProfitUSD      float64 `yaml:"min_net_profit_usd"`
		EnableRealTrading    bool    `yaml:"enable_real_trading"`
		UseSimulation        bool    `yaml:"use_simulation"`
		AutoPauseEnabled     bool    `yaml:"auto_pause_enabled"`
		TelegramBotToken     string  `yaml:"telegram_bot_token"`
		TelegramChatID       string  `yaml:"telegram_chat_id"`
	} `yaml:"config"`
	Status *struct {
		IsRunning           bool    `yaml:"is_running"`
		IsPaused            bool    `yaml:"is_paused"`
		PauseReason         string  `yaml:"pause_reason"`
		TotalProfitUSD      float64 `yaml:"total_profit_usd"`
		Net24hUSD           float64 `yaml:"net_24h_usd"`
		GasCostUSD          float64 `yaml:"gas_cost_usd"`
		InsuranceFundUSD    float64 `yaml:"insurance_fund_usd"`
		SuccessRate         float64 `yaml:"success_rate"`
		ActiveOpportunities int     `yaml:"active_opportunities"`
	} `yaml:"status"`
	Transactions []struct {
		TxHash     string  `yaml:"tx_hash"`
		Status     string  `yaml:"status"`
		ProfitUSD  float64 `yaml:"profit_usd"`
		GasCostUSD float64 `yaml:"gas_cost_usd"`
		AgeMinutes int     `yaml:"age_minutes"`
	} `yaml:"transactions"`
}

// LoadFixtures наполняет стор из yaml-файла.
func (s *Store) LoadFixtures(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	return s.loadFixtures(raw)
}

func (s *Store) loadFixtures(raw []byte) error {
	var f fixtureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, u := range f.Users {
		if u.ID == "" {
			return fmt.Errorf("fixture user without id")
		}
		c := u.Config
		s.PutConfig(models.BotConfig{
			UserID:               u.ID,
			NetworkMode:          models.NetworkMode(c.NetworkMode),
			PolygonRPCURL:        c.PolygonRPCURL,
			PolygonTestnetRPCURL: c.PolygonTestnetRPCURL,
			MinProfitPercent:     decimal.NewFromFloat(c.MinProfitPercent),
			MinNetProfitPercent:  decimal.NewFromFloat(c.MinNetProfitPercent),
			FlashLoanAmount:      decimal.NewFromFloat(c.FlashLoanAmount),
			ScanInterval:         c.ScanInterval,
			MaxLoanUSD:           decimal.NewFromFloat(c.MaxLoanUSD),
			DailyLossLimit:       decimal.NewFromFloat(c.DailyLossLimit),
			MaxSingleLossUSD:     decimal.NewFromFloat(c.MaxSingleLossUSD),
			InsuranceFundPercent: decimal.NewFromFloat(c.InsuranceFundPercent),
			MaxGasPriceGwei:      decimal.NewFromFloat(c.MaxGasPriceGwei),
			PriorityFeeGwei:      decimal.NewFromFloat(c.PriorityFeeGwei),
			MinNetProfitUSD:      decimal.NewFromFloat(c.MinNetProfitUSD),
			EnableRealTrading:    c.EnableRealTrading,
			UseSimulation:        c.UseSimulation,
			AutoPauseEnabled:     c.AutoPauseEnabled,
			TelegramBotToken:     c.TelegramBotToken,
			TelegramChatID:       c.TelegramChatID,
		})

		if st := u.Status; st != nil {
			s.PutStatus(models.BotStatus{
				UserID:              u.ID,
				IsRunning:           st.IsRunning,
				IsPaused:            st.IsPaused,
				PauseReason:         st.PauseReason,
				TotalProfitUSD:      decimal.NewFromFloat(st.TotalProfitUSD),
				Net24hUSD:           decimal.NewFromFloat(st.Net24hUSD),
				GasCostUSD:          decimal.NewFromFloat(st.GasCostUSD),
				InsuranceFundUSD:    decimal.NewFromFloat(st.InsuranceFundUSD),
				SuccessRate:         decimal.NewFromFloat(st.SuccessRate),
				ActiveOpportunities: st.ActiveOpportunities,
				UpdatedAt:           now,
			})
		}

		for _, tx := range u.Transactions {
			s.AddTransaction(models.Transaction{
				UserID:     u.ID,
				TxHash:     tx.TxHash,
				Status:     models.TxStatus(tx.Status),
				ProfitUSD:  decimal.NewFromFloat(tx.ProfitUSD),
				GasCostUSD: decimal.NewFromFloat(tx.GasCostUSD),
				CreatedAt:  now.Add(-time.Duration(tx.AgeMinutes) * time.Minute),
			})
		}
	}
	return nil
}
