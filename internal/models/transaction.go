package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TxStatus string

const (
	TxSuccess TxStatus = "SUCCESS"
	TxFailed  TxStatus = "FAILED"
	TxPending TxStatus = "PENDING"
)

// Transaction арбитражная транзакция из истории.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	TxHash     string          `json:"tx_hash"`
	Status     TxStatus        `json:"status"`
	ProfitUSD  decimal.Decimal `json:"profit_usd"`
	GasCostUSD decimal.Decimal `json:"gas_cost_usd"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TransactionSummary счётчики по окну последних транзакций.
type TransactionSummary struct {
	Total   int
	Success int
	Failed  int
}

func Summarize(txs []Transaction) TransactionSummary {
	s := TransactionSummary{Total: len(txs)}
	for _, tx := range txs {
		switch tx.Status {
		case TxSuccess:
			s.Success++
		case TxFailed:
			s.Failed++
		}
	}
	return s
}

// SuccessPercent доля успешных в окне; пустое окно => "0".
func (s TransactionSummary) SuccessPercent() string {
	if s.Total == 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(s.Success)/float64(s.Total)*100)
}
