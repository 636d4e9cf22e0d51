package models

import (
	"testing"
	"time"
)

func TestSummarizeEmptyWindow(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Success != 0 || s.Failed != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if got := s.SuccessPercent(); got != "0" {
		t.Errorf("SuccessPercent() = %q, want 0", got)
	}
}

func TestSummarizeCountsByStatus(t *testing.T) {
	txs := []Transaction{
		{Status: TxSuccess}, {Status: TxSuccess}, {Status: TxFailed}, {Status: TxPending},
	}
	s := Summarize(txs)
	if s.Total != 4 || s.Success != 2 || s.Failed != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if got := s.SuccessPercent(); got != "50.0" {
		t.Errorf("SuccessPercent() = %q, want 50.0", got)
	}
}

func TestStatusPatchApply(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st := &BotStatus{IsRunning: true, LastStartedAt: &started, PauseReason: "gas"}

	stoppedAt := started.Add(time.Hour)
	StopPatch(stoppedAt).Apply(st)

	if st.IsRunning {
		t.Error("expected IsRunning=false")
	}
	if st.LastStoppedAt == nil || !st.LastStoppedAt.Equal(stoppedAt) {
		t.Errorf("LastStoppedAt = %v", st.LastStoppedAt)
	}
	if st.LastStartedAt == nil || !st.LastStartedAt.Equal(started) {
		t.Error("LastStartedAt must stay untouched")
	}
	if st.PauseReason != "gas" {
		t.Error("PauseReason must stay untouched")
	}
}

func TestBotConfigRPCURL(t *testing.T) {
	cfg := &BotConfig{
		NetworkMode:          NetworkMainnet,
		PolygonRPCURL:        "https://polygon",
		PolygonTestnetRPCURL: "https://amoy",
	}
	if cfg.RPCURL() != "https://polygon" {
		t.Errorf("mainnet RPC = %s", cfg.RPCURL())
	}
	cfg.NetworkMode = NetworkTestnet
	if cfg.RPCURL() != "https://amoy" {
		t.Errorf("testnet RPC = %s", cfg.RPCURL())
	}

	var empty *BotConfig
	if empty.TelegramConfigured() {
		t.Error("nil config must not be configured")
	}
	if (&BotConfig{TelegramBotToken: "T1"}).TelegramConfigured() {
		t.Error("config without chat must not be configured")
	}
}
