package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error: postgres driver without dsn, got cfg %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
gateway:
  user_id: "u-42"
  timezone: "UTC"
telegram:
  request_timeout: 3s
  fallback_admin_ids: ["1", "2"]
storage:
  driver: memory
service:
  admin_port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.UserID != "u-42" {
		t.Errorf("user_id = %q", cfg.Gateway.UserID)
	}
	if cfg.Telegram.RequestTimeout != 3*time.Second {
		t.Errorf("request_timeout = %s", cfg.Telegram.RequestTimeout)
	}
	if len(cfg.Telegram.FallbackAdminIDs) != 2 || cfg.Telegram.FallbackAdminIDs[1] != "2" {
		t.Errorf("fallback_admin_ids = %v", cfg.Telegram.FallbackAdminIDs)
	}
	if cfg.Telegram.PollTimeout != 30 {
		t.Errorf("poll_timeout default = %d", cfg.Telegram.PollTimeout)
	}
	if cfg.Telegram.TxHistoryLimit != 100 {
		t.Errorf("tx_history_limit default = %d", cfg.Telegram.TxHistoryLimit)
	}
	if cfg.AdminAddr() != "0.0.0.0:9090" {
		t.Errorf("admin addr = %s", cfg.AdminAddr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
`)
	t.Setenv("GATEWAY_USER_ID", "from-env")
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "45")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.UserID != "from-env" {
		t.Errorf("user_id = %q", cfg.Gateway.UserID)
	}
	if cfg.Telegram.PollTimeout != 45 {
		t.Errorf("poll_timeout = %d", cfg.Telegram.PollTimeout)
	}
	if len(cfg.Telegram.FallbackAdminIDs) != 1 || cfg.Telegram.FallbackAdminIDs[0] != DefaultFallbackAdminID {
		t.Errorf("fallback_admin_ids = %v", cfg.Telegram.FallbackAdminIDs)
	}
}

func TestLoadDatabaseDSNOverride(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
`)
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.DSN != "postgres://u:p@localhost:5432/db" {
		t.Errorf("dsn = %q", cfg.Storage.DSN)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: mongo
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	path := writeConfig(t, `
gateway:
  timezone: "Mars/Olympus"
storage:
  driver: memory
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad timezone")
	}
}
