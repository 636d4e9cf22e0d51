package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTimezoneLoadsWithoutSystemZoneinfo(t *testing.T) {
	// пустой ZONEINFO: зона должна найтись во встроенной базе
	t.Setenv("ZONEINFO", t.TempDir())

	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if _, off := time.Date(2026, 1, 15, 12, 0, 0, 0, loc).Zone(); off != 3*60*60 {
		t.Errorf("offset = %d, want +03:00", off)
	}
}

func TestLoadConfigResolvesDefaultTimezone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  driver: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_FILE", "values.yaml")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Location: %v", err)
	}
}
