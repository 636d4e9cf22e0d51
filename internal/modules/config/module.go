package config

import (
	"arb_gateway/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module регистрирует конфиг и логгер как fx-провайдеры.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
			NewLogger,
		),
	)
}

// NewLogger строит zap-логгер по секции log.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}
