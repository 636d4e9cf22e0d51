package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	databaseDSN       = "DATABASE_DSN"

	defaultConfigFile = "values_local.yaml"
	defaultConfigDir  = "configs"
)

// Дефолтный админ из исходного деплоя: авторизован из любого чата.
const DefaultFallbackAdminID = "861887555"

// Config ...
type Config struct {
	Gateway struct {
		// Пользователь (деплой), чьи настройки и статус обслуживает шлюз
		UserID   string `mapstructure:"user_id"`
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"gateway"`

	Telegram struct {
		PollTimeout        int           `mapstructure:"poll_timeout"`         // секунды long-poll
		RequestTimeout     time.Duration `mapstructure:"request_timeout"`      // на один вызов API
		ConfigPollInterval time.Duration `mapstructure:"config_poll_interval"` // 0 => не следим за конфигом
		FallbackAdminIDs   []string      `mapstructure:"fallback_admin_ids"`
		TxHistoryLimit     int           `mapstructure:"tx_history_limit"` // окно для /stats
		Debug              bool          `mapstructure:"debug"`
	} `mapstructure:"telegram"`

	Storage struct {
		Driver      string `mapstructure:"driver"` // postgres | sqlite | memory
		DSN         string `mapstructure:"dsn"`
		SQLitePath  string `mapstructure:"sqlite_path"`
		Fixtures    string `mapstructure:"fixtures"` // yaml для memory
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"storage"`

	Service struct {
		Host      string `mapstructure:"host"`
		AdminPort int    `mapstructure:"admin_port"`
	} `mapstructure:"service"`

	Log struct {
		Level      string `mapstructure:"level"`
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"log"`

	Tracing struct {
		Enabled     bool   `mapstructure:"enabled"`
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

// NewConfig читает configs/$CONFIG_FILE поверх дефолтов, затем env.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = defaultConfigDir
	}
	return Load(dir + "/" + configFileName)
}

// Load собирает конфиг из файла path (может отсутствовать) и переменных окружения.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *fs.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if dsn := os.Getenv(databaseDSN); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.user_id", "default")
	v.SetDefault("gateway.timezone", "Europe/Moscow")

	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.request_timeout", "10s")
	v.SetDefault("telegram.config_poll_interval", "30s")
	v.SetDefault("telegram.fallback_admin_ids", []string{DefaultFallbackAdminID})
	v.SetDefault("telegram.tx_history_limit", 100)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sqlite_path", "data/gateway.db")
	v.SetDefault("storage.fixtures", "")
	v.SetDefault("storage.auto_migrate", true)

	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.admin_port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
	v.SetDefault("tracing.service_name", "arb_gateway")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Gateway.UserID) == "" {
		return fmt.Errorf("gateway.user_id is required")
	}
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres driver")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = 30
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = 10 * time.Second
	}
	if c.Telegram.TxHistoryLimit <= 0 {
		c.Telegram.TxHistoryLimit = 100
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("gateway.timezone: %w", err)
	}
	return nil
}

// Location часовой пояс для дат в ответах бота.
func (c *Config) Location() (*time.Location, error) {
	if c.Gateway.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Gateway.Timezone)
}

// AdminAddr адрес служебного HTTP.
func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}
