package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"arb_gateway/internal/storage"

	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("telegram: bot token or chat id not configured")

type GatewayConfig struct {
	UserID         string
	FallbackAdmins []string
	Location       *time.Location
	TxLimit        int
	PollInterval   time.Duration // 0 => конфиг читается только при Reload
}

// Gateway связывает настройки пользователя с сессией: поднимает, меняет
// и гасит её при смене токена или чата.
type Gateway struct {
	cfg      GatewayConfig
	stores   Stores
	sessions *SessionManager
	log      *zap.Logger

	// чтение конфига, сравнение и перезапуск сессии идут одним шагом
	mu sync.Mutex
}

func NewGateway(cfg GatewayConfig, stores Stores, sessions *SessionManager, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		cfg:      cfg,
		stores:   stores,
		sessions: sessions,
		log:      log.Named("gateway"),
	}
}

func (g *Gateway) Sessions() *SessionManager { return g.sessions }

// Reload перечитывает настройки. Те же токен и чат => ничего не делает.
func (g *Gateway) Reload(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cfg, err := g.stores.Config.GetConfig(ctx, g.cfg.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("reload: %w", err)
	}
	if !cfg.TelegramConfigured() {
		if _, ok := g.sessions.Active(); ok {
			g.log.Info("telegram credentials removed, stopping session")
		}
		g.sessions.Stop()
		return ErrNotConfigured
	}

	creds := Credentials{
		Token:    strings.TrimSpace(cfg.TelegramBotToken),
		HomeChat: strings.TrimSpace(cfg.TelegramChatID),
	}
	if cur, ok := g.sessions.Credentials(); ok && cur == creds {
		return nil
	}

	d := NewDispatcher(DispatcherConfig{
		UserID: g.cfg.UserID,
		Policy: Policy{
			HomeChat:       creds.HomeChat,
			FallbackAdmins: g.cfg.FallbackAdmins,
		},
		Location: g.cfg.Location,
		TxLimit:  g.cfg.TxLimit,
	}, g.stores, g.log)

	if err := g.sessions.Start(ctx, creds, d); err != nil {
		return err
	}
	return nil
}

// Run поднимает сессию по текущим настройкам и следит за ними, пока не
// отменят ctx. Первый Reload идёт здесь, а не в OnStart: getMe может висеть
// дольше таймаута старта приложения.
func (g *Gateway) Run(ctx context.Context) {
	switch err := g.Reload(ctx); {
	case errors.Is(err, ErrNotConfigured):
		g.log.Info("telegram bot not configured, waiting for settings")
	case err != nil && ctx.Err() == nil:
		g.log.Warn("telegram session not started", zap.Error(err))
	}

	if g.cfg.PollInterval <= 0 {
		return
	}

	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := g.Reload(ctx)
			if err != nil && !errors.Is(err, ErrNotConfigured) && ctx.Err() == nil {
				g.log.Warn("telegram reload failed", zap.Error(err))
			}
		}
	}
}

func (g *Gateway) Shutdown() {
	g.sessions.Stop()
}
