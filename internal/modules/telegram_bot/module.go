package telegram

import (
	"context"

	"arb_gateway/internal/modules/config"
	"arb_gateway/internal/modules/telegram_bot/service"
	"arb_gateway/internal/storage"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewBotFactory(cfg *config.Config) service.BotFactory {
	return service.NewBotFactory(cfg.Telegram.Debug)
}

func NewSessionManager(cfg *config.Config, factory service.BotFactory, log *zap.Logger) *service.SessionManager {
	return service.NewSessionManager(factory, cfg.Telegram.PollTimeout, cfg.Telegram.RequestTimeout, log)
}

func NewGateway(
	cfg *config.Config,
	configs storage.ConfigStore,
	statuses storage.StatusStore,
	txs storage.TransactionStore,
	sessions *service.SessionManager,
	log *zap.Logger,
) (*service.Gateway, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return service.NewGateway(service.GatewayConfig{
		UserID:         cfg.Gateway.UserID,
		FallbackAdmins: cfg.Telegram.FallbackAdminIDs,
		Location:       loc,
		TxLimit:        cfg.Telegram.TxHistoryLimit,
		PollInterval:   cfg.Telegram.ConfigPollInterval,
	}, service.Stores{
		Config:       configs,
		Status:       statuses,
		Transactions: txs,
	}, sessions, log), nil
}

func NewNotifier(
	cfg *config.Config,
	configs storage.ConfigStore,
	records storage.NotificationLog,
	factory service.BotFactory,
	log *zap.Logger,
) *service.Notifier {
	return service.NewNotifier(configs, records, factory, cfg.Telegram.RequestTimeout, log)
}

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Транспорт
		fx.Provide(
			NewBotFactory,
			NewSessionManager,
		),

		// 2. Шлюз команд и отправка уведомлений
		fx.Provide(
			NewGateway,
			NewNotifier,
		),

		// Запуск сессии и слежения за конфигом через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, g *service.Gateway) {
				runCtx, cancel := context.WithCancel(context.Background())
				done := make(chan struct{})

				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						// сессию поднимает Run в фоне: недоступный Telegram
						// не должен валить старт админки и API уведомлений
						go func() {
							defer close(done)
							g.Run(runCtx)
						}()
						return nil
					},
					OnStop: func(ctx context.Context) error {
						cancel()
						select {
						case <-done:
						case <-ctx.Done():
						}
						g.Shutdown()
						return nil
					},
				})
			},
		),
	)
}
