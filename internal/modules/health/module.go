package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"arb_gateway/internal/modules/config"
	"arb_gateway/internal/modules/health/service"
	tg "arb_gateway/internal/modules/telegram_bot/service"
	"arb_gateway/internal/storage"
	"arb_gateway/internal/websocket"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewHub(lc fx.Lifecycle, log *zap.Logger) *websocket.Hub {
	hub := websocket.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub
}

func NewDeps(
	cfg *config.Config,
	state *service.State,
	gateway *tg.Gateway,
	notifier *tg.Notifier,
	records storage.NotificationLog,
	hub *websocket.Hub,
	log *zap.Logger,
) Deps {
	return Deps{
		UserID:   cfg.Gateway.UserID,
		State:    state,
		Gateway:  gateway,
		Notifier: notifier,
		Records:  records,
		Feed:     hub.ServeWS,
		Log:      log.Named("admin"),
	}
}

// Wire подписывает health-state на сессию, а ленту на журнал уведомлений.
func Wire(state *service.State, gateway *tg.Gateway, notifier *tg.Notifier, hub *websocket.Hub) {
	gateway.Sessions().SetObserver(state)
	notifier.SetBroadcaster(hub)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, r chi.Router, state *service.State, log *zap.Logger) {
	addr := cfg.AdminAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("admin http stopped", zap.Error(err))
				}
			}()
			state.SetReady(true)
			log.Info("admin http listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewHub,
			NewDeps,
			NewRouter,
		),
		fx.Invoke(Wire),
		fx.Invoke(RunHTTP),
	)
}
