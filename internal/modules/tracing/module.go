package tracing

import (
	"context"

	"arb_gateway/internal/modules/config"
	"arb_gateway/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module поднимает jaeger-трейсер, если tracing.enabled.
func Module() fx.Option {
	return fx.Module("tracing",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
			if !cfg.Tracing.Enabled {
				return nil
			}
			tracing.SetServiceName(cfg.Tracing.ServiceName)
			_, closer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Tracing.Host,
				Port: cfg.Tracing.Port,
			})
			if err != nil {
				return err
			}
			log.Info("tracing enabled", zap.String("service", cfg.Tracing.ServiceName))
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closer()
					return nil
				},
			})
			return nil
		}),
	)
}
