package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arb_gateway/internal/models"
	"arb_gateway/internal/modules/config"
	storagemod "arb_gateway/internal/modules/storage"
	"arb_gateway/internal/modules/telegram_bot/service"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	notifyType    string
	notifyMessage string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the stored Telegram token and chat by sending a test message",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotifier(cmd.Context(), func(ctx context.Context, cfg *config.Config, n *service.Notifier) error {
			rep := n.TestConnection(ctx, cfg.Gateway.UserID)
			if err := printJSON(rep); err != nil {
				return err
			}
			if !rep.Success {
				return fmt.Errorf("connection test failed")
			}
			return nil
		})
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send one notification and record it in the delivery log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if notifyMessage == "" {
			return fmt.Errorf("--message is required")
		}
		return withNotifier(cmd.Context(), func(ctx context.Context, cfg *config.Config, n *service.Notifier) error {
			out := n.Notify(ctx, cfg.Gateway.UserID, notifyMessage, notifyType, nil)
			if err := printJSON(out); err != nil {
				return err
			}
			if !out.Success {
				return fmt.Errorf("notification not delivered: %s", out.Error)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, notifyCmd} {
		c.Flags().StringVar(&userID, "user", "", "user id (default gateway.user_id)")
	}
	notifyCmd.Flags().StringVar(&notifyType, "type", models.MessageTypeNotification, "message type (notification, alert, profit, error)")
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "HTML message text")
}

// withNotifier поднимает конфиг, логгер и хранилище без fx.
func withNotifier(parent context.Context, fn func(ctx context.Context, cfg *config.Config, n *service.Notifier) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	st, err := storagemod.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()

	n := service.NewNotifier(st, st, service.NewBotFactory(cfg.Telegram.Debug), cfg.Telegram.RequestTimeout, log)
	return fn(ctx, cfg, n)
}

func printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
