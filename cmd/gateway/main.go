package main

import (
	"fmt"
	"os"
	"path/filepath"
	_ "time/tzdata" // Europe/Moscow по умолчанию, в минимальных образах нет zoneinfo

	"arb_gateway/internal/modules/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	userID  string
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Telegram command & notification gateway for the arbitrage bot",
	Long: `Gateway keeps one long-poll Telegram session per deployment, answers
authorized /status /stats /config /stop commands from the home chat and
delivers outbound notifications with a durable delivery log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --config раскладываем в CONFIG_DIR/CONFIG_FILE, дальше читает NewConfig
		if cfgFile == "" {
			return nil
		}
		if err := os.Setenv("CONFIG_DIR", filepath.Dir(cfgFile)); err != nil {
			return err
		}
		return os.Setenv("CONFIG_FILE", filepath.Base(cfgFile))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default configs/values_local.yaml)")
	rootCmd.AddCommand(serveCmd, checkCmd, notifyCmd)
}

// loadConfig конфиг для разовых команд; --user перекрывает gateway.user_id.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if userID != "" {
		cfg.Gateway.UserID = userID
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
