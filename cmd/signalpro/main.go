package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/newthinker/signalpro/internal/config"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "signalpro",
	Short: "SignalPro - trading signal dashboard backend",
	Long: `SignalPro serves the data behind the trading signal dashboard: active
signals with drifting confidence, closed-trade history, derived performance
metrics and a price chart.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or falls back to defaults, and validates.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newSession(cfg *config.Config, log *zap.Logger, opts ...session.Option) (*session.Session, error) {
	opts = append([]session.Option{session.WithLogger(log)}, opts...)
	return session.New(session.ConfigFrom(cfg.Refresh), opts...)
}
