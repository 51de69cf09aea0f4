package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gochat/internal/config"
	"gochat/internal/logger"
)

var (
	version = "dev"

	configFile string
)

var rootCmd = &cobra.Command{
	Use:     "chat-svc",
	Short:   "gochat direct-messaging backend",
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")
}

// bootstrap loads configuration and builds the logger shared by every subcommand.
func bootstrap() (*config.Config, *zap.Logger, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg := config.LoadConfig()

	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
