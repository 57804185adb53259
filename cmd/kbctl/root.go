package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/osassistant/backend/internal/app"
	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/logger"
)

var (
	noColor  bool
	logLevel string

	kb *app.App
)

var rootCmd = &cobra.Command{
	Use:           "kbctl",
	Short:         "Query and maintain the support knowledge base",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger.Initialize(logger.Options{Level: cfg.LogLevel})

		kb, err = app.Build(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("open knowledge base: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if kb != nil {
			kb.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")
}
