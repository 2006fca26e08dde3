// Command helpdesk runs the community issue intake assistant.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/antoniostano/helpdesk/internal/config"
	"github.com/antoniostano/helpdesk/internal/observability"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "helpdesk",
		Short:         "Conversational intake for community issue reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file loaded before reading config")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	return root
}

// loadConfig reads the dotenv file, then the environment.
func loadConfig() (config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger, err := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// runCleanup releases built resources, logging rather than returning failures.
func runCleanup(logger *slog.Logger, cleanup func() error) {
	if cleanup == nil {
		return
	}
	if err := cleanup(); err != nil {
		logger.Warn("cleanup failed", "error", err)
	}
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
