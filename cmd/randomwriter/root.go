package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	activeCfg appConfig
)

func NewRootCmd() *cobra.Command {
	defaults := defaultConfig()

	cmd := &cobra.Command{
		Use:   "randomwriter",
		Short: "Train Markov models and generate random sequences from them",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, cfgFile, defaults)
			if err != nil {
				return err
			}
			activeCfg = loaded
			return setupLogger(loaded.LogLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (json|yaml|toml)")
	registerFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newModelsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) error {
	lvl, err := parseLogLevel(levelStr)
	if err != nil {
		return err
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}
