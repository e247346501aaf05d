package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/version"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "docrank",
	Short: "Rank document sections for a persona and a job to be done",
	Long: `docrank splits documents into titled sections, scores every section against
a persona and the task they are working on, and reports the top sections with
condensed excerpts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docrank %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (overrides DOCRANK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads configuration and applies the global flags.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		os.Setenv("DOCRANK_CONFIG", configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger. The server logs JSON; CLI commands log text.
func newLogger(w io.Writer, cfg config.Config, json bool) *slog.Logger {
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
