// Command remedy is the CLI for the autonomous remediation pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/config"
	"github.com/remedyhq/remedy/internal/store"
	"github.com/remedyhq/remedy/internal/store/sqlite"
)

// Shared state for all subcommands, populated by the root pre-run
var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "remedy",
	Short: "Autonomous remediation pipeline",
	Long: `Remedy polls for healing missions, diagnoses the underlying anomaly,
synthesizes a fix, and either applies it autonomously or routes it for
human review depending on confidence and risk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; real deployments use the environment
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".remedy/config.yaml", "path to the config file")
}

// openStore opens the SQLite-backed shared store. Callers own Close on the
// returned KV backend.
func openStore() (*store.Store, *sqlite.Store, error) {
	kv, err := sqlite.New(cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store at %s: %w", cfg.StorePath, err)
	}
	return store.New(kv), kv, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
