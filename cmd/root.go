package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"convmetrics/internal/config"
	"convmetrics/internal/store"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "convmetrics",
	Short: "Monitor and analyze Claude Code conversations",
	Long: `convmetrics scans Claude Code conversation logs, detects behavioral
patterns (errors, tool usage, workflow signals) in the message text, and
aggregates per-repository metrics you can report on or export to
observability dashboards.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory for configuration files (default ~/.convmetrics)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore loads the config and opens the metrics database. Store
// failures here are fatal and distinct from an empty store.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(cfg.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}
