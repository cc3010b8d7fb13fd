package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"convmetrics/internal/config"
	"convmetrics/internal/store"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the metrics database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := configDir
		if dir == "" {
			dir = config.DefaultDir()
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
			fmt.Printf("Already initialized — %s exists\n", filepath.Join(dir, "config.yaml"))
			return nil
		}

		cfg, err := config.CreateDefault(dir)
		if err != nil {
			return fmt.Errorf("init failed: %w", err)
		}

		st, err := store.New(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("init failed: %w", err)
		}
		st.Close()

		fmt.Printf("Initialized convmetrics in %s\n", cfg.ConfigDir)
		fmt.Printf("Projects path: %s\n", cfg.ProjectsPath)
		fmt.Printf("Metrics database: %s\n", cfg.StoragePath)
		fmt.Println("Run 'convmetrics scan' to start analyzing conversations")
		return nil
	},
}
