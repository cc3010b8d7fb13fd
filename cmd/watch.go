package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"convmetrics/internal/daemon"
)

var watchInterval string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "rescan interval (default from config, e.g. 5m)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously rescan conversations as they change",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		interval := cfg.ScanInterval
		if watchInterval != "" {
			interval = watchInterval
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := daemon.New(cfg.ProjectsPath, interval, func() error {
			processed, repos, err := runScan(cfg, st, "", "", false)
			if err != nil {
				return err
			}
			if processed > 0 {
				fmt.Printf("Rescanned %d conversations across %d repositories\n", processed, repos)
			}
			return nil
		})
		return d.Run(ctx)
	},
}
