package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"convmetrics/internal/export"
)

var (
	pushURL   string
	pushUser  string
	pushToken string
)

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVar(&pushURL, "remote-write-url", "", "Prometheus remote write URL")
	pushCmd.Flags().StringVar(&pushUser, "remote-write-user", "", "remote write username/instance id")
	pushCmd.Flags().StringVar(&pushToken, "remote-write-token", "", "remote write API token")
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Scan recent conversations and push metrics to a remote write endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pushURL == "" || pushUser == "" || pushToken == "" {
			fmt.Println("Remote write needs three values from your metrics provider:")
			fmt.Println("  --remote-write-url    e.g. https://prometheus-prod-xx.example.net/api/prom/push")
			fmt.Println("  --remote-write-user   username or instance id")
			fmt.Println("  --remote-write-token  API token")
			return nil
		}

		cfg, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Println("Scanning recent conversations...")
		if _, _, err := runScan(cfg, st, "1d", "", false); err != nil {
			return err
		}

		metrics, err := st.RepositoryMetrics("")
		if err != nil {
			return err
		}
		stats, err := st.BasicStats()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := export.Prometheus(&buf, metrics, stats); err != nil {
			return err
		}

		fmt.Println("Pushing metrics...")
		if err := export.Push(cmd.Context(), pushURL, pushUser, pushToken, buf.Bytes()); err != nil {
			return err
		}

		fmt.Println("Metrics pushed successfully")
		return nil
	},
}
