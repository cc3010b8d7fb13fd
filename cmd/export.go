package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"convmetrics/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "prometheus", "export format (prometheus, json, csv, influx)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file (default stdout)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export metrics for external monitoring systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		metrics, err := st.RepositoryMetrics("")
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		switch exportFormat {
		case "prometheus":
			stats, err := st.BasicStats()
			if err != nil {
				return err
			}
			err = export.Prometheus(&buf, metrics, stats)
			if err != nil {
				return err
			}
		case "influx":
			if err := export.Influx(&buf, metrics); err != nil {
				return err
			}
		case "json":
			if err := export.JSON(&buf, metrics); err != nil {
				return err
			}
		case "csv":
			if err := export.CSV(&buf, metrics); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want prometheus, json, csv, or influx)", exportFormat)
		}

		if exportOutput == "" {
			_, err := io.Copy(os.Stdout, &buf)
			return err
		}

		if err := os.MkdirAll(filepath.Dir(exportOutput), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(exportOutput, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("Exported %s metrics to %s\n", exportFormat, exportOutput)
		return nil
	},
}
