package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"convmetrics/internal/export"
	"convmetrics/internal/store"
)

var (
	reportFormat     string
	reportRepository string
	reportCopy       bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFormat, "format", "table", "output format (table, json, csv)")
	reportCmd.Flags().StringVar(&reportRepository, "repository", "", "filter by repository name substring")
	reportCmd.Flags().BoolVar(&reportCopy, "copy", false, "copy the report to the clipboard")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show aggregated per-repository metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		metrics, err := st.RepositoryMetrics(reportRepository)
		if err != nil {
			return err
		}
		if len(metrics) == 0 {
			fmt.Println("No metrics yet — run 'convmetrics scan' first")
			return nil
		}

		var out strings.Builder
		switch reportFormat {
		case "table":
			out.WriteString(renderTable(metrics))
			out.WriteByte('\n')
		case "json":
			if err := export.JSON(&out, metrics); err != nil {
				return err
			}
		case "csv":
			if err := export.CSV(&out, metrics); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want table, json, or csv)", reportFormat)
		}

		if reportCopy {
			if err := clipboard.WriteAll(out.String()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
			} else {
				fmt.Println("Report copied to clipboard!")
			}
		}
		fmt.Print(out.String())
		return nil
	},
}

func renderTable(metrics []store.RepositoryMetrics) string {
	headerStyle := lipgloss.NewStyle().Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("REPOSITORY", "CONVERSATIONS", "ERRORS", "TOOL USAGE", "LAST ACTIVITY")

	for _, m := range metrics {
		t.Row(
			m.RepositoryName,
			strconv.Itoa(m.ConversationCount),
			strconv.Itoa(m.ErrorCount),
			strconv.Itoa(m.ToolUsageCount),
			m.LastActivity.Local().Format("2006-01-02 15:04"),
		)
	}
	return t.Render()
}
