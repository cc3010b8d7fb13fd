package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyRepository string
	historyLimit      int
	trendsRepository  string
	trendsDays        int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(trendsCmd)

	historyCmd.Flags().StringVar(&historyRepository, "repository", "", "filter by repository name")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max conversations to list")

	trendsCmd.Flags().StringVar(&trendsRepository, "repository", "", "filter by repository name")
	trendsCmd.Flags().IntVar(&trendsDays, "days", 30, "trend window in days")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored conversations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		history, err := st.ConversationHistory(historyRepository, historyLimit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No conversations yet — run 'convmetrics scan' first")
			return nil
		}

		fmt.Printf("%-38s %-20s %-16s %8s %9s\n", "SESSION", "REPOSITORY", "STARTED", "MINUTES", "MESSAGES")
		for _, c := range history {
			fmt.Printf("%-38s %-20s %-16s %8.1f %9d\n",
				c.SessionID,
				c.RepositoryName,
				c.StartTime.Local().Format("2006-01-02 15:04"),
				c.DurationMinutes,
				c.MessageCount,
			)
		}
		return nil
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show pattern match counts per category over time",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		trends, err := st.PatternTrends(trendsRepository, trendsDays)
		if err != nil {
			return err
		}
		if len(trends) == 0 {
			fmt.Println("No pattern data in this window")
			return nil
		}

		for category, points := range trends {
			fmt.Printf("%s:\n", category)
			for _, p := range points {
				fmt.Printf("  %s  %d\n", p.Date, p.Matches)
			}
		}
		return nil
	},
}
