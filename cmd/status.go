package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.BasicStats()
		if err != nil {
			return err
		}

		fmt.Printf("Config:        %s\n", cfg.ConfigDir)
		fmt.Printf("Projects:      %s\n", cfg.ProjectsPath)
		fmt.Printf("Storage:       %s\n", cfg.StoragePath)
		fmt.Printf("Conversations: %d\n", stats.TotalConversations)
		fmt.Printf("Repositories:  %d\n", stats.RepositoryCount)
		if stats.HasScanned {
			fmt.Printf("Last scan:     %s\n", stats.LastScan.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Last scan:     never")
		}
		if stats.MostActiveRepository != "" {
			fmt.Printf("Most active:   %s (%d conversations)\n", stats.MostActiveRepository, stats.MostActiveCount)
		}
		return nil
	},
}
