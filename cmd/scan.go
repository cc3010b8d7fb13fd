package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"convmetrics/internal/config"
	"convmetrics/internal/patterns"
	"convmetrics/internal/scanner"
	"convmetrics/internal/store"
)

var (
	scanSince      string
	scanRepository string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanSince, "since", "7d", "scan conversations since (e.g. 7d, 2w, 1m)")
	scanCmd.Flags().StringVar(&scanRepository, "repository", "", "only scan conversations whose repository path contains this")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan conversation logs and extract metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		fmt.Println("Scanning conversations...")
		processed, repos, err := runScan(cfg, st, scanSince, scanRepository, true)
		if err != nil {
			return err
		}
		if processed == 0 && repos == 0 {
			fmt.Println("No conversations found")
			return nil
		}

		fmt.Printf("Processed %d conversations across %d repositories\n", processed, repos)
		fmt.Println("Run 'convmetrics report' to view insights")
		return nil
	},
}

// runScan executes the full pipeline: sweep the projects directory, detect
// patterns, and store each conversation. One conversation failing to store
// is reported and skipped; the scan continues. The scan itself is recorded
// in the audit log.
func runScan(cfg *config.Config, st *store.Store, since, repoFilter string, verbose bool) (processed, repoCount int, err error) {
	sc := scanner.New(cfg.ProjectsPath)
	detector := patterns.NewDetector(cfg.PatternTable())

	conversations := sc.Scan(scanner.ScanOptions{
		RepositoryFilter: repoFilter,
		Since:            since,
	})
	if len(conversations) == 0 {
		return 0, 0, nil
	}
	if verbose {
		fmt.Printf("Found %d conversations\n", len(conversations))
	}

	scanStart := time.Now()
	repositories := map[string]bool{}

	for i := range conversations {
		conv := &conversations[i]
		result := detector.Detect(conv)
		if err := st.Upsert(conv, result); err != nil {
			fmt.Printf("warning: conversation %s: %v\n", conv.SessionID, err)
			continue
		}
		processed++
		repositories[conv.RepositoryName()] = true

		if verbose && processed%10 == 0 {
			fmt.Printf("Processed %d/%d conversations\n", processed, len(conversations))
		}
	}

	if err := st.RecordScan(store.ScanRecord{
		Start:                  scanStart,
		End:                    time.Now(),
		ConversationsProcessed: processed,
		RepositoriesFound:      len(repositories),
	}); err != nil {
		return processed, len(repositories), err
	}

	return processed, len(repositories), nil
}
