// Package export serializes query-layer results for external monitoring
// systems. Everything here is a thin, read-only view over the store's
// stable field names.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"convmetrics/internal/store"
)

// Prometheus writes the metrics in the text exposition format, one sample
// per line with a millisecond timestamp.
func Prometheus(w io.Writer, metrics []store.RepositoryMetrics, stats store.BasicStats) error {
	ts := time.Now().UnixMilli()

	for _, m := range metrics {
		fmt.Fprintf(w, "claude_conversations_total{repository=%q} %d %d\n", m.RepositoryName, m.ConversationCount, ts)
		fmt.Fprintf(w, "claude_messages_total{repository=%q} %d %d\n", m.RepositoryName, m.TotalMessages, ts)
		fmt.Fprintf(w, "claude_errors_total{repository=%q} %d %d\n", m.RepositoryName, m.ErrorCount, ts)
		fmt.Fprintf(w, "claude_tools_used_total{repository=%q} %d %d\n", m.RepositoryName, m.ToolUsageCount, ts)
	}

	for _, m := range metrics {
		for category, byName := range m.PatternSummary {
			for pattern, count := range byName {
				fmt.Fprintf(w, "claude_patterns_detected{repository=%q,category=%q,pattern=%q} %d %d\n",
					m.RepositoryName, category, pattern, count, ts)
			}
		}
	}

	fmt.Fprintf(w, "claude_total_conversations %d %d\n", stats.TotalConversations, ts)
	_, err := fmt.Fprintf(w, "claude_total_repositories %d %d\n", stats.RepositoryCount, ts)
	return err
}

// Influx writes the metrics in InfluxDB line protocol with nanosecond
// timestamps.
func Influx(w io.Writer, metrics []store.RepositoryMetrics) error {
	ts := time.Now().UnixNano()

	for _, m := range metrics {
		fmt.Fprintf(w, "claude_conversations,repository=%s count=%di %d\n", m.RepositoryName, m.ConversationCount, ts)
		fmt.Fprintf(w, "claude_messages,repository=%s count=%di %d\n", m.RepositoryName, m.TotalMessages, ts)
		fmt.Fprintf(w, "claude_errors,repository=%s count=%di %d\n", m.RepositoryName, m.ErrorCount, ts)
		fmt.Fprintf(w, "claude_tools,repository=%s count=%di %d\n", m.RepositoryName, m.ToolUsageCount, ts)

		for category, byName := range m.PatternSummary {
			for pattern, count := range byName {
				fmt.Fprintf(w, "claude_patterns,repository=%s,category=%s,pattern=%s count=%di %d\n",
					m.RepositoryName, category, pattern, count, ts)
			}
		}
	}
	return nil
}

// JSON writes the metrics keyed by repository name.
func JSON(w io.Writer, metrics []store.RepositoryMetrics) error {
	byRepo := make(map[string]store.RepositoryMetrics, len(metrics))
	for _, m := range metrics {
		byRepo[m.RepositoryName] = m
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(byRepo)
}

// CSV writes one row per repository with a fixed header.
func CSV(w io.Writer, metrics []store.RepositoryMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"repository", "conversations", "messages", "errors", "tool_usage", "last_activity"}); err != nil {
		return err
	}
	for _, m := range metrics {
		row := []string{
			m.RepositoryName,
			strconv.Itoa(m.ConversationCount),
			strconv.Itoa(m.TotalMessages),
			strconv.Itoa(m.ErrorCount),
			strconv.Itoa(m.ToolUsageCount),
			m.LastActivity.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
