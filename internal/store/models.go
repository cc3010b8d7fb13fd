package store

import "time"

// RepositoryMetrics is the materialized per-repository rollup. It is always
// recomputed from the stored conversations and pattern rows, never adjusted
// incrementally.
type RepositoryMetrics struct {
	RepositoryName    string                    `json:"repository_name"`
	ConversationCount int                       `json:"conversation_count"`
	TotalMessages     int                       `json:"total_messages"`
	ErrorCount        int                       `json:"error_count"`
	ToolUsageCount    int                       `json:"tool_usage_count"`
	LastActivity      time.Time                 `json:"last_activity"`
	PatternSummary    map[string]map[string]int `json:"pattern_summary"`
}

// ConversationInfo is the conversation row as the query layer exposes it.
type ConversationInfo struct {
	SessionID       string    `json:"session_id"`
	RepositoryName  string    `json:"repository_name"`
	GitBranch       string    `json:"git_branch,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
	MessageCount    int       `json:"message_count"`
}

// ScanRecord is one entry in the append-only scan audit log.
type ScanRecord struct {
	ID                     string    `json:"id"`
	Start                  time.Time `json:"scan_start"`
	End                    time.Time `json:"scan_end"`
	ConversationsProcessed int       `json:"conversations_processed"`
	RepositoriesFound      int       `json:"repositories_found"`
}

// BasicStats summarizes the whole store.
type BasicStats struct {
	TotalConversations   int       `json:"total_conversations"`
	RepositoryCount      int       `json:"repository_count"`
	LastScan             time.Time `json:"last_scan"`
	HasScanned           bool      `json:"has_scanned"`
	MostActiveRepository string    `json:"most_active_repository"`
	MostActiveCount      int       `json:"most_active_count"`
}

// TrendPoint is one day's worth of matches for a pattern category.
type TrendPoint struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Matches int    `json:"matches"`
}
