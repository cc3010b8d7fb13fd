package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"convmetrics/internal/patterns"
	"convmetrics/internal/scanner"
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the metrics database and runs migrations. Failure
// here is fatal to the caller: a store that cannot be opened or migrated is
// distinct from a store that merely holds no data yet.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open metrics store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate metrics store: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		session_id       TEXT PRIMARY KEY,
		repository_path  TEXT NOT NULL DEFAULT '',
		repository_name  TEXT NOT NULL DEFAULT 'unknown',
		git_branch       TEXT NOT NULL DEFAULT '',
		start_time       DATETIME NOT NULL,
		end_time         DATETIME NOT NULL,
		duration_minutes REAL NOT NULL DEFAULT 0,
		message_count    INTEGER NOT NULL DEFAULT 0,
		created_at       DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patterns (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id       TEXT NOT NULL REFERENCES conversations(session_id),
		pattern_name     TEXT NOT NULL,
		pattern_category TEXT NOT NULL,
		weight           INTEGER NOT NULL DEFAULT 0,
		match_count      INTEGER NOT NULL DEFAULT 0,
		role             TEXT NOT NULL,
		sample_text      TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS repository_metrics (
		repository_name    TEXT PRIMARY KEY,
		conversation_count INTEGER NOT NULL DEFAULT 0,
		total_messages     INTEGER NOT NULL DEFAULT 0,
		error_count        INTEGER NOT NULL DEFAULT 0,
		tool_usage_count   INTEGER NOT NULL DEFAULT 0,
		last_activity      DATETIME NOT NULL,
		pattern_summary    TEXT NOT NULL DEFAULT '{}',
		updated_at         DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_history (
		id                      TEXT PRIMARY KEY,
		scan_start              DATETIME NOT NULL,
		scan_end                DATETIME NOT NULL,
		conversations_processed INTEGER NOT NULL DEFAULT 0,
		repositories_found      INTEGER NOT NULL DEFAULT 0,
		created_at              DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversations_repo ON conversations(repository_name);
	CREATE INDEX IF NOT EXISTS idx_conversations_time ON conversations(start_time);
	CREATE INDEX IF NOT EXISTS idx_patterns_session ON patterns(session_id);
	CREATE INDEX IF NOT EXISTS idx_patterns_category ON patterns(pattern_category);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert stores a conversation together with its detected pattern matches
// and refreshes the owning repository's rollup, all in one transaction.
// Re-scanning a session replaces its conversation row and its full match
// set (last write wins, keyed by session id). The rollup recompute reads
// every row for the repository, so a write costs O(repository size); fine
// for a single-user local tool.
func (s *Store) Upsert(conv *scanner.Conversation, result *patterns.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	repoName := conv.RepositoryName()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO conversations (
			session_id, repository_path, repository_name, git_branch,
			start_time, end_time, duration_minutes, message_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.SessionID, conv.RepositoryPath, repoName, conv.GitBranch,
		conv.StartTime.UTC(), conv.EndTime.UTC(), conv.DurationMinutes(), conv.MessageCount, now,
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM patterns WHERE session_id = ?", conv.SessionID); err != nil {
		return fmt.Errorf("clear patterns: %w", err)
	}
	for _, m := range result.Matches {
		_, err := tx.Exec(`
			INSERT INTO patterns (
				session_id, pattern_name, pattern_category, weight,
				match_count, role, sample_text, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			conv.SessionID, m.Name, m.Category, m.Weight,
			m.MatchCount, string(m.Role), m.Sample, now,
		)
		if err != nil {
			return fmt.Errorf("insert pattern match: %w", err)
		}
	}

	if err := recomputeRollup(tx, repoName, now); err != nil {
		return err
	}

	return tx.Commit()
}

// recomputeRollup rebuilds repository_metrics for one repository from the
// conversation and pattern rows currently visible inside the transaction.
func recomputeRollup(tx *sql.Tx, repoName string, now time.Time) error {
	var convCount, totalMessages int
	err := tx.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(message_count), 0)
		FROM conversations WHERE repository_name = ?`,
		repoName,
	).Scan(&convCount, &totalMessages)
	if err != nil {
		return fmt.Errorf("rollup conversations: %w", err)
	}

	// Aggregate functions drop the column's declared type, which the driver
	// needs to hand back a time.Time, so read the latest end_time directly.
	lastActivity := now
	err = tx.QueryRow(`
		SELECT end_time FROM conversations
		WHERE repository_name = ?
		ORDER BY end_time DESC LIMIT 1`,
		repoName,
	).Scan(&lastActivity)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rollup last activity: %w", err)
	}

	rows, err := tx.Query(`
		SELECT p.pattern_category, p.pattern_name, SUM(p.match_count)
		FROM patterns p
		JOIN conversations c ON p.session_id = c.session_id
		WHERE c.repository_name = ?
		GROUP BY p.pattern_category, p.pattern_name`,
		repoName,
	)
	if err != nil {
		return fmt.Errorf("rollup patterns: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]map[string]int)
	categoryTotals := make(map[string]int)
	for rows.Next() {
		var category, name string
		var matches int
		if err := rows.Scan(&category, &name, &matches); err != nil {
			return fmt.Errorf("scan rollup row: %w", err)
		}
		if summary[category] == nil {
			summary[category] = make(map[string]int)
		}
		summary[category][name] = matches
		categoryTotals[category] += matches
	}
	if err := rows.Err(); err != nil {
		return err
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode pattern summary: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO repository_metrics (
			repository_name, conversation_count, total_messages,
			error_count, tool_usage_count, last_activity, pattern_summary, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		repoName, convCount, totalMessages,
		categoryTotals[patterns.CategoryErrorDetection],
		categoryTotals[patterns.CategoryToolUsage],
		lastActivity, string(summaryJSON), now,
	)
	if err != nil {
		return fmt.Errorf("write rollup: %w", err)
	}
	return nil
}

// RepositoryMetrics returns the rollup rows ordered by conversation count,
// optionally restricted to repositories whose name contains filter.
func (s *Store) RepositoryMetrics(filter string) ([]RepositoryMetrics, error) {
	query := `
		SELECT repository_name, conversation_count, total_messages,
		       error_count, tool_usage_count, last_activity, pattern_summary
		FROM repository_metrics`
	args := []any{}
	if filter != "" {
		query += " WHERE repository_name LIKE ?"
		args = append(args, "%"+filter+"%")
	}
	query += " ORDER BY conversation_count DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []RepositoryMetrics
	for rows.Next() {
		var m RepositoryMetrics
		var summaryJSON string
		if err := rows.Scan(&m.RepositoryName, &m.ConversationCount, &m.TotalMessages,
			&m.ErrorCount, &m.ToolUsageCount, &m.LastActivity, &summaryJSON); err != nil {
			return nil, err
		}
		m.PatternSummary = make(map[string]map[string]int)
		// A corrupt summary blob degrades to empty, it never fails a read.
		_ = json.Unmarshal([]byte(summaryJSON), &m.PatternSummary)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// BasicStats reports store-wide aggregates.
func (s *Store) BasicStats() (BasicStats, error) {
	var stats BasicStats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT repository_name) FROM conversations").Scan(&stats.RepositoryCount); err != nil {
		return stats, err
	}

	err := s.db.QueryRow("SELECT scan_end FROM scan_history ORDER BY scan_end DESC LIMIT 1").Scan(&stats.LastScan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// never scanned
	case err != nil:
		return stats, err
	default:
		stats.HasScanned = true
	}

	err = s.db.QueryRow(`
		SELECT repository_name, conversation_count
		FROM repository_metrics
		ORDER BY conversation_count DESC LIMIT 1`,
	).Scan(&stats.MostActiveRepository, &stats.MostActiveCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, err
	}

	return stats, nil
}

// RecordScan appends one audit entry for a completed scan run.
func (s *Store) RecordScan(rec ScanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO scan_history (id, scan_start, scan_end, conversations_processed, repositories_found, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Start.UTC(), rec.End.UTC(), rec.ConversationsProcessed, rec.RepositoriesFound, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

// ConversationHistory lists stored conversations newest first, optionally
// for a single repository.
func (s *Store) ConversationHistory(repoName string, limit int) ([]ConversationInfo, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT session_id, repository_name, git_branch, start_time, end_time, duration_minutes, message_count
		FROM conversations`
	args := []any{}
	if repoName != "" {
		query += " WHERE repository_name = ?"
		args = append(args, repoName)
	}
	query += " ORDER BY start_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ConversationInfo
	for rows.Next() {
		var c ConversationInfo
		if err := rows.Scan(&c.SessionID, &c.RepositoryName, &c.GitBranch,
			&c.StartTime, &c.EndTime, &c.DurationMinutes, &c.MessageCount); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

// PatternTrends groups match counts by day and category over the last
// windowDays days. Grouping happens here rather than in SQL so the stored
// timestamp representation stays a driver detail.
func (s *Store) PatternTrends(repoName string, windowDays int) (map[string][]TrendPoint, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays)

	query := `
		SELECT c.start_time, p.pattern_category, p.match_count
		FROM patterns p
		JOIN conversations c ON p.session_id = c.session_id`
	args := []any{}
	if repoName != "" {
		query += " WHERE c.repository_name = ?"
		args = append(args, repoName)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCategory := make(map[string]map[string]int)
	for rows.Next() {
		var start time.Time
		var category string
		var matches int
		if err := rows.Scan(&start, &category, &matches); err != nil {
			return nil, err
		}
		if start.Before(cutoff) {
			continue
		}
		date := start.UTC().Format("2006-01-02")
		if byCategory[category] == nil {
			byCategory[category] = make(map[string]int)
		}
		byCategory[category][date] += matches
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trends := make(map[string][]TrendPoint, len(byCategory))
	for category, byDate := range byCategory {
		points := make([]TrendPoint, 0, len(byDate))
		for date, matches := range byDate {
			points = append(points, TrendPoint{Date: date, Matches: matches})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		trends[category] = points
	}
	return trends, nil
}
