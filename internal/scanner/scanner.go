package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Conversation is one session's worth of messages plus derived metadata.
type Conversation struct {
	SessionID      string    `json:"session_id"`
	RepositoryPath string    `json:"repository_path,omitempty"`
	GitBranch      string    `json:"git_branch,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	MessageCount   int       `json:"message_count"`
	Messages       []Message `json:"messages"`
}

// RepositoryName is the leaf of the repository path, or "unknown" when the
// logs never recorded a working directory.
func (c *Conversation) RepositoryName() string {
	if c.RepositoryPath == "" {
		return "unknown"
	}
	return filepath.Base(c.RepositoryPath)
}

func (c *Conversation) DurationMinutes() float64 {
	return c.EndTime.Sub(c.StartTime).Minutes()
}

// Assemble builds a Conversation from the messages of one log file.
// Returns nil when nothing parsed. Files are single-session, so the
// session id comes from the first message; repository path and branch are
// the first non-empty values seen in file order.
func Assemble(messages []Message) *Conversation {
	if len(messages) == 0 {
		return nil
	}

	conv := &Conversation{
		SessionID:    messages[0].SessionID,
		StartTime:    messages[0].Timestamp,
		EndTime:      messages[0].Timestamp,
		MessageCount: len(messages),
		Messages:     messages,
	}

	for _, m := range messages {
		if conv.RepositoryPath == "" && m.WorkingDir != "" {
			conv.RepositoryPath = m.WorkingDir
		}
		if conv.GitBranch == "" && m.GitBranch != "" {
			conv.GitBranch = m.GitBranch
		}
		if m.Timestamp.Before(conv.StartTime) {
			conv.StartTime = m.Timestamp
		}
		if m.Timestamp.After(conv.EndTime) {
			conv.EndTime = m.Timestamp
		}
	}

	return conv
}

// Scanner sweeps a projects directory whose immediate subdirectories each
// hold the .jsonl log files of one project.
type Scanner struct {
	projectsDir string
}

func New(projectsDir string) *Scanner {
	return &Scanner{projectsDir: projectsDir}
}

// ScanOptions narrow a scan. RepositoryFilter is a substring match against
// the repository path; Since is a relative window like "7d", "2w", "1m".
// An unparsable value disables the cutoff.
type ScanOptions struct {
	RepositoryFilter string
	Since            string
}

// Scan parses every log file under the projects directory into
// conversations, newest first. A missing projects directory is not an
// error, there is simply nothing to report yet. Files that cannot be
// read are skipped and the sweep continues.
func (s *Scanner) Scan(opts ScanOptions) []Conversation {
	entries, err := os.ReadDir(s.projectsDir)
	if err != nil {
		return nil
	}

	cutoff, hasCutoff := ParseSince(opts.Since)

	var conversations []Conversation
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		files, err := filepath.Glob(filepath.Join(s.projectsDir, entry.Name(), "*.jsonl"))
		if err != nil {
			continue
		}
		for _, file := range files {
			conv, err := parseFile(file)
			if err != nil || conv == nil {
				continue
			}
			if hasCutoff && conv.StartTime.Before(cutoff) {
				continue
			}
			if opts.RepositoryFilter != "" && !strings.Contains(conv.RepositoryPath, opts.RepositoryFilter) {
				continue
			}
			conversations = append(conversations, *conv)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].StartTime.After(conversations[j].StartTime)
	})
	return conversations
}

// Repositories returns the sorted unique repository paths seen across all
// conversations, ignoring any scan window.
func (s *Scanner) Repositories() []string {
	seen := map[string]bool{}
	for _, conv := range s.Scan(ScanOptions{}) {
		if conv.RepositoryPath != "" {
			seen[conv.RepositoryPath] = true
		}
	}

	repos := make([]string, 0, len(seen))
	for r := range seen {
		repos = append(repos, r)
	}
	sort.Strings(repos)
	return repos
}

func parseFile(path string) (*Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	var messages []Message
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if msg, ok := ParseLine(line); ok {
			messages = append(messages, msg)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return Assemble(messages), nil
}

var sinceRe = regexp.MustCompile(`^(\d+)([dwm])`)

// ParseSince converts a relative window expression into a cutoff time.
// Units: d=days, w=weeks, m=months (approximated as 30 days). Reports
// false for anything it cannot parse.
func ParseSince(since string) (time.Time, bool) {
	m := sinceRe.FindStringSubmatch(strings.ToLower(since))
	if m == nil {
		return time.Time{}, false
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	now := time.Now()
	switch m[2] {
	case "d":
		return now.AddDate(0, 0, -amount), true
	case "w":
		return now.AddDate(0, 0, -7*amount), true
	case "m":
		return now.AddDate(0, 0, -30*amount), true
	}
	return time.Time{}, false
}
