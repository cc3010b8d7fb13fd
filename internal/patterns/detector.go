package patterns

import (
	"regexp"
	"sort"
	"strings"

	"convmetrics/internal/scanner"
)

const sampleMaxLen = 100

// Match is one detected pattern occurrence set for a (pattern, role) pair.
type Match struct {
	Name       string       `json:"pattern_name"`
	Category   string       `json:"category"`
	Weight     int          `json:"weight"`
	MatchCount int          `json:"match_count"`
	Role       scanner.Role `json:"role"`
	Sample     string       `json:"sample_text,omitempty"`
}

// Result holds every match detected in one conversation plus the weighted
// total score.
type Result struct {
	SessionID      string  `json:"session_id"`
	RepositoryName string  `json:"repository_name"`
	Matches        []Match `json:"matches"`
	TotalScore     int     `json:"total_score"`
}

// Detector evaluates a pattern table against conversations. Regexes are
// compiled once up front; definitions that fail to compile are kept but
// match nothing, so a bad custom pattern can never take down a scan.
type Detector struct {
	table    map[string][]PatternDef
	compiled map[string]*regexp.Regexp
}

func NewDetector(table map[string][]PatternDef) *Detector {
	d := &Detector{
		table:    table,
		compiled: make(map[string]*regexp.Regexp),
	}
	for _, defs := range table {
		for _, def := range defs {
			if _, ok := d.compiled[def.Regex]; ok {
				continue
			}
			re, err := regexp.Compile("(?i)" + def.Regex)
			if err != nil {
				re = nil
			}
			d.compiled[def.Regex] = re
		}
	}
	return d
}

// Detect runs every pattern against the conversation's user text and
// assistant text independently and returns the combined matches.
func (d *Detector) Detect(conv *scanner.Conversation) *Result {
	var userParts, assistantParts []string
	for _, m := range conv.Messages {
		switch m.Role {
		case scanner.RoleUser:
			userParts = append(userParts, strings.ToLower(m.Content))
		case scanner.RoleAssistant:
			assistantParts = append(assistantParts, strings.ToLower(m.Content))
		}
	}
	userText := strings.Join(userParts, " ")
	assistantText := strings.Join(assistantParts, " ")

	res := &Result{
		SessionID:      conv.SessionID,
		RepositoryName: conv.RepositoryName(),
	}

	// Walk categories in a stable order so output and tests are deterministic.
	cats := make([]string, 0, len(d.table))
	for cat := range d.table {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		for _, def := range d.table[cat] {
			re := d.compiled[def.Regex]
			if re == nil {
				continue
			}
			for _, probe := range []struct {
				role scanner.Role
				text string
			}{
				{scanner.RoleUser, userText},
				{scanner.RoleAssistant, assistantText},
			} {
				count := len(re.FindAllStringIndex(probe.text, -1))
				if count == 0 {
					continue
				}
				res.Matches = append(res.Matches, Match{
					Name:       def.Name,
					Category:   cat,
					Weight:     def.Weight,
					MatchCount: count,
					Role:       probe.role,
					Sample:     extractSample(re, probe.text),
				})
			}
		}
	}

	for _, m := range res.Matches {
		res.TotalScore += m.Weight * m.MatchCount
	}
	return res
}

// extractSample returns up to sampleMaxLen characters around the first
// match, with ~20 characters of context on each side.
func extractSample(re *regexp.Regexp, text string) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	start := loc[0] - 20
	if start < 0 {
		start = 0
	}
	end := loc[1] + 20
	if end > len(text) {
		end = len(text)
	}
	sample := strings.TrimSpace(text[start:end])
	if len(sample) > sampleMaxLen {
		sample = sample[:sampleMaxLen] + "..."
	}
	return sample
}

// RepositorySummary aggregates pattern counts across conversations without
// touching the store; the read path for ad-hoc reporting over a fresh scan.
type RepositorySummary struct {
	ConversationCount int
	TotalMessages     int
	LastActivity      int64 // unix seconds
	PatternCounts     map[string]map[string]int
}

func (d *Detector) SummarizeRepositories(convs []scanner.Conversation) map[string]*RepositorySummary {
	stats := make(map[string]*RepositorySummary)
	for i := range convs {
		conv := &convs[i]
		name := conv.RepositoryName()
		s := stats[name]
		if s == nil {
			s = &RepositorySummary{PatternCounts: make(map[string]map[string]int)}
			stats[name] = s
		}
		s.ConversationCount++
		s.TotalMessages += conv.MessageCount
		if end := conv.EndTime.Unix(); end > s.LastActivity {
			s.LastActivity = end
		}

		res := d.Detect(conv)
		for _, m := range res.Matches {
			byName := s.PatternCounts[m.Category]
			if byName == nil {
				byName = make(map[string]int)
				s.PatternCounts[m.Category] = byName
			}
			byName[m.Name] += m.MatchCount
		}
	}
	return stats
}
