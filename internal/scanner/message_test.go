package scanner

import (
	"encoding/json"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// rawRecord builds the JSON shape the log writer emits.
type rawRecord struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   struct {
		Content string `json:"content"`
	} `json:"message"`
	Cwd       string `json:"cwd,omitempty"`
	GitBranch string `json:"gitBranch,omitempty"`
}

func encodeRecord(t *rapid.T, sessionID, typ, content string) []byte {
	var rec rawRecord
	rec.SessionID = sessionID
	rec.Timestamp = time.Unix(rapid.Int64Range(0, 1_700_000_000).Draw(t, "unix_sec"), 0).UTC().Format(time.RFC3339)
	rec.Type = typ
	rec.Message.Content = content

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return data
}

// Parsing is total: arbitrary input never panics, and a well-formed record
// round-trips its content verbatim.
func TestParseLineTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "line")
		_, _ = ParseLine(line) // must not panic
	})
}

func TestParseLinePreservesContent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sessionID := rapid.StringN(1, 36, -1).Draw(t, "session_id")
		content := rapid.StringN(0, 500, -1).Draw(t, "content")
		typ := rapid.SampledFrom([]string{"user", "assistant", "summary", "tool"}).Draw(t, "type")

		msg, ok := ParseLine(encodeRecord(t, sessionID, typ, content))
		if !ok {
			t.Fatalf("valid record rejected")
		}
		if msg.Content != content {
			t.Errorf("content mismatch: got %q, want %q", msg.Content, content)
		}
		if msg.SessionID != sessionID {
			t.Errorf("session id mismatch: got %q, want %q", msg.SessionID, sessionID)
		}
	})
}

func TestParseLineRoles(t *testing.T) {
	cases := []struct {
		typ  string
		want Role
	}{
		{"user", RoleUser},
		{"assistant", RoleAssistant},
		{"summary", RoleOther},
		{"", RoleOther},
	}
	for _, tc := range cases {
		line := []byte(`{"sessionId":"s1","timestamp":"2026-08-01T10:00:00Z","type":"` + tc.typ + `","message":{"content":"hi"}}`)
		msg, ok := ParseLine(line)
		if !ok {
			t.Fatalf("type %q: line rejected", tc.typ)
		}
		if msg.Role != tc.want {
			t.Errorf("type %q: got role %q, want %q", tc.typ, msg.Role, tc.want)
		}
	}
}

func TestParseLineMalformed(t *testing.T) {
	cases := []string{
		"",
		"not json",
		"{",
		`{"sessionId":"s1","message":{"content":["array","content"]}}`, // non-string content
		`[1,2,3]`,
	}
	for _, line := range cases {
		if _, ok := ParseLine([]byte(line)); ok {
			t.Errorf("expected %q to be rejected", line)
		}
	}
}

func TestParseLineBadTimestampFallsBack(t *testing.T) {
	before := time.Now()
	msg, ok := ParseLine([]byte(`{"sessionId":"s1","timestamp":"garbage","type":"user","message":{"content":"x"}}`))
	if !ok {
		t.Fatal("line with bad timestamp should still parse")
	}
	if msg.Timestamp.Before(before.Add(-time.Minute)) {
		t.Errorf("expected fallback to now, got %v", msg.Timestamp)
	}
}

func TestParseLineMetadata(t *testing.T) {
	line := []byte(`{"sessionId":"s1","timestamp":"2026-08-01T10:00:00Z","type":"user","message":{"content":"x"},"cwd":"/repo/foo","gitBranch":"main"}`)
	msg, ok := ParseLine(line)
	if !ok {
		t.Fatal("line rejected")
	}
	if msg.WorkingDir != "/repo/foo" {
		t.Errorf("working dir: got %q", msg.WorkingDir)
	}
	if msg.GitBranch != "main" {
		t.Errorf("branch: got %q", msg.GitBranch)
	}
	want := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", msg.Timestamp, want)
	}
}
