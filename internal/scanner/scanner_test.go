package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestAssembleEmpty(t *testing.T) {
	if conv := Assemble(nil); conv != nil {
		t.Fatalf("expected nil conversation for no messages, got %+v", conv)
	}
}

// Every message timestamp falls inside [StartTime, EndTime] and the count
// matches the input size, regardless of message order.
func TestAssembleProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		messages := make([]Message, n)
		for i := range messages {
			messages[i] = Message{
				SessionID: "sess-1",
				Timestamp: time.Unix(rapid.Int64Range(0, 1_700_000_000).Draw(t, fmt.Sprintf("ts%d", i)), 0),
				Role:      RoleUser,
				Content:   rapid.StringN(0, 50, -1).Draw(t, fmt.Sprintf("content%d", i)),
			}
		}

		conv := Assemble(messages)
		if conv == nil {
			t.Fatal("expected a conversation")
		}
		if conv.MessageCount != n {
			t.Fatalf("message count: got %d, want %d", conv.MessageCount, n)
		}
		for i, m := range messages {
			if m.Timestamp.Before(conv.StartTime) || m.Timestamp.After(conv.EndTime) {
				t.Fatalf("message %d timestamp %v outside [%v, %v]", i, m.Timestamp, conv.StartTime, conv.EndTime)
			}
		}
	})
}

func TestAssembleMetadataFirstNonEmpty(t *testing.T) {
	messages := []Message{
		{SessionID: "s1", Timestamp: time.Now()},
		{SessionID: "s1", Timestamp: time.Now(), WorkingDir: "/repo/alpha", GitBranch: "main"},
		{SessionID: "s1", Timestamp: time.Now(), WorkingDir: "/repo/beta", GitBranch: "dev"},
	}
	conv := Assemble(messages)
	if conv.RepositoryPath != "/repo/alpha" {
		t.Errorf("repository path: got %q, want /repo/alpha", conv.RepositoryPath)
	}
	if conv.GitBranch != "main" {
		t.Errorf("branch: got %q, want main", conv.GitBranch)
	}
	if conv.RepositoryName() != "alpha" {
		t.Errorf("repository name: got %q, want alpha", conv.RepositoryName())
	}
}

func TestRepositoryNameUnknown(t *testing.T) {
	conv := Assemble([]Message{{SessionID: "s1", Timestamp: time.Now()}})
	if conv.RepositoryName() != "unknown" {
		t.Errorf("got %q, want unknown", conv.RepositoryName())
	}
}

func TestParseSince(t *testing.T) {
	cases := []struct {
		in      string
		ok      bool
		maxDays int // expected distance from now, in days
	}{
		{"7d", true, 7},
		{"2w", true, 14},
		{"1m", true, 30},
		{"30d", true, 30},
		{"abc", false, 0},
		{"", false, 0},
		{"d7", false, 0},
	}
	for _, tc := range cases {
		cutoff, ok := ParseSince(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseSince(%q): ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		want := time.Now().AddDate(0, 0, -tc.maxDays)
		if diff := cutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
			t.Errorf("ParseSince(%q): cutoff %v, want ~%v", tc.in, cutoff, want)
		}
	}
}

// writeLogFile drops a .jsonl file under projectsDir/project.
func writeLogFile(t *testing.T, projectsDir, project, name string, lines ...string) {
	t.Helper()
	dir := filepath.Join(projectsDir, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	var data []byte
	for _, l := range lines {
		data = append(data, []byte(l+"\n")...)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func logLineAt(session, typ, content, cwd string, ts time.Time) string {
	cwdField := ""
	if cwd != "" {
		cwdField = fmt.Sprintf(",%q:%q", "cwd", cwd)
	}
	return fmt.Sprintf(`{"sessionId":%q,"timestamp":%q,"type":%q,"message":{"content":%q}%s}`,
		session, ts.UTC().Format(time.RFC3339), typ, content, cwdField)
}

func TestScanTwoLineConversation(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeLogFile(t, dir, "proj-a", "sess-1.jsonl",
		logLineAt("sess-1", "assistant", "the build failed with exit code 1", "/repo/foo", now.Add(-time.Minute)),
		logLineAt("sess-1", "user", "please fix", "", now),
	)

	convs := New(dir).Scan(ScanOptions{})
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	conv := convs[0]
	if conv.MessageCount != 2 {
		t.Errorf("message count: got %d, want 2", conv.MessageCount)
	}
	if conv.RepositoryName() != "foo" {
		t.Errorf("repository: got %q, want foo", conv.RepositoryName())
	}
	if conv.SessionID != "sess-1" {
		t.Errorf("session: got %q", conv.SessionID)
	}
}

func TestScanSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "proj-a", "sess-1.jsonl",
		`this is not json at all`,
		logLineAt("sess-1", "user", "hello", "/repo/foo", time.Now()),
	)

	convs := New(dir).Scan(ScanOptions{})
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	if convs[0].MessageCount != 1 {
		t.Errorf("message count: got %d, want 1 (invalid line contributes nothing)", convs[0].MessageCount)
	}
	if convs[0].Messages[0].Content != "hello" {
		t.Errorf("surviving content: got %q", convs[0].Messages[0].Content)
	}
}

func TestScanTimeWindow(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "proj-a", "old.jsonl",
		logLineAt("sess-old", "user", "ancient history", "/repo/foo", time.Now().AddDate(0, 0, -10)))
	writeLogFile(t, dir, "proj-a", "new.jsonl",
		logLineAt("sess-new", "user", "fresh", "/repo/foo", time.Now().AddDate(0, 0, -1)))

	convs := New(dir).Scan(ScanOptions{Since: "7d"})
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	if convs[0].SessionID != "sess-new" {
		t.Errorf("got session %q, want sess-new", convs[0].SessionID)
	}
}

func TestScanUnparsableWindowDisablesCutoff(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "proj-a", "old.jsonl",
		logLineAt("sess-old", "user", "ancient history", "/repo/foo", time.Now().AddDate(0, 0, -100)))

	convs := New(dir).Scan(ScanOptions{Since: "abc"})
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1 (cutoff disabled)", len(convs))
	}
}

func TestScanRepositoryFilter(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeLogFile(t, dir, "proj-a", "a.jsonl", logLineAt("sess-a", "user", "x", "/repo/foo", now))
	writeLogFile(t, dir, "proj-b", "b.jsonl", logLineAt("sess-b", "user", "y", "/repo/bar", now))

	convs := New(dir).Scan(ScanOptions{RepositoryFilter: "bar"})
	if len(convs) != 1 || convs[0].SessionID != "sess-b" {
		t.Fatalf("filter mismatch: %+v", convs)
	}
}

func TestScanSortedNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "proj-a", "a.jsonl", logLineAt("sess-a", "user", "x", "", time.Now().Add(-2*time.Hour)))
	writeLogFile(t, dir, "proj-a", "b.jsonl", logLineAt("sess-b", "user", "y", "", time.Now().Add(-1*time.Hour)))

	convs := New(dir).Scan(ScanOptions{})
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].SessionID != "sess-b" {
		t.Errorf("expected newest first, got %q", convs[0].SessionID)
	}
}

func TestScanMissingRoot(t *testing.T) {
	convs := New(filepath.Join(t.TempDir(), "does-not-exist")).Scan(ScanOptions{})
	if len(convs) != 0 {
		t.Fatalf("missing root should yield no conversations, got %d", len(convs))
	}
}

func TestRepositories(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeLogFile(t, dir, "proj-a", "a.jsonl", logLineAt("sess-a", "user", "x", "/repo/foo", now))
	writeLogFile(t, dir, "proj-b", "b.jsonl", logLineAt("sess-b", "user", "y", "/repo/bar", now))
	writeLogFile(t, dir, "proj-c", "c.jsonl", logLineAt("sess-c", "user", "z", "", now))

	repos := New(dir).Repositories()
	want := []string{"/repo/bar", "/repo/foo"}
	if len(repos) != len(want) {
		t.Fatalf("got %v, want %v", repos, want)
	}
	for i := range want {
		if repos[i] != want[i] {
			t.Fatalf("got %v, want %v", repos, want)
		}
	}
}
