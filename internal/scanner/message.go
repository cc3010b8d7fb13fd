package scanner

import (
	"encoding/json"
	"time"
)

// Role tags who produced a message. Anything the logs emit beyond
// user/assistant (tool results, system events) collapses into RoleOther.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleOther     Role = "other"
)

// Message is one parsed line of a conversation log file.
type Message struct {
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	WorkingDir string    `json:"working_dir,omitempty"`
	GitBranch  string    `json:"git_branch,omitempty"`
}

// logLine mirrors the on-disk record shape written by the assistant.
// Content is kept raw because the writer sometimes emits non-string
// payloads there; those lines are dropped rather than coerced.
type logLine struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
	Cwd       string `json:"cwd"`
	GitBranch string `json:"gitBranch"`
}

// ParseLine decodes one log line into a Message. It never fails loudly:
// the logs are written by an external, evolving tool, so a malformed or
// unexpectedly-shaped line simply yields ok=false. An unparsable timestamp
// is not a reason to drop the line; it falls back to the current time.
func ParseLine(line []byte) (Message, bool) {
	var ll logLine
	if err := json.Unmarshal(line, &ll); err != nil {
		return Message{}, false
	}

	var content string
	if len(ll.Message.Content) > 0 {
		if err := json.Unmarshal(ll.Message.Content, &content); err != nil {
			return Message{}, false
		}
	}

	ts, err := time.Parse(time.RFC3339, ll.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	return Message{
		SessionID:  ll.SessionID,
		Timestamp:  ts,
		Role:       parseRole(ll.Type),
		Content:    content,
		WorkingDir: ll.Cwd,
		GitBranch:  ll.GitBranch,
	}, true
}

func parseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	default:
		return RoleOther
	}
}
