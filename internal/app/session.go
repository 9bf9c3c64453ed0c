package app

import (
	"strings"
	"unicode/utf8"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is immutable once appended; conversation order is append order.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session owns one conversation: its message log and the graph snapshot
// returned by the most recent graph-bearing turn. The ID is stable for the
// session's lifetime but is not persisted; sessions get fresh IDs on load.
type Session struct {
	ID       string
	Title    string
	Messages []ChatMessage
	Graph    *Snapshot
}

const (
	defaultSessionTitle = "New chat"
	defaultTitleLimit   = 30
)

// deriveTitle computes a session title from the first user message,
// truncated to limit runes. Assistant messages never influence the title.
func deriveTitle(msgs []ChatMessage, limit int) string {
	if limit <= 0 {
		limit = defaultTitleLimit
	}
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		text := strings.TrimSpace(m.Text)
		if text == "" {
			break
		}
		if utf8.RuneCountInString(text) <= limit {
			return text
		}
		runes := []rune(text)
		return string(runes[:limit])
	}
	return defaultSessionTitle
}

// SessionSummary is the read-only projection the session list renders from.
type SessionSummary struct {
	ID           string
	Title        string
	MessageCount int
	HasGraph     bool
	Pending      bool
}
