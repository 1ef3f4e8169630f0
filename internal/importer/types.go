package importer

import (
	"errors"
	"time"
)

// ErrMalformedInput marks payloads that are not valid JSON or match no
// known export format.
var ErrMalformedInput = errors.New("malformed input")

// Message is a single canonical turn in an imported chat. System-role
// turns from the source export are dropped during import; only user and
// assistant survive.
type Message struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"` // "user" or "assistant"
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments,omitempty"`
}

// Chat is one reconstructed conversation. Messages are strictly
// chronological after normalization, with no two adjacent messages sharing
// the same role and content.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is the outcome of one import batch. Partial failures are not
// escalated: conversations that failed to parse are counted in Warnings
// and the rest of the batch still succeeds.
type Result struct {
	Source   string   `json:"source"`
	Chats    []Chat   `json:"chats"`
	Warnings []string `json:"warnings,omitempty"`
}

// parsedMessage is the pre-normalization shape shared by the parsers.
type parsedMessage struct {
	role    string
	content string
	ts      time.Time
}

// Source tags reported on import results.
const (
	SourceChatGPT = "chatgpt"
	SourceClaude  = "claude"
	SourceGemini  = "gemini"
	SourceGeneric = "generic"
)
