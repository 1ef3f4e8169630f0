package importer

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

const chatgptConversation = `{
	"title": "Greeting",
	"create_time": 1700000000,
	"update_time": 1700000100,
	"current_node": "ccc",
	"mapping": {
		"aaa": {"id": "aaa", "parent": null, "children": ["bbb"]},
		"bbb": {"id": "bbb", "parent": "aaa", "children": ["ccc"],
			"message": {"author": {"role": "user"}, "create_time": 1700000010,
				"content": {"content_type": "text", "parts": ["Hi"]}}},
		"ccc": {"id": "ccc", "parent": "bbb", "children": [],
			"message": {"author": {"role": "assistant"}, "create_time": 1700000020,
				"content": {"content_type": "text", "parts": ["Hello!"]}}}
	}
}`

func TestImport_ChatGPTTreeWalk(t *testing.T) {
	res, err := Import([]byte(chatgptConversation), "conversations.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceChatGPT {
		t.Errorf("source = %q, want chatgpt", res.Source)
	}
	if len(res.Chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(res.Chats))
	}
	msgs := res.Chats[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "Hi" {
		t.Errorf("msg[0] = %q %q, want user 'Hi'", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "Hello!" {
		t.Errorf("msg[1] = %q %q, want assistant 'Hello!'", msgs[1].Role, msgs[1].Content)
	}
	if res.Chats[0].Title != "Greeting" {
		t.Errorf("title = %q", res.Chats[0].Title)
	}
}

func TestImport_ChatGPTCycleTolerated(t *testing.T) {
	// parent links form a loop; the visited set must stop the walk.
	raw := `{
		"current_node": "bbb",
		"mapping": {
			"aaa": {"parent": "bbb", "message": {"author": {"role": "user"},
				"create_time": 1, "content": {"parts": ["First"]}}},
			"bbb": {"parent": "aaa", "message": {"author": {"role": "assistant"},
				"create_time": 2, "content": {"parts": ["Second"]}}}
		}
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chats) != 1 || len(res.Chats[0].Messages) != 2 {
		t.Fatalf("expected 1 chat with 2 messages, got %+v", res.Chats)
	}
}

func TestImport_ChatGPTNoCurrentNodeSortsByTime(t *testing.T) {
	raw := `{
		"mapping": {
			"zzz": {"message": {"author": {"role": "assistant"}, "create_time": 200,
				"content": {"parts": ["Reply"]}}},
			"aaa": {"message": {"author": {"role": "user"}, "create_time": 100,
				"content": {"parts": ["Question"]}}}
		}
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := res.Chats[0].Messages
	if msgs[0].Content != "Question" || msgs[1].Content != "Reply" {
		t.Errorf("fallback ordering wrong: %q then %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestImport_ChatGPTSkipsSystemAndEmpty(t *testing.T) {
	raw := `{
		"current_node": "ddd",
		"mapping": {
			"aaa": {"message": {"author": {"role": "system"}, "create_time": 1,
				"content": {"parts": ["You are helpful"]}}},
			"bbb": {"parent": "aaa", "message": {"author": {"role": "user"}, "create_time": 2,
				"content": {"parts": [""]}}},
			"ccc": {"parent": "bbb", "message": {"author": {"role": "user"}, "create_time": 3,
				"content": {"parts": ["Real question"]}}},
			"ddd": {"parent": "ccc", "message": {"author": {"role": "assistant"}, "create_time": 4,
				"content": {"parts": ["Answer"]}}}
		}
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := res.Chats[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected system and empty nodes skipped, got %d messages", len(msgs))
	}
	if msgs[0].Content != "Real question" {
		t.Errorf("msg[0] = %q", msgs[0].Content)
	}
}

func TestImport_ClaudeFlatArray(t *testing.T) {
	raw := `{
		"name": "Claude session",
		"created_at": "2026-03-01T10:00:00Z",
		"chat_messages": [
			{"sender": "assistant", "text": "Sure, here it is.", "created_at": "2026-03-01T10:01:00Z"},
			{"sender": "human", "text": "Show me the plan.", "created_at": "2026-03-01T10:00:30Z"}
		]
	}`
	res, err := Import([]byte(raw), "claude-export.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceClaude {
		t.Errorf("source = %q, want claude", res.Source)
	}
	msgs := res.Chats[0].Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Pre-sorted by resolved timestamp, not input order.
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("messages not time-sorted: %q then %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestImport_GeminiContents(t *testing.T) {
	raw := `{
		"contents": [
			{"role": "user", "parts": [{"text": "Translate this"}]},
			{"role": "model", "parts": [{"text": "Done"}]}
		]
	}`
	res, err := Import([]byte(raw), "gemini.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceGemini {
		t.Errorf("source = %q, want gemini", res.Source)
	}
	msgs := res.Chats[0].Messages
	if len(msgs) != 2 || msgs[1].Role != "assistant" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestImport_GenericMessagesArray(t *testing.T) {
	raw := `{
		"messages": [
			{"role": "user", "content": "ping", "timestamp": 1700000000},
			{"role": "bot", "content": "pong", "timestamp": 1700000001}
		]
	}`
	res, err := Import([]byte(raw), "dump.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceGeneric {
		t.Errorf("source = %q, want generic", res.Source)
	}
	if res.Chats[0].Messages[1].Role != "assistant" {
		t.Errorf("bot should normalize to assistant")
	}
}

func TestImport_TimestampUnits(t *testing.T) {
	raw := `{
		"messages": [
			{"role": "user", "content": "seconds", "timestamp": 1700000000},
			{"role": "assistant", "content": "millis", "timestamp": 1700000001000},
			{"role": "user", "content": "string seconds", "timestamp": "1700000002"}
		]
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := res.Chats[0].Messages
	want := []time.Time{
		time.Unix(1700000000, 0).UTC(),
		time.UnixMilli(1700000001000).UTC(),
		time.Unix(1700000002, 0).UTC(),
	}
	for i, w := range want {
		if !msgs[i].Timestamp.Equal(w) {
			t.Errorf("msg[%d] timestamp = %v, want %v", i, msgs[i].Timestamp, w)
		}
	}
}

func TestImport_DuplicateConversationsDeduped(t *testing.T) {
	raw := fmt.Sprintf("[%s, %s]", chatgptConversation, chatgptConversation)
	res, err := Import([]byte(raw), "conversations.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Chats) != 1 {
		t.Fatalf("expected 1 distinct chat, got %d", len(res.Chats))
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "1 duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate warning, got %v", res.Warnings)
	}
}

func TestImport_AdjacentDuplicateMessagesCollapsed(t *testing.T) {
	raw := `{
		"messages": [
			{"role": "user", "content": "same", "timestamp": 1},
			{"role": "user", "content": "same", "timestamp": 2},
			{"role": "assistant", "content": "reply", "timestamp": 3}
		]
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(res.Chats[0].Messages); got != 2 {
		t.Errorf("expected adjacent duplicate collapsed, got %d messages", got)
	}
}

func TestImport_MessageTextCleanup(t *testing.T) {
	raw := `{"messages": [{"role": "user", "content": "  a\r\nb\n\n\n\n\nc  ", "timestamp": 1}]}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.Chats[0].Messages[0].Content
	if got != "a\nb\n\nc" {
		t.Errorf("content = %q", got)
	}
}

func TestImport_InvalidJSON(t *testing.T) {
	_, err := Import([]byte("{not json"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("error = %v", err)
	}
}

func TestImport_UnrecognizedFormat(t *testing.T) {
	_, err := Import([]byte(`{"foo": "bar"}`), "unknown.json")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, producer := range []string{"ChatGPT", "Claude", "Gemini"} {
		if !strings.Contains(err.Error(), producer) {
			t.Errorf("error should name %s: %v", producer, err)
		}
	}
}

func TestImport_RecognizedButEmptyFallsThrough(t *testing.T) {
	// A mapping with messages none of which yield text is a miss for the
	// tree parser; the generic parser then picks up the messages array.
	raw := `{
		"mapping": {
			"aaa": {"message": {"author": {"role": "user"}, "content": {"parts": [""]}}}
		},
		"messages": [
			{"role": "user", "content": "rescued", "timestamp": 1}
		]
	}`
	res, err := Import([]byte(raw), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceGeneric {
		t.Errorf("source = %q, want generic fallthrough", res.Source)
	}
}

func TestNormalizeChat_TimestampReconciliation(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	chat := &Chat{
		// Stated creation after the last message: producer bug.
		CreatedAt: base.Add(time.Hour),
		UpdatedAt: base.Add(-time.Hour),
		Messages: []Message{
			{Role: "user", Content: "first", Timestamp: base},
			{Role: "assistant", Content: "last", Timestamp: base.Add(time.Minute)},
		},
	}
	if !normalizeChat(chat) {
		t.Fatal("chat should survive")
	}
	if !chat.CreatedAt.Equal(base) {
		t.Errorf("createdAt = %v, want first message time", chat.CreatedAt)
	}
	if !chat.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("updatedAt = %v, want last message time", chat.UpdatedAt)
	}
}

func TestNormalizeChat_MessageCap(t *testing.T) {
	chat := &Chat{}
	for i := 0; i < maxMessagesPerChat+50; i++ {
		chat.Messages = append(chat.Messages, Message{
			Role:      "user",
			Content:   fmt.Sprintf("msg %d", i),
			Timestamp: time.Unix(int64(i), 0),
		})
	}
	normalizeChat(chat)
	if len(chat.Messages) != maxMessagesPerChat {
		t.Fatalf("expected %d messages, got %d", maxMessagesPerChat, len(chat.Messages))
	}
	if chat.Messages[0].Content != "msg 0" {
		t.Errorf("oldest messages should be kept, got %q first", chat.Messages[0].Content)
	}
}

func TestCapWarnings(t *testing.T) {
	var warnings []string
	for i := 0; i < maxWarnings+10; i++ {
		warnings = append(warnings, fmt.Sprintf("warning %d", i))
	}
	capped := capWarnings(warnings)
	if len(capped) != maxWarnings+1 {
		t.Fatalf("expected %d entries, got %d", maxWarnings+1, len(capped))
	}
	if !strings.Contains(capped[maxWarnings], "10 more") {
		t.Errorf("summary entry = %q", capped[maxWarnings])
	}
}
