package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harborapp/harbor/internal/extractor"
)

// parserFunc attempts one export format over a candidate conversation
// list. recognized reports whether the structural marker for the format
// was present at all; a recognized shape that still yields zero usable
// chats is treated as a miss and dispatch moves on.
type parserFunc func(convs []any) (chats []*Chat, recognized bool)

type parserEntry struct {
	source string
	parse  parserFunc
}

var parserOrder = []parserEntry{
	{SourceChatGPT, parseChatGPTExport},
	{SourceClaude, func(convs []any) ([]*Chat, bool) { return parseArrayExport(convs, claudeArraySpec) }},
	{SourceGemini, func(convs []any) ([]*Chat, bool) { return parseArrayExport(convs, geminiArraySpec) }},
	{SourceGeneric, func(convs []any) ([]*Chat, bool) { return parseArrayExport(convs, genericArraySpec) }},
}

// filename substrings that hint a producer and promote its parser to the
// front of the priority order.
var filenameHints = []struct {
	substrings []string
	source     string
}{
	{[]string{"chatgpt", "conversations"}, SourceChatGPT},
	{[]string{"claude"}, SourceClaude},
	{[]string{"gemini", "bard"}, SourceGemini},
}

// Import turns one raw export file into canonical chats. Invalid JSON
// fails fast; otherwise parsers are tried in priority order (reordered by
// the filename hint) and the first one producing at least one usable chat
// wins. Per-conversation failures become warnings, not errors.
func Import(raw []byte, filename string) (*Result, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedInput, err)
	}

	convs := conversationCandidates(root)

	for _, entry := range orderedParsers(filename) {
		chats, recognized := entry.parse(convs)
		if !recognized || len(chats) == 0 {
			continue
		}
		return finalizeBatch(entry.source, chats), nil
	}

	return nil, fmt.Errorf("%w: could not recognize export format (supported: ChatGPT, Claude, Gemini, generic message arrays)", ErrMalformedInput)
}

// conversationCandidates flattens the export's top level into a list of
// conversation objects: a bare array, a wrapper object with a known list
// field, or a single conversation.
func conversationCandidates(root any) []any {
	if arr := extractor.AsSlice(root); arr != nil {
		return arr
	}
	if rec := extractor.AsRecord(root); rec != nil {
		for _, name := range []string{"conversations", "chats", "sessions"} {
			if arr := extractor.AsSlice(rec[name]); len(arr) > 0 {
				return arr
			}
		}
		return []any{root}
	}
	return nil
}

func orderedParsers(filename string) []parserEntry {
	hinted := ""
	lower := strings.ToLower(filename)
	for _, h := range filenameHints {
		for _, sub := range h.substrings {
			if strings.Contains(lower, sub) {
				hinted = h.source
				break
			}
		}
		if hinted != "" {
			break
		}
	}
	if hinted == "" {
		return parserOrder
	}
	ordered := make([]parserEntry, 0, len(parserOrder))
	for _, entry := range parserOrder {
		if entry.source == hinted {
			ordered = append(ordered, entry)
		}
	}
	for _, entry := range parserOrder {
		if entry.source != hinted {
			ordered = append(ordered, entry)
		}
	}
	return ordered
}

// parseChatGPTExport recognizes the tree-shaped mapping format: at least
// one conversation carrying a mapping object with nested messages.
func parseChatGPTExport(convs []any) ([]*Chat, bool) {
	recognized := false
	var chats []*Chat
	for _, conv := range convs {
		rec := extractor.AsRecord(conv)
		if rec == nil {
			continue
		}
		mapping := extractor.AsRecord(rec["mapping"])
		if mapping == nil {
			continue
		}
		for _, node := range mapping {
			if n := extractor.AsRecord(node); n != nil && extractor.AsRecord(n["message"]) != nil {
				recognized = true
				break
			}
		}
		if chat := parseTreeConversation(conv); chat != nil {
			chats = append(chats, chat)
		}
	}
	return chats, recognized
}

// parseArrayExport recognizes flat-list formats: at least one conversation
// where the spec's array field is present and non-empty.
func parseArrayExport(convs []any, spec arraySpec) ([]*Chat, bool) {
	recognized := false
	var chats []*Chat
	for _, conv := range convs {
		rec := extractor.AsRecord(conv)
		if rec == nil {
			continue
		}
		if locateArray(rec, spec.fields) != nil {
			recognized = true
		}
		if chat := parseArrayConversation(conv, spec); chat != nil {
			chats = append(chats, chat)
		}
	}
	return chats, recognized
}
