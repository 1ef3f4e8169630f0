// Package extractor pulls human-readable text and message roles out of
// untyped JSON values. Conversation exports nest their payloads in
// producer-specific ways; these heuristics are the shared substrate every
// parser is built on.
package extractor

import (
	"strconv"
	"strings"
)

// maxDepth bounds recursive extraction. Real exports nest three or four
// levels deep; anything past six is noise or a cycle smuggled through
// encoding.
const maxDepth = 6

// collectionFields are object fields that, when they hold an array, carry
// the message body split into pieces. Checked before scalar fields so a
// structured content list beats a sibling title string.
var collectionFields = []string{"content", "items", "messages", "blocks", "data", "parts"}

// scalarFields are tried in priority order on objects; the first field
// yielding non-empty text wins.
var scalarFields = []string{
	"text", "content", "value", "body", "message", "response",
	"output", "result", "completion", "raw_text", "rawText",
	"answer", "prompt", "title",
}

// Text extracts the best-effort human-readable text from an arbitrary
// decoded JSON value. Returns "" when nothing usable is found. Pure.
func Text(v any) string {
	return textAtDepth(v, 0)
}

func textAtDepth(v any, depth int) string {
	if v == nil || depth > maxDepth {
		return ""
	}

	switch val := v.(type) {
	case string:
		return trim(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		var parts []string
		for _, el := range val {
			if s := textAtDepth(el, depth+1); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		// A structured content array wins over scalar siblings.
		for _, name := range collectionFields {
			if arr := AsSlice(val[name]); arr != nil {
				if s := textAtDepth(arr, depth+1); s != "" {
					return s
				}
			}
		}
		for _, name := range scalarFields {
			child, ok := val[name]
			if !ok {
				continue
			}
			if s := textAtDepth(child, depth+1); s != "" {
				return s
			}
		}
	}

	return ""
}

// Role keyword sets. Disjoint; first match wins.
var (
	assistantRoles = []string{"assistant", "model", "bot", "ai", "claude", "gemini", "chatgpt", "minimax", "kimi", "moonshot"}
	userRoles      = []string{"user", "human", "client", "customer"}
	systemRoles    = []string{"system", "developer"}
)

// Role normalizes an arbitrary role-ish value to one of "assistant",
// "user", "system". Returns "" when the value matches none of the known
// keywords; the caller decides the fallback.
func Role(v any) string {
	s, ok := AsString(v)
	if !ok {
		return ""
	}
	s = strings.ToLower(trim(s))
	if s == "" {
		return ""
	}
	for _, kw := range assistantRoles {
		if strings.Contains(s, kw) {
			return "assistant"
		}
	}
	for _, kw := range userRoles {
		if strings.Contains(s, kw) {
			return "user"
		}
	}
	for _, kw := range systemRoles {
		if strings.Contains(s, kw) {
			return "system"
		}
	}
	return ""
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
