// Package share turns ad-hoc "share" submissions (one arbitrary JSON
// object posted by a browser extension or automation) into canonical
// triage fields for the inbox.
package share

import (
	"errors"
	"strings"

	"github.com/harborapp/harbor/internal/extractor"
)

// ErrUnresolvedContent marks submissions from which no text or URL could
// be derived; they are rejected rather than stored empty.
var ErrUnresolvedContent = errors.New("no content could be derived from submission")

// DefaultSource is the generic source token used when nothing explicit or
// structural identifies the producer.
const DefaultSource = "share"

// Submission is the normalized shape of one share payload.
type Submission struct {
	Source  string
	Title   string
	URL     string
	Author  string
	Tags    []string
	Content string
}

// payloadAliases are the keys under which a submission may nest its real
// payload object.
var payloadAliases = []string{"payload", "data", "conversation", "chat", "body", "item"}

// sourceAliases maps producer spellings to canonical source tokens.
var sourceAliases = map[string]string{
	"chatgpt":   "chatgpt",
	"gpt":       "chatgpt",
	"openai":    "chatgpt",
	"claude":    "claude",
	"anthropic": "claude",
	"gemini":    "gemini",
	"bard":      "gemini",
	"google":    "gemini",
}

var (
	titleFields  = []string{"title", "name", "subject", "heading"}
	urlFields    = []string{"url", "link", "href", "source_url", "page_url"}
	authorFields = []string{"author", "user", "username", "from", "creator"}
)

// Normalize derives canonical triage fields from one arbitrary submission
// object. Fails with ErrUnresolvedContent when neither text nor a URL can
// be extracted.
func Normalize(body map[string]any) (*Submission, error) {
	payload, nested := locatePayload(body)
	// Scan roots in priority order: the outer object first, then the
	// nested payload and any "conversation" object under either.
	scopes := scanScopes(body, payload, nested)

	sub := &Submission{
		Source: resolveSource(body, payload),
		Title:  firstField(scopes, titleFields),
		URL:    firstField(scopes, urlFields),
		Author: firstField(scopes, authorFields),
	}

	content := deriveContent(body, payload, sub.URL)
	if content == "" {
		return nil, ErrUnresolvedContent
	}
	sub.Content = content

	sub.Tags = InferTags(explicitTags(body, payload), sub.Source, sub.URL, sub.Title, sub.Content)
	return sub, nil
}

// locatePayload finds a nested payload object under any of the aliased
// keys. Falls back to the outer body itself; nested reports whether a
// distinct sub-object was found.
func locatePayload(body map[string]any) (payload map[string]any, nested bool) {
	for _, key := range payloadAliases {
		if rec := extractor.AsRecord(body[key]); rec != nil {
			return rec, true
		}
	}
	return body, false
}

func scanScopes(body, payload map[string]any, nested bool) []map[string]any {
	scopes := []map[string]any{body}
	if nested {
		scopes = append(scopes, payload)
	}
	if conv := extractor.AsRecord(body["conversation"]); conv != nil {
		scopes = append(scopes, conv)
	}
	if nested {
		if conv := extractor.AsRecord(payload["conversation"]); conv != nil {
			scopes = append(scopes, conv)
		}
	}
	return scopes
}

func firstField(scopes []map[string]any, fields []string) string {
	for _, scope := range scopes {
		for _, name := range fields {
			if s := extractor.StringField(scope, name); s != "" {
				return s
			}
		}
	}
	return ""
}

// resolveSource prefers an explicit source field resolved through the
// alias table; when absent or generic it falls back to structural
// inference, which never overrides an explicit non-default source.
func resolveSource(body, payload map[string]any) string {
	explicit := strings.ToLower(extractor.StringField(body, "source"))
	if explicit == "" {
		explicit = strings.ToLower(extractor.StringField(payload, "source"))
	}
	if canonical, ok := sourceAliases[explicit]; ok {
		return canonical
	}
	if explicit != "" && explicit != DefaultSource {
		return explicit
	}
	if inferred := inferSource(body, payload); inferred != "" {
		return inferred
	}
	return DefaultSource
}

// inferSource guesses a producer from structural fingerprints: the shape
// of the payload or the shared URL.
func inferSource(body, payload map[string]any) string {
	url := strings.ToLower(firstField([]map[string]any{body, payload}, urlFields))
	for _, scope := range []map[string]any{body, payload} {
		if scope == nil {
			continue
		}
		if extractor.AsRecord(scope["mapping"]) != nil {
			return "chatgpt"
		}
		if arr := extractor.AsSlice(scope["chat_messages"]); len(arr) > 0 {
			return "claude"
		}
		if arr := extractor.AsSlice(scope["contents"]); len(arr) > 0 {
			return "gemini"
		}
	}
	switch {
	case strings.Contains(url, "chatgpt.com"), strings.Contains(url, "openai.com"):
		return "chatgpt"
	case strings.Contains(url, "claude.ai"):
		return "claude"
	case strings.Contains(url, "gemini.google"), strings.Contains(url, "bard.google"):
		return "gemini"
	}
	return ""
}

func explicitTags(body, payload map[string]any) []string {
	for _, scope := range []map[string]any{body, payload} {
		if scope == nil {
			continue
		}
		switch v := scope["tags"].(type) {
		case []any:
			var tags []string
			for _, el := range v {
				if s, ok := extractor.AsString(el); ok && strings.TrimSpace(s) != "" {
					tags = append(tags, strings.TrimSpace(s))
				}
			}
			if len(tags) > 0 {
				return tags
			}
		case string:
			var tags []string
			for _, part := range strings.Split(v, ",") {
				if p := strings.TrimSpace(part); p != "" {
					tags = append(tags, p)
				}
			}
			if len(tags) > 0 {
				return tags
			}
		}
	}
	return nil
}
