package share

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harborapp/harbor/internal/extractor"
	"github.com/harborapp/harbor/internal/importer"
)

const (
	maxTranscriptLines = 40
	maxLineLength      = 4000
)

// contentFields are the direct content-like fields tried before any
// transcript synthesis.
var contentFields = []string{"content", "text", "body", "message", "description", "note", "selection"}

// transcriptArrays are candidate message arrays for flat payloads, in
// priority order.
var transcriptArrays = []string{"chat_messages", "contents", "messages", "turns", "items", "transcript"}

// Role labels for synthesized transcripts.
var roleLabels = map[string]string{
	"user":      "Пользователь",
	"assistant": "Ассистент",
	"system":    "Система",
}

// deriveContent resolves the submission's content: direct fields first,
// then a synthesized transcript from a tree-shaped or flat payload, then a
// one-line placeholder for URL-only submissions.
func deriveContent(body, payload map[string]any, url string) string {
	for _, scope := range []map[string]any{body, payload} {
		if scope == nil {
			continue
		}
		for _, name := range contentFields {
			v, ok := scope[name]
			if !ok {
				continue
			}
			// A tree payload under a content key is handled by the
			// transcript path below. Any other object resolves through
			// the extractor's field priority ({"parts": [...]} and co).
			if rec := extractor.AsRecord(v); rec != nil {
				if _, tree := rec["mapping"]; tree {
					continue
				}
			}
			if s := extractor.Text(v); s != "" {
				return s
			}
		}
	}

	for _, scope := range []map[string]any{body, payload} {
		if scope == nil {
			continue
		}
		if mapping := extractor.AsRecord(scope["mapping"]); len(mapping) > 0 {
			if s := treeTranscript(mapping); s != "" {
				return s
			}
		}
	}

	if s := arrayTranscript(body, payload); s != "" {
		return s
	}

	if url != "" {
		return fmt.Sprintf("Ссылка на материал: %s", url)
	}
	return ""
}

// treeTranscript renders all mapping nodes as a labeled transcript. No
// branch selection here: triage cards want everything the payload holds,
// sorted by creation time.
func treeTranscript(mapping map[string]any) string {
	type node struct {
		id   string
		ts   time.Time
		role string
		text string
	}
	var nodes []node
	for id, raw := range mapping {
		rec := extractor.AsRecord(raw)
		if rec == nil {
			continue
		}
		msg := extractor.AsRecord(rec["message"])
		if msg == nil {
			continue
		}
		role := ""
		if author := extractor.AsRecord(msg["author"]); author != nil {
			role = extractor.Role(author["role"])
		}
		if role == "" {
			role = extractor.Role(msg["role"])
		}
		text := extractor.Text(msg)
		if text == "" {
			continue
		}
		// String create_time values (RFC3339 dates, stringified epochs)
		// parse the same way the importer reads them.
		ts, _ := importer.ParseTime(msg["create_time"])
		nodes = append(nodes, node{id: id, ts: ts, role: role, text: text})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].ts.Equal(nodes[j].ts) {
			return nodes[i].ts.Before(nodes[j].ts)
		}
		return nodes[i].id < nodes[j].id
	})

	var lines []string
	for _, n := range nodes {
		lines = append(lines, transcriptLine(n.role, n.text))
	}
	return joinTranscript(lines)
}

// arrayTranscript scans candidate arrays over the root, the payload and
// nested conversation objects, and builds a transcript from the first
// non-empty one.
func arrayTranscript(body, payload map[string]any) string {
	scopes := []map[string]any{body, payload}
	for _, scope := range []map[string]any{body, payload} {
		if scope == nil {
			continue
		}
		if conv := extractor.AsRecord(scope["conversation"]); conv != nil {
			scopes = append(scopes, conv)
		}
	}

	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		for _, name := range transcriptArrays {
			arr := extractor.AsSlice(scope[name])
			if len(arr) == 0 {
				continue
			}
			var lines []string
			for _, el := range arr {
				text := extractor.Text(el)
				if text == "" {
					continue
				}
				role := ""
				if rec := extractor.AsRecord(el); rec != nil {
					for _, f := range []string{"role", "sender", "author"} {
						if role = extractor.Role(rec[f]); role != "" {
							break
						}
					}
				}
				lines = append(lines, transcriptLine(role, text))
			}
			if len(lines) > 0 {
				return joinTranscript(lines)
			}
		}
	}
	return ""
}

func transcriptLine(role, text string) string {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxLineLength {
		text = string(runes[:maxLineLength])
	}
	if label, ok := roleLabels[role]; ok {
		return label + ": " + text
	}
	return text
}

func joinTranscript(lines []string) string {
	if len(lines) > maxTranscriptLines {
		lines = lines[:maxTranscriptLines]
	}
	return strings.Join(lines, "\n\n")
}
