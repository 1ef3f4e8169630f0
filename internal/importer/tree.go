package importer

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harborapp/harbor/internal/extractor"
)

// parseTreeConversation reconstructs a chat from a ChatGPT-style export
// conversation: a "mapping" of node id → {message, parent, children} plus
// an optional "current_node" marking the active leaf. Returns nil when the
// conversation yields no usable messages.
func parseTreeConversation(conv any) *Chat {
	rec := extractor.AsRecord(conv)
	if rec == nil {
		return nil
	}
	mapping := extractor.AsRecord(rec["mapping"])
	if len(mapping) == 0 {
		return nil
	}

	path := treePath(mapping, extractor.StringField(rec, "current_node"))

	var msgs []parsedMessage
	for _, id := range path {
		node := extractor.AsRecord(mapping[id])
		if node == nil {
			continue
		}
		msg := extractor.AsRecord(node["message"])
		if msg == nil {
			continue
		}
		role := messageRole(msg)
		if role == "" || role == "system" {
			continue
		}
		text := treeMessageText(msg)
		if text == "" {
			continue
		}
		ts, ok := fieldTime(msg, "create_time", "created_at", "timestamp")
		if !ok {
			ts = time.Now().UTC()
		}
		msgs = append(msgs, parsedMessage{role: role, content: text, ts: ts})
	}
	if len(msgs) == 0 {
		return nil
	}

	return assembleChat(rec, msgs)
}

// treePath returns the node ids of the intended chronological path. With a
// usable current_node it follows parent links backward under a visited-set
// guard (malformed exports contain cycles and dangling parents), then
// reverses. Without one it degrades to all nodes sorted by message
// creation time, ties broken by node id for determinism.
func treePath(mapping map[string]any, currentNode string) []string {
	if currentNode != "" {
		if _, ok := mapping[currentNode]; ok {
			visited := make(map[string]bool)
			var reversed []string
			id := currentNode
			for id != "" && !visited[id] {
				visited[id] = true
				node := extractor.AsRecord(mapping[id])
				if node == nil {
					break
				}
				reversed = append(reversed, id)
				id = extractor.StringField(node, "parent")
			}
			path := make([]string, len(reversed))
			for i, nodeID := range reversed {
				path[len(reversed)-1-i] = nodeID
			}
			return path
		}
	}

	// Best-guess chronology over the whole graph.
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return nodeCreateTime(mapping, ids[i]).Before(nodeCreateTime(mapping, ids[j]))
	})
	return ids
}

func nodeCreateTime(mapping map[string]any, id string) time.Time {
	node := extractor.AsRecord(mapping[id])
	if node == nil {
		return time.Time{}
	}
	t, _ := fieldTime(node["message"], "create_time", "created_at", "timestamp")
	return t
}

// messageRole resolves a role from a mapping node's message, preferring
// the structured author object.
func messageRole(msg map[string]any) string {
	if author := extractor.AsRecord(msg["author"]); author != nil {
		if r := extractor.Role(author["role"]); r != "" {
			return r
		}
		if r := extractor.Role(author["name"]); r != "" {
			return r
		}
	}
	if r := extractor.Role(msg["role"]); r != "" {
		return r
	}
	return ""
}

// treeMessageText prefers the structured content.parts / content.text
// fields before handing the whole message to the extractor.
func treeMessageText(msg map[string]any) string {
	if content := extractor.AsRecord(msg["content"]); content != nil {
		if parts := extractor.AsSlice(content["parts"]); parts != nil {
			if s := extractor.Text(parts); s != "" {
				return s
			}
		}
		if s := extractor.StringField(content, "text"); s != "" {
			return s
		}
	}
	return extractor.Text(msg)
}

// assembleChat builds a Chat from parsed messages plus conversation-level
// metadata. Container timestamps are reconciled later by the normalizer.
func assembleChat(conv map[string]any, msgs []parsedMessage) *Chat {
	chat := &Chat{
		ID:    uuid.NewString(),
		Title: conversationTitle(conv),
	}
	for _, m := range msgs {
		chat.Messages = append(chat.Messages, Message{
			ID:        uuid.NewString(),
			Role:      m.role,
			Content:   m.content,
			Timestamp: m.ts,
		})
	}
	if t, ok := fieldTime(conv, "create_time", "created_at", "createdAt", "created"); ok {
		chat.CreatedAt = t
	}
	if t, ok := fieldTime(conv, "update_time", "updated_at", "updatedAt", "updated"); ok {
		chat.UpdatedAt = t
	}
	return chat
}

func conversationTitle(conv map[string]any) string {
	for _, name := range []string{"title", "name", "subject"} {
		if s := extractor.StringField(conv, name); s != "" {
			return s
		}
	}
	if nested := extractor.AsRecord(conv["conversation"]); nested != nil {
		for _, name := range []string{"title", "name"} {
			if s := extractor.StringField(nested, name); s != "" {
				return s
			}
		}
	}
	return ""
}
