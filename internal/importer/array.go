package importer

import (
	"sort"
	"time"

	"github.com/harborapp/harbor/internal/extractor"
)

// arraySpec configures the generic flat-array parser for one producer
// flavor. Exports are not guaranteed pre-sorted, so parsed messages are
// always re-sorted by resolved timestamp.
type arraySpec struct {
	// fields is the priority list of array field names, checked on the
	// conversation object first and then on its nested "conversation".
	fields []string
	// fallbackRole is assumed when no role resolves for an element;
	// empty means roleless elements are skipped.
	fallbackRole string
}

var (
	claudeArraySpec  = arraySpec{fields: []string{"chat_messages"}}
	geminiArraySpec  = arraySpec{fields: []string{"contents"}, fallbackRole: "user"}
	genericArraySpec = arraySpec{fields: []string{"messages", "turns", "items", "transcript"}}
)

// messageTimeFields are tried per element for a timestamp before falling
// back to the conversation-level time, and ultimately to now.
var messageTimeFields = []string{
	"timestamp", "create_time", "created_at", "createdAt", "created", "time", "date", "sent_at",
}

// parseArrayConversation reconstructs a chat from a flat-list export.
// Returns nil when no configured array field is present or no element
// yields a usable message.
func parseArrayConversation(conv any, spec arraySpec) *Chat {
	rec := extractor.AsRecord(conv)
	if rec == nil {
		return nil
	}
	items := locateArray(rec, spec.fields)
	if items == nil {
		return nil
	}

	convTime, haveConvTime := fieldTime(rec, "create_time", "created_at", "createdAt", "created", "timestamp")

	var msgs []parsedMessage
	for _, el := range items {
		role := elementRole(el)
		if role == "" {
			role = spec.fallbackRole
		}
		if role == "" || role == "system" {
			continue
		}
		text := elementText(el)
		if text == "" {
			continue
		}
		ts, ok := fieldTime(el, messageTimeFields...)
		if !ok {
			if haveConvTime {
				ts = convTime
			} else {
				ts = time.Now().UTC()
			}
		}
		msgs = append(msgs, parsedMessage{role: role, content: text, ts: ts})
	}
	if len(msgs) == 0 {
		return nil
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].ts.Before(msgs[j].ts) })

	return assembleChat(rec, msgs)
}

// locateArray returns the first present non-empty array among the
// candidate fields, checking the conversation object and then its nested
// "conversation" sub-object.
func locateArray(rec map[string]any, fields []string) []any {
	for _, name := range fields {
		if arr := extractor.AsSlice(rec[name]); len(arr) > 0 {
			return arr
		}
	}
	if nested := extractor.AsRecord(rec["conversation"]); nested != nil {
		for _, name := range fields {
			if arr := extractor.AsSlice(nested[name]); len(arr) > 0 {
				return arr
			}
		}
	}
	return nil
}

// elementRole tries the known role field paths on one array element.
func elementRole(el any) string {
	rec := extractor.AsRecord(el)
	if rec == nil {
		return ""
	}
	for _, name := range []string{"role", "sender", "author", "from", "speaker"} {
		if r := extractor.Role(rec[name]); r != "" {
			return r
		}
	}
	if author := extractor.AsRecord(rec["author"]); author != nil {
		if r := extractor.Role(author["role"]); r != "" {
			return r
		}
		if r := extractor.Role(author["name"]); r != "" {
			return r
		}
	}
	if msg := extractor.AsRecord(rec["message"]); msg != nil {
		if r := extractor.Role(msg["role"]); r != "" {
			return r
		}
	}
	return ""
}

// elementText tries direct content fields, then nested message content,
// then the extractor over the whole element.
func elementText(el any) string {
	rec := extractor.AsRecord(el)
	if rec == nil {
		return extractor.Text(el)
	}
	for _, name := range []string{"text", "content", "parts", "body", "message"} {
		v, ok := rec[name]
		if !ok {
			continue
		}
		if s := extractor.Text(v); s != "" {
			return s
		}
	}
	if msg := extractor.AsRecord(rec["message"]); msg != nil {
		for _, name := range []string{"content", "text"} {
			if s := extractor.Text(msg[name]); s != "" {
				return s
			}
		}
	}
	return extractor.Text(el)
}
