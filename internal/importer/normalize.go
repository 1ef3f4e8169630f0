package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxMessageLength   = 8000
	maxMessagesPerChat = 600
	maxChatsPerBatch   = 120
	maxWarnings        = 40
	signatureSampleLen = 64
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	nonAlnum       = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// finalizeBatch runs per-chat normalization, batch-level caps and
// in-batch deduplication, producing the import result.
func finalizeBatch(source string, parsed []*Chat) *Result {
	res := &Result{Source: source}
	var warnings []string

	dropped := 0
	duplicates := 0
	seen := make(map[string]bool)

	for _, chat := range parsed {
		if !normalizeChat(chat) {
			dropped++
			continue
		}
		sig := chatSignature(chat)
		if seen[sig] {
			duplicates++
			continue
		}
		seen[sig] = true
		if len(res.Chats) >= maxChatsPerBatch {
			warnings = append(warnings, fmt.Sprintf("batch limit of %d chats reached, remaining conversations skipped", maxChatsPerBatch))
			break
		}
		res.Chats = append(res.Chats, *chat)
	}

	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d conversations had no usable messages and were dropped", dropped))
	}
	if duplicates > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate conversations removed", duplicates))
	}

	res.Warnings = capWarnings(warnings)
	return res
}

// normalizeChat applies the per-conversation cleanup rules in place and
// reports whether the chat kept any messages.
func normalizeChat(chat *Chat) bool {
	kept := chat.Messages[:0]
	for _, msg := range chat.Messages {
		msg.Content = cleanText(msg.Content)
		if msg.Content == "" {
			continue
		}
		// Export artifacts: the same turn emitted twice back to back.
		if n := len(kept); n > 0 && kept[n-1].Role == msg.Role && kept[n-1].Content == msg.Content {
			continue
		}
		kept = append(kept, msg)
	}
	if len(kept) > maxMessagesPerChat {
		kept = kept[:maxMessagesPerChat]
	}
	chat.Messages = kept
	if len(chat.Messages) == 0 {
		return false
	}
	reconcileTimes(chat)
	return true
}

// cleanText trims, normalizes line endings, collapses newline runs and
// caps the message length.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > maxMessageLength {
		s = string(runes[:maxMessageLength])
	}
	return s
}

// reconcileTimes sanity-checks the container-level timestamps against the
// message timeline. A stated createdAt later than the last message is a
// producer bug; fall back to the first message's time. Same rule for
// updatedAt against createdAt.
func reconcileTimes(chat *Chat) {
	first := chat.Messages[0].Timestamp
	last := chat.Messages[len(chat.Messages)-1].Timestamp

	if chat.CreatedAt.IsZero() || chat.CreatedAt.After(last) {
		chat.CreatedAt = first
	}
	if chat.UpdatedAt.IsZero() || chat.UpdatedAt.Before(chat.CreatedAt) {
		chat.UpdatedAt = last
	}
}

// chatSignature derives the in-batch dedup signature: message count,
// minute-granularity container timestamps and normalized text samples
// from up to three messages at each end.
func chatSignature(chat *Chat) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|", len(chat.Messages), chat.CreatedAt.Unix()/60, chat.UpdatedAt.Unix()/60)

	n := len(chat.Messages)
	sampled := make(map[int]bool)
	sample := func(i int) {
		if i < 0 || i >= n || sampled[i] {
			return
		}
		sampled[i] = true
		h.Write([]byte(normalizeSample(chat.Messages[i].Content)))
		h.Write([]byte{'|'})
	}
	for i := 0; i < 3; i++ {
		sample(i)
	}
	for i := n - 3; i < n; i++ {
		sample(i)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// normalizeSample lowercases, strips punctuation and squeezes whitespace
// so cosmetic re-export differences don't defeat deduplication.
func normalizeSample(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > signatureSampleLen {
		s = string(runes[:signatureSampleLen])
	}
	return s
}

func capWarnings(warnings []string) []string {
	if len(warnings) <= maxWarnings {
		return warnings
	}
	capped := make([]string, maxWarnings, maxWarnings+1)
	copy(capped, warnings[:maxWarnings])
	return append(capped, fmt.Sprintf("...and %d more warnings", len(warnings)-maxWarnings))
}
