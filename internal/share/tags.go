package share

import (
	"regexp"
	"strings"
)

const maxTags = 8

// tagRules map keyword categories scanned over title+content to fixed
// output tokens. Deterministic by design: no model calls, no scoring.
var tagRules = []struct {
	token   string
	pattern *regexp.Regexp
}{
	{"важно", regexp.MustCompile(`(?i)(срочно|urgent|важно|important|asap|критичн|deadline|дедлайн)`)},
	{"задача", regexp.MustCompile(`(?i)(задач|сделать|нужно|надо|todo|task|fix|пофикс|исправ)`)},
	{"идея", regexp.MustCompile(`(?i)(идея|идеи|idea|придума|предлож|concept|brainstorm)`)},
	{"код", regexp.MustCompile(`(?i)(код|code|баг|bug|api|функци|скрипт|script|python|javascript|typescript|golang|sql|ошибк|error|deploy)`)},
	{"контент", regexp.MustCompile(`(?i)(стать|article|видео|video|пост|post|блог|blog|контент|content|канал)`)},
	{"бизнес", regexp.MustCompile(`(?i)(бизнес|business|клиент|client|деньг|продаж|sale|маркетинг|marketing|стартап|startup|revenue)`)},
}

// InferTags merges explicit tags with structural and keyword-inferred
// ones: the normalized source (when not the generic default), a "link"
// tag when a URL is present, and keyword categories matched over
// title+content. Deduplicated, insertion order preserved, capped at 8.
// Idempotent over the same derived fields.
func InferTags(explicit []string, source, url, title, content string) []string {
	tags := make([]string, 0, maxTags)
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if seen[key] || len(tags) >= maxTags {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, t := range explicit {
		add(t)
	}
	if source != "" && source != DefaultSource {
		add(source)
	}
	if url != "" {
		add("link")
	}
	haystack := title + "\n" + content
	for _, rule := range tagRules {
		if rule.pattern.MatchString(haystack) {
			add(rule.token)
		}
	}
	return tags
}
