package llm

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/thebtf/journalcoach/pkg/models"
)

// ExtractJSONObject returns the first balanced {...} region of text. Braces inside
// JSON strings, including escaped quotes, do not count toward the balance.
func ExtractJSONObject(text string) (string, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end, ok := matchBrace(text, start); ok {
			return text[start : end+1], true
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// TitleSummary is the parsed structured completion.
type TitleSummary struct {
	Title   string
	Summary string
	// Degraded is set when no usable JSON object was found and the raw text
	// became the summary.
	Degraded bool
}

// ParseTitleSummary extracts {title, summary} from a model reply. Without a
// parseable object the whole trimmed reply becomes the summary under UntitledTitle.
func ParseTitleSummary(text string) TitleSummary {
	fallback := TitleSummary{
		Title:    models.UntitledTitle,
		Summary:  strings.TrimSpace(text),
		Degraded: true,
	}

	raw, ok := ExtractJSONObject(text)
	if !ok {
		return fallback
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return fallback
	}

	title := strings.TrimSpace(stringField(obj, "title"))
	if title == "" {
		title = models.UntitledTitle
	}
	return TitleSummary{
		Title:   title,
		Summary: strings.TrimSpace(stringField(obj, "summary")),
	}
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
