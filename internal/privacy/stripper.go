// Package privacy removes text the user marked private before it leaves the machine.
package privacy

import (
	"regexp"
	"strings"
)

// privateTagRegex matches <private>...</private> sections, across lines.
var privateTagRegex = regexp.MustCompile(`(?is)<private>.*?</private>`)

// StripPrivateTags removes all <private>...</private> content from text.
// An unmatched tag is left as written.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// IsEntirelyPrivate reports whether nothing but whitespace remains after stripping.
func IsEntirelyPrivate(text string) bool {
	return strings.TrimSpace(StripPrivateTags(text)) == ""
}

// Clean strips private sections and surrounding whitespace. Use it on every piece of
// journal text before it is sent to a model.
func Clean(text string) string {
	return strings.TrimSpace(StripPrivateTags(text))
}
