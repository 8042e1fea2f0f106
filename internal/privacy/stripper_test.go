package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPrivateTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no tags",
			input:    "Went for a run.",
			expected: "Went for a run.",
		},
		{
			name:     "single private tag",
			input:    "Met <private>Dr. Lee</private> today",
			expected: "Met  today",
		},
		{
			name:     "multiple private tags",
			input:    "A <private>one</private> B <private>two</private> C",
			expected: "A  B  C",
		},
		{
			name:     "multiline private tag",
			input:    "Before <private>\nline one\nline two\n</private> after",
			expected: "Before  after",
		},
		{
			name:     "uppercase tag",
			input:    "Rent <PRIVATE>1450</PRIVATE> paid",
			expected: "Rent  paid",
		},
		{
			name:     "unmatched opening tag",
			input:    "Hello <private>unclosed",
			expected: "Hello <private>unclosed",
		},
		{
			name:     "unmatched closing tag",
			input:    "Hello </private> world",
			expected: "Hello </private> world",
		},
		{
			name:     "html-like content untouched",
			input:    "Fixed the <div> layout",
			expected: "Fixed the <div> layout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripPrivateTags(tt.input))
		})
	}
}

func TestIsEntirelyPrivate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "plain text", input: "Shipped the release", expected: false},
		{name: "entirely private", input: "<private>all of it</private>", expected: true},
		{name: "private with whitespace", input: "  <private>x</private>\n", expected: true},
		{name: "mixed", input: "<private>x</private> visible", expected: false},
		{name: "empty", input: "", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsEntirelyPrivate(tt.input))
		})
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Hello  world", Clean("  Hello <private>secret</private> world  \n"))
	assert.Equal(t, "", Clean("<private>secret</private>"))

	long := "Hello <private>" + strings.Repeat("x", 10000) + "</private> world"
	assert.Equal(t, "Hello  world", Clean(long))
}
