package pipeline

import (
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through goldmark unchanged and are turned into <mark> tags
// after HTML generation, so ==text== works without raw HTML enabled.
const (
	MarkStartPlaceholder = "\uE000" // U+E000, first Private Use Area code point
	MarkEndPlaceholder   = "\uE001" // U+E001
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==([^=\n]+?)==`)
)

// Preprocess normalizes line endings and, if marks is set, replaces
// ==text== with highlight placeholders.
func Preprocess(content string, marks bool) string {
	content = NormalizeLineEndings(content)
	if marks {
		content = highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	}
	return content
}

// NormalizeLineEndings converts \r\n and \r to \n.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
