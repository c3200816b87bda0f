package encoding

import (
	"html"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
)

var (
	blockBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</(?:p|div|tr|li|h[1-6]|blockquote)>`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// HTMLToText renders an HTML body to plain text, keeping line breaks at
// block-level tags. Falls back to a simple tag strip when the renderer
// rejects the input.
func HTMLToText(htmlBody string) string {
	text, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true})
	if err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(stripTags(htmlBody))
}

func stripTags(htmlBody string) string {
	text := blockBreakPattern.ReplaceAllString(htmlBody, "\n")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return blankRunPattern.ReplaceAllString(text, "\n\n")
}
