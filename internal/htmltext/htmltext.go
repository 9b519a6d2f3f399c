// Package htmltext extracts plain text from rendered HTML fragments, used
// for description fallbacks in the page index and llms.txt excerpts.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Extract returns the visible text content of an HTML fragment with
// whitespace collapsed. Script and style bodies are skipped.
func Extract(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var parts []string
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.Join(strings.Fields(string(tokenizer.Text())), " "); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// Excerpt extracts text and truncates it to at most maxLen runes on a word
// boundary, appending an ellipsis when cut.
func Excerpt(fragment string, maxLen int) string {
	text := Extract(fragment)
	if maxLen <= 0 || len([]rune(text)) <= maxLen {
		return text
	}
	runes := []rune(text)[:maxLen]
	cut := string(runes)
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

func isInvisible(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}
