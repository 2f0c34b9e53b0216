// Package textclean removes caption markup from transcript text before it is
// embedded.
package textclean

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip returns the text content of s with markup tags removed, entities
// decoded and whitespace runs collapsed to single spaces. Text without
// markup passes through with only whitespace normalized.
func Strip(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF, or malformed input: keep what was read so far
			return collapse(b.String())
		case html.StartTagToken:
			if skipped(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if skipped(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// skipped reports whether the current tag's content is not spoken text
func skipped(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
