// Package sanitize strips HTML markup from provider-supplied article text.
// Upstream summaries frequently embed tags and entities that must not reach
// storage or keyword classification.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements are elements whose text content is never article prose.
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
}

// Text returns the plain text of s with all HTML markup removed. Entities
// are decoded and runs of whitespace are collapsed to a single space. Input
// without markup passes through unchanged apart from whitespace collapsing.
func Text(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// collapse trims the string and squeezes internal whitespace runs.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
