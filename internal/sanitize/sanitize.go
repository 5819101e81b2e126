// Package sanitize turns generated markdown into plain text suitable for
// WhatsApp messages and Telegram replies.
package sanitize

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	listWrapRe    = regexp.MustCompile(`</?[uo]l>\n?`)
	listCloseRe   = regexp.MustCompile(`</li>\n?`)
	listOpenRe    = regexp.MustCompile(`<li>`)
	blockTagRe    = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>`)
	blankLinesRe  = regexp.MustCompile(`\n\s*\n+`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
)

// Policy strips HTML and markdown from text.
type Policy struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewPlainTextPolicy creates a Policy that keeps only text and line structure.
func NewPlainTextPolicy() *Policy {
	return &Policy{
		policy:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// SanitizeText renders text as markdown, then drops every tag. Paragraphs
// and list items survive as line breaks; entities are unescaped.
func (p *Policy) SanitizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return strings.TrimSpace(text)
	}

	htmlText := listWrapRe.ReplaceAllString(buf.String(), "")
	htmlText = listCloseRe.ReplaceAllString(htmlText, "\n")
	htmlText = listOpenRe.ReplaceAllString(htmlText, "- ")
	htmlText = blockTagRe.ReplaceAllString(htmlText, "\n")

	sanitized := p.policy.Sanitize(htmlText)
	sanitized = html.UnescapeString(sanitized)
	sanitized = trailingSpace.ReplaceAllString(sanitized, "\n")
	sanitized = blankLinesRe.ReplaceAllString(sanitized, "\n\n")
	return strings.TrimSpace(sanitized)
}

// Script cleans one generated outreach message: markup is removed and a
// pair of wrapping quotes, which models like to add, is dropped.
func (p *Policy) Script(text string) string {
	out := p.SanitizeText(text)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(out) >= len(q[0])+len(q[1]) && strings.HasPrefix(out, q[0]) && strings.HasSuffix(out, q[1]) {
			out = strings.TrimSpace(out[len(q[0]) : len(out)-len(q[1])])
			break
		}
	}
	return out
}
