package feed

import (
	"bytes"
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns markdown post bodies into sanitized HTML and plain text.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// HTML renders markdown and sanitizes the result. Content that fails to
// render falls back to its escaped source.
func (r *Renderer) HTML(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "<p>" + html.EscapeString(markdown) + "</p>"
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String()))
}

// Text strips all markup from rendered HTML and collapses whitespace.
func (r *Renderer) Text(renderedHTML string) string {
	stripped := html.UnescapeString(r.strict.Sanitize(renderedHTML))
	return strings.Join(strings.Fields(stripped), " ")
}

// excerpt shortens text to at most limit characters, cutting at a word
// boundary where one is near and appending an ellipsis.
func excerpt(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := limit - 1
	for i := cut; i > cut*3/4; i-- {
		if unicode.IsSpace(r[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(r[:cut]), unicode.IsSpace) + "…"
}
