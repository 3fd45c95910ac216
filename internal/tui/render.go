package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/folio/internal/posts"
)

const dateLayout = "2006-01-02"

// wrapWidth picks a readable word wrap for a terminal of the given width.
func wrapWidth(termWidth int) int {
	if termWidth <= 0 {
		return 80
	}
	if termWidth < 50 {
		return max(termWidth-4, 20)
	}
	return min(max(termWidth*9/10, 40), 120)
}

// MarkdownRenderer renders post bodies with glamour, rebuilding the
// renderer only when the wrap width moves noticeably.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func (m *MarkdownRenderer) get(termWidth int) (*glamour.TermRenderer, error) {
	w := wrapWidth(termWidth)
	if m.renderer == nil || abs(m.width-w) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(w),
		)
		if err != nil {
			return nil, fmt.Errorf("creating markdown renderer: %w", err)
		}
		m.renderer = r
		m.width = w
	}
	return m.renderer, nil
}

// Render returns md formatted for a terminal termWidth columns wide.
func (m *MarkdownRenderer) Render(md string, termWidth int) (string, error) {
	r, err := m.get(termWidth)
	if err != nil {
		return "", err
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

// RenderPost writes a post header and its rendered body to w.
func (m *MarkdownRenderer) RenderPost(w io.Writer, p *posts.Post, termWidth int) error {
	fmt.Fprintln(w, TitleStyle.Render(p.Title))

	meta := []string{}
	if !p.PublishedAt.IsZero() {
		meta = append(meta, TimeStyle.Render(p.PublishedAt.Format(dateLayout)))
	}
	if p.Author != "" {
		meta = append(meta, LabelStyle.Render("by "+p.Author))
	}
	if p.Draft {
		meta = append(meta, DraftStyle.Render("draft"))
	}
	if len(meta) > 0 {
		fmt.Fprintln(w, strings.Join(meta, LabelStyle.Render(" · ")))
	}
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = TagStyle.Render("#" + t)
		}
		fmt.Fprintln(w, strings.Join(tags, " "))
	}
	if p.URL != "" {
		fmt.Fprintln(w, LabelStyle.Render(truncateMiddle(p.URL, wrapWidth(termWidth))))
	}

	body, err := m.Render(p.Content, termWidth)
	if err != nil {
		return err
	}
	fmt.Fprint(w, body)
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
