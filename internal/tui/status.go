package tui

import (
	"fmt"
	"io"
	"strings"
)

// StatusKind indicates severity for status lines.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

var statusMarks = map[StatusKind]string{
	StatusInfo:    "›",
	StatusSuccess: "✓",
	StatusWarn:    "!",
	StatusError:   "✗",
}

const MsgNoResults = "No results"

func MsgImported(title string, count int) string {
	return fmt.Sprintf("Imported '%s' (%d posts)", strings.TrimSpace(title), count)
}

func MsgNotModified(title string) string {
	return fmt.Sprintf("'%s' not modified", strings.TrimSpace(title))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgImportSummary reports a multi-feed import.
func MsgImportSummary(feeds, posts, errors, docCount int) string {
	base := fmt.Sprintf("Imported: %d feeds • %d posts", feeds, posts)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}

// Status writes one marked line in the style of kind.
func Status(w io.Writer, kind StatusKind, msg string) {
	style := HelpStyle
	switch kind {
	case StatusSuccess:
		style = style.Foreground(SuccessColor).Italic(false)
	case StatusWarn:
		style = style.Foreground(HighlightColor).Italic(false)
	case StatusError:
		style = style.Foreground(ErrorColor).Italic(false).Bold(true)
	}
	fmt.Fprintln(w, style.Render(statusMarks[kind]+" "+msg))
}
