package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/folio/internal/aggregator"
	"github.com/pders01/folio/internal/posts"
	"github.com/pders01/folio/internal/search"
)

const (
	maxLanguageRows = 5
	maxActivityRows = 5
	barWidth        = 20
)

// PostList writes one line per post: date, title and ID.
func PostList(w io.Writer, list []*posts.Post, termWidth int) {
	if len(list) == 0 {
		fmt.Fprintln(w, HelpStyle.Render("No posts"))
		return
	}
	titleWidth := max(wrapWidth(termWidth)-len(dateLayout)-4, 20)
	for _, p := range list {
		date := "          "
		if !p.PublishedAt.IsZero() {
			date = p.PublishedAt.Format(dateLayout)
		}
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		line := TimeStyle.Render(date) + "  " +
			TitleStyle.Render(padRight(truncateEnd(title, titleWidth), titleWidth)) + "  " +
			LabelStyle.Render(p.ID)
		if p.Draft {
			line += " " + DraftStyle.Render("draft")
		}
		fmt.Fprintln(w, line)
	}
}

// SearchResults writes ranked search hits.
func SearchResults(w io.Writer, results []*search.Result, termWidth int) {
	if len(results) == 0 {
		fmt.Fprintln(w, HelpStyle.Render(MsgNoResults))
		return
	}
	width := wrapWidth(termWidth)
	for i, r := range results {
		fmt.Fprintf(w, "%s %s %s\n",
			LabelStyle.Render(fmt.Sprintf("%2d.", i+1)),
			TitleStyle.Render(truncateEnd(r.Title, max(width-12, 20))),
			TimeStyle.Render(fmt.Sprintf("(%.2f)", r.Score)))
		if r.Summary != "" {
			fmt.Fprintln(w, "    "+HelpStyle.Render(truncateEnd(r.Summary, max(width-4, 20))))
		}
	}
	fmt.Fprintln(w, LabelStyle.Render(MsgResultsCount(len(results))))
}

// GitHubSummary writes a boxed overview of the aggregated profile.
func GitHubSummary(w io.Writer, data *aggregator.GitHubData) {
	var sections []string

	if p := data.Profile; p != nil {
		name := p.Login
		if p.Name != "" {
			name = p.Name + " (" + p.Login + ")"
		}
		head := []string{HeaderStyle.Render(name)}
		if p.Bio != "" {
			head = append(head, HelpStyle.Render(p.Bio))
		}
		head = append(head, stats(
			"followers", p.Followers,
			"following", p.Following,
			"public repos", p.PublicRepos,
		))
		sections = append(sections, strings.Join(head, "\n"))
	}

	if r := data.Repositories; r != nil {
		sections = append(sections, HeaderStyle.Render("Repositories")+"\n"+stats(
			"total", r.Total,
			"stars", r.TotalStars,
			"forks", r.TotalForks,
		))
	}

	if c := data.Contributions; c != nil {
		sections = append(sections, HeaderStyle.Render("Contributions")+"\n"+stats(
			"this year", c.Total,
			"current streak", c.CurrentStreak,
			"longest streak", c.LongestStreak,
		))
	}

	if l := data.Languages; l != nil && len(l.Languages) > 0 {
		rows := []string{HeaderStyle.Render("Languages")}
		for i, lang := range l.Languages {
			if i == maxLanguageRows {
				break
			}
			rows = append(rows, languageRow(lang))
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}

	if a := data.Activity; a != nil && len(a.Events) > 0 {
		rows := []string{HeaderStyle.Render("Recent activity")}
		for i, e := range a.Events {
			if i == maxActivityRows {
				break
			}
			rows = append(rows, TimeStyle.Render(e.CreatedAt.Format(dateLayout))+"  "+truncateEnd(e.Summary, 60))
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}

	fmt.Fprintln(w, PanelStyle.Render(strings.Join(sections, "\n\n")))
}

// stats renders label/value pairs on one line.
func stats(pairs ...interface{}) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, ValueStyle.Render(fmt.Sprint(pairs[i+1]))+" "+LabelStyle.Render(fmt.Sprint(pairs[i])))
	}
	return strings.Join(parts, LabelStyle.Render("  ·  "))
}

func languageRow(lang aggregator.Language) string {
	filled := min(max(int(lang.Percentage/100*barWidth), 0), barWidth)
	bar := BarStyle.Render(strings.Repeat("█", filled)) +
		SeparatorStyle.Render(strings.Repeat("░", barWidth-filled))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		padRight(lang.Name, 12), bar, " ",
		ValueStyle.Render(strconv.FormatFloat(lang.Percentage, 'f', 1, 64)+"%"))
}
