// Package tui renders folio's command output for the terminal: styled
// summaries with lipgloss and markdown posts with glamour.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const AppName = "folio"

// LogoLines is the block-letter wordmark.
var LogoLines = []string{
	"▄▄▄▄▄  ▄▄▄▄  ▄      ▄▄▄  ▄▄▄▄ ",
	"██    ██  ██ ██     ███ ██  ██",
	"████  ██  ██ ██     ███ ██  ██",
	"██    ██  ██ ██     ███ ██  ██",
	"██     ▀▀▀▀  ▀▀▀▀▀ ▀▀▀  ▀▀▀▀ ",
}

const CompactLogo = `folio ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#FF6B6B"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B") // coral
	SecondaryColor = lipgloss.Color("#4ECDC4") // teal
	AccentColor    = lipgloss.Color("#95E1D3") // mint

	TextColor  = lipgloss.Color("#EAEAEA")
	MutedColor = lipgloss.Color("#94A3B8")

	HighlightColor = lipgloss.Color("#FFE66D")
	ErrorColor     = lipgloss.Color("#EF4444")
	SuccessColor   = lipgloss.Color("#10B981")
)

var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(HighlightColor).
			Bold(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Faint(true)

	TagStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	DraftStyle = lipgloss.NewStyle().
			Foreground(HighlightColor).
			Italic(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	BarStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 1)
)

// ShowBanner writes the boxed logo and version tagline to w.
func ShowBanner(w io.Writer, version string) {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    Blog feeds & GitHub profile"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}
	box := lipgloss.NewStyle().
		Border(border).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))

	fmt.Fprintln(w, lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(box))
	fmt.Fprintln(w, lipgloss.NewStyle().Width(70).Align(lipgloss.Center).
		Render(SeparatorStyle.Render("◆ ◇ ◆ ◇ ◆")))
}
