// Package search provides full-text search over published posts, either
// with a bleve index or with a scan-based fallback engine.
package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/juju/clock"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/posts"
)

const minQueryLength = 2

// New returns a bleve engine when the index is enabled and the scan engine
// otherwise.
func New(ctx context.Context, cfg config.SearchConfig, source posts.Source) (Searcher, error) {
	if cfg.Enabled {
		eng, err := NewBleveEngine(ctx, source, cfg.IndexPath)
		if err != nil {
			return nil, err
		}
		if n, err := eng.DocCount(); err == nil {
			debuglog.Infof("search: bleve index at %s holds %d posts", cfg.IndexPath, n)
		}
		return eng, nil
	}
	return NewEngine(source), nil
}

// Engine searches posts by scanning the source on every query.
type Engine struct {
	source posts.Source
	clock  clock.Clock
}

func NewEngine(source posts.Source) *Engine {
	return &Engine{source: source, clock: clock.WallClock}
}

func (e *Engine) Close() error { return nil }

// Search scores every eligible post against query and returns the best
// limit matches.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if tooShort(query) {
		return []*Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	all, err := e.source.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	results := []*Result{}
	for _, p := range all {
		if !p.Eligible() {
			continue
		}
		if r := e.searchPost(p, terms, now); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchPost(p *posts.Post, terms []string, now time.Time) *Result {
	var matches []Match
	var total float64

	if s := e.scoreField(p.Title, terms, 4.0); s > 0 {
		matches = append(matches, Match{Field: "title", Text: p.Title, Weight: s})
		total += s
	}
	if s := e.scoreField(p.Summary, terms, 2.0); s > 0 {
		matches = append(matches, Match{Field: "summary", Text: truncate(p.Summary, 150), Weight: s})
		total += s
	}
	if tags := strings.Join(p.Tags, " "); tags != "" {
		if s := e.scoreField(tags, terms, 1.5); s > 0 {
			matches = append(matches, Match{Field: "tags", Text: tags, Weight: s})
			total += s
		}
	}
	if s := e.scoreField(p.Content, terms, 1.0); s > 0 {
		matches = append(matches, Match{Field: "content", Text: e.findBestSnippet(p.Content, terms, 200), Weight: s})
		total += s
	}

	if total == 0 {
		return nil
	}
	total *= 1.0 + calculateRecencyBoost(p.PublishedAt, now)
	return resultFor(p, total, matches)
}

func resultFor(p *posts.Post, score float64, matches []Match) *Result {
	return &Result{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		URL:         p.URL,
		Summary:     p.Summary,
		PublishedAt: p.PublishedAt,
		Score:       score,
		Matches:     matches,
	}
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		termLower := strings.ToLower(term)

		if strings.Contains(lower, termLower) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == termLower:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, termLower) || strings.HasSuffix(word, termLower):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, termLower):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of text holding the most query terms.
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0.0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(window, strings.ToLower(term)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

func tooShort(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryLength
}

// tokenize breaks text into lower-case terms of two or more characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if utf8.RuneCountInString(current.String()) > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text to maxLen runes, ending in an ellipsis when cut.
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

// calculateRecencyBoost gives up to 10% to posts from the last week, fading
// to nothing over a year.
func calculateRecencyBoost(published, now time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := now.Sub(published)
	const week = 7 * 24 * time.Hour
	const year = 365 * 24 * time.Hour
	switch {
	case age <= week:
		return 0.10
	case age >= year:
		return 0
	default:
		return 0.10 * float64(year-age) / float64(year-week)
	}
}
