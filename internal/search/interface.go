package search

import (
	"context"
	"time"
)

// Searcher is the search API used by the HTTP server and the CLI.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Close() error
}

// Reindexer is implemented by engines that keep an external index.
type Reindexer interface {
	Reindex(ctx context.Context) error
}

// DocCounter reports index size, for logging.
type DocCounter interface {
	DocCount() (int, error)
}

// Result is one matching post.
type Result struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	URL         string    `json:"url,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Score       float64   `json:"score"`
	Matches     []Match   `json:"matches,omitempty"`
}

// Match represents where text was found
type Match struct {
	Field  string  `json:"field"` // "title", "summary", "content", "tags"
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}
