package posts

import (
	"context"
	"strings"
	"time"
)

// Post is a blog post record as read by the feed generator.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	Image       string    `json:"image"`
	Draft       bool      `json:"draft"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// OriginID is set on posts imported from an external feed.
	OriginID string `json:"origin_id,omitempty"`
}

// Eligible reports whether the post may appear in a feed.
func (p *Post) Eligible() bool {
	return p != nil && !p.Draft && strings.TrimSpace(p.Title) != "" && !p.PublishedAt.IsZero()
}

// Origin is an external feed that posts were imported from.
type Origin struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LastFetched  time.Time `json:"last_fetched"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
}

// Source yields the current set of posts.
type Source interface {
	ListPosts(ctx context.Context) ([]*Post, error)
}
