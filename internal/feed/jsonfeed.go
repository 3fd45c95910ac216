package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const jsonFeedVersion = "https://jsonfeed.org/version/1.1"

type jsonFeed struct {
	Version     string       `json:"version"`
	Title       string       `json:"title"`
	HomePageURL string       `json:"home_page_url"`
	FeedURL     string       `json:"feed_url"`
	Description string       `json:"description,omitempty"`
	Language    string       `json:"language,omitempty"`
	Authors     []jsonAuthor `json:"authors,omitempty"`
	Items       []jsonItem   `json:"items"`
}

type jsonAuthor struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type jsonItem struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	Title         string           `json:"title"`
	ContentHTML   string           `json:"content_html,omitempty"`
	ContentText   string           `json:"content_text,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Image         string           `json:"image,omitempty"`
	DatePublished string           `json:"date_published"`
	DateModified  string           `json:"date_modified,omitempty"`
	Authors       []jsonAuthor     `json:"authors,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Attachments   []jsonAttachment `json:"attachments,omitempty"`
}

type jsonAttachment struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
}

// GenerateJSONFeed renders a JSON Feed 1.1 document.
func (g *Generator) GenerateJSONFeed(ctx context.Context) ([]byte, error) {
	entries, err := g.Prepare(ctx)
	if err != nil {
		return nil, &GenerationError{Format: "json", Err: err}
	}

	doc := jsonFeed{
		Version:     jsonFeedVersion,
		Title:       g.site.Title,
		HomePageURL: g.site.Link,
		FeedURL:     g.feedURL(JSONPath),
		Description: g.site.Description,
		Language:    g.site.Language,
		Items:       make([]jsonItem, 0, len(entries)),
	}
	if g.site.Author != "" {
		doc.Authors = []jsonAuthor{{Name: g.site.Author, URL: g.site.Link}}
	}

	for _, e := range entries {
		item := jsonItem{
			ID:            e.Link,
			URL:           e.Link,
			Title:         e.Post.Title,
			ContentHTML:   e.HTML,
			Summary:       e.Summary,
			Image:         e.Image,
			DatePublished: e.Post.PublishedAt.Format(time.RFC3339),
			Tags:          e.Post.Tags,
		}
		// an item needs content_html or content_text
		if item.ContentHTML == "" {
			item.ContentText = e.Summary
		}
		if !e.Updated.Equal(e.Post.PublishedAt) {
			item.DateModified = e.Updated.Format(time.RFC3339)
		}
		if e.Post.Author != "" && e.Post.Author != g.site.Author {
			item.Authors = []jsonAuthor{{Name: e.Post.Author}}
		}
		if e.Enclosure != nil {
			item.Attachments = []jsonAttachment{{URL: e.Enclosure.URL, MIMEType: e.Enclosure.Type}}
		}
		doc.Items = append(doc.Items, item)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, &GenerationError{Format: "json", Err: fmt.Errorf("encoding json: %w", err)}
	}
	return buf.Bytes(), nil
}
