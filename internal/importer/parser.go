package importer

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/posts"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse reads an RSS, Atom or JSON feed into posts belonging to origin.
// The origin's title and description are filled in when empty. author is
// used for items that name none.
func (p *Parser) Parse(r io.Reader, origin *posts.Origin, author string) ([]*posts.Post, error) {
	feed, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	if origin.Title == "" {
		origin.Title = strings.TrimSpace(feed.Title)
	}
	if origin.Description == "" {
		origin.Description = strings.TrimSpace(feed.Description)
	}
	if author == "" && feed.Author != nil {
		author = feed.Author.Name
	}

	out := make([]*posts.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		out = append(out, convertItem(item, origin.ID, author))
	}
	return out, nil
}

func convertItem(item *gofeed.Item, originID, author string) *posts.Post {
	id := generateID(originID, item)
	body := item.Content
	summary := ""
	if body == "" {
		body = item.Description
	} else {
		summary = plainText(item.Description)
	}

	post := &posts.Post{
		ID:       id,
		Title:    strings.TrimSpace(item.Title),
		Slug:     slugFromLink(item.Link, id),
		Summary:  summary,
		Content:  toMarkdown(body),
		URL:      item.Link,
		Tags:     item.Categories,
		Author:   itemAuthor(item, author),
		Image:    coverImage(item, body),
		OriginID: originID,
	}
	if item.PublishedParsed != nil {
		post.PublishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		post.PublishedAt = item.UpdatedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		post.UpdatedAt = item.UpdatedParsed.UTC()
	}
	return post
}

// generateID prefixes the item's GUID (or link) with the origin. Items with
// neither get a random ID.
func generateID(originID string, item *gofeed.Item) string {
	prefix := originID
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = uuid.NewString()
	}
	return prefix + ":" + key
}

func slugFromLink(link, fallback string) string {
	if u, err := url.Parse(link); err == nil {
		if base := path.Base(strings.TrimRight(u.Path, "/")); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return fallback
}

func itemAuthor(item *gofeed.Item, fallback string) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return fallback
}

func toMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		debuglog.Warnf("importer: converting html to markdown: %v", err)
		return html
	}
	return strings.TrimSpace(md)
}

func plainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// coverImage prefers the item image, then an image enclosure, then the first
// <img> in the body.
func coverImage(item *gofeed.Item, body string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}
