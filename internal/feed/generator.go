// Package feed renders the blog's posts as RSS 2.0, Atom 1.0 and JSON
// Feed 1.1 documents.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/media"
	"github.com/pders01/folio/internal/posts"
)

// Paths the feeds are served under, relative to the site link.
const (
	RSSPath  = "/blog/rss.xml"
	AtomPath = "/blog/atom.xml"
	JSONPath = "/blog/feed.json"
)

const generatorName = "folio"

// Entry is a post made ready for serialization.
type Entry struct {
	Post      *posts.Post
	Link      string
	HTML      string
	Summary   string
	Updated   time.Time
	Image     string
	Enclosure *Enclosure
}

type Enclosure struct {
	URL  string
	Type string
}

type Generator struct {
	source        posts.Source
	site          config.SiteConfig
	maxItems      int
	summaryLength int
	clock         clock.Clock
	renderer      *Renderer
	media         *media.TypeDetector
}

// NewGenerator builds a generator over source. A nil clock means the wall
// clock; it only matters for feeds with no posts.
func NewGenerator(source posts.Source, site config.SiteConfig, cfg config.FeedConfig, clk clock.Clock) (*Generator, error) {
	if clk == nil {
		clk = clock.WallClock
	}
	detector, err := media.NewTypeDetector()
	if err != nil {
		return nil, err
	}
	summaryLength := cfg.SummaryLength
	if summaryLength <= 0 {
		summaryLength = 200
	}
	site.Link = strings.TrimRight(site.Link, "/")
	return &Generator{
		source:        source,
		site:          site,
		maxItems:      cfg.MaxItems,
		summaryLength: summaryLength,
		clock:         clk,
		renderer:      NewRenderer(),
		media:         detector,
	}, nil
}

// Prepare loads the posts, drops those that cannot appear in a feed and
// orders the rest newest first, ties broken by ID.
func (g *Generator) Prepare(ctx context.Context) ([]*Entry, error) {
	all, err := g.source.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}

	eligible := make([]*posts.Post, 0, len(all))
	for _, p := range all {
		if !p.Eligible() {
			if p != nil && !p.Draft {
				debuglog.Debugf("feed: skipping post %q (missing title or date)", p.ID)
			}
			continue
		}
		eligible = append(eligible, p)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
	if g.maxItems > 0 && len(eligible) > g.maxItems {
		eligible = eligible[:g.maxItems]
	}

	entries := make([]*Entry, 0, len(eligible))
	for _, p := range eligible {
		entries = append(entries, g.entry(p))
	}
	return entries, nil
}

func (g *Generator) entry(p *posts.Post) *Entry {
	e := &Entry{
		Post:    p,
		Link:    g.permalink(p),
		HTML:    g.renderer.HTML(p.Content),
		Summary: strings.TrimSpace(p.Summary),
		Updated: p.PublishedAt,
	}
	if !p.UpdatedAt.IsZero() && p.UpdatedAt.After(p.PublishedAt) {
		e.Updated = p.UpdatedAt
	}
	if e.Summary == "" {
		e.Summary = excerpt(g.renderer.Text(e.HTML), g.summaryLength)
	}
	if p.Image != "" {
		e.Image = g.absolute(p.Image)
		if mime := g.media.MIMEType(e.Image); mime != "" {
			e.Enclosure = &Enclosure{URL: e.Image, Type: mime}
		}
	}
	return e
}

func (g *Generator) permalink(p *posts.Post) string {
	if p.URL != "" {
		return g.absolute(p.URL)
	}
	slug := p.Slug
	if slug == "" {
		slug = p.ID
	}
	return g.site.Link + "/blog/" + url.PathEscape(slug)
}

// absolute resolves ref against the site link.
func (g *Generator) absolute(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	base, err := url.Parse(g.site.Link + "/")
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func (g *Generator) feedURL(path string) string {
	return g.site.Link + path
}

// newest returns the latest publish date among entries, or now when there
// are none.
func (g *Generator) newest(entries []*Entry, updated bool) time.Time {
	var t time.Time
	for _, e := range entries {
		c := e.Post.PublishedAt
		if updated {
			c = e.Updated
		}
		if c.After(t) {
			t = c
		}
	}
	if t.IsZero() {
		return g.clock.Now()
	}
	return t
}
