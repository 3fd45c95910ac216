package posts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/folio/internal/debuglog"
)

const frontMatterDelim = "+++"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type frontMatter struct {
	ID      string      `toml:"id"`
	Title   string      `toml:"title"`
	Slug    string      `toml:"slug"`
	Summary string      `toml:"summary"`
	URL     string      `toml:"url"`
	Tags    []string    `toml:"tags"`
	Author  string      `toml:"author"`
	Image   string      `toml:"image"`
	Draft   bool        `toml:"draft"`
	Date    interface{} `toml:"date"`
	Updated interface{} `toml:"updated"`
}

// DirSource reads posts from markdown files with TOML front matter:
//
//	+++
//	title = "Hello"
//	date = 2024-03-01
//	tags = ["go"]
//	+++
//	Body in markdown.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (d *DirSource) ListPosts(ctx context.Context) ([]*Post, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("reading posts dir: %w", err)
	}

	var posts []*Post
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(d.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		post, err := ParsePost(strings.TrimSuffix(entry.Name(), ".md"), data)
		if err != nil {
			debuglog.Warnf("skipping post %s: %v", path, err)
			continue
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	return posts, nil
}

// ParsePost splits a markdown document into front matter and body.
// defaultID is used when the front matter names no id.
func ParsePost(defaultID string, data []byte) (*Post, error) {
	header, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := toml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}

	post := &Post{
		ID:      fm.ID,
		Title:   fm.Title,
		Slug:    fm.Slug,
		Summary: fm.Summary,
		Content: strings.TrimSpace(string(body)),
		URL:     fm.URL,
		Tags:    fm.Tags,
		Author:  fm.Author,
		Image:   fm.Image,
		Draft:   fm.Draft,
	}
	if post.ID == "" {
		post.ID = defaultID
	}
	if post.Slug == "" {
		post.Slug = post.ID
	}

	post.PublishedAt = parseDate(fm.Date)
	if fm.Date != nil && post.PublishedAt.IsZero() {
		debuglog.Warnf("post %s: unparseable date %v", post.ID, fm.Date)
	}
	post.UpdatedAt = parseDate(fm.Updated)
	return post, nil
}

func splitFrontMatter(data []byte) (header, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimSpace(lines[0])) != frontMatterDelim {
		return nil, nil, fmt.Errorf("missing front matter")
	}
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if string(bytes.TrimSpace(line)) == frontMatterDelim {
			return data[len(lines[0]):offset], data[offset+len(line):], nil
		}
		offset += len(line)
	}
	return nil, nil, fmt.Errorf("unterminated front matter")
}

// parseDate accepts native TOML dates as well as strings in any of
// dateLayouts. Anything else yields the zero time.
func parseDate(v interface{}) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case toml.LocalDate:
		return d.AsTime(time.UTC)
	case toml.LocalDateTime:
		return d.AsTime(time.UTC)
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
