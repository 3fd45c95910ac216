package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type rssDoc struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	DCNS      string     `xml:"xmlns:dc,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language,omitempty"`
	LastBuildDate string      `xml:"lastBuildDate"`
	Generator     string      `xml:"generator"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Description string        `xml:"description"`
	Author      string        `xml:"author,omitempty"`
	Creator     string        `xml:"dc:creator,omitempty"`
	Categories  []string      `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
	Content     *cdata        `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// GenerateRSS renders an RSS 2.0 document.
func (g *Generator) GenerateRSS(ctx context.Context) ([]byte, error) {
	entries, err := g.Prepare(ctx)
	if err != nil {
		return nil, &GenerationError{Format: "rss", Err: err}
	}

	doc := rssDoc{
		Version:   "2.0",
		AtomNS:    "http://www.w3.org/2005/Atom",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		DCNS:      "http://purl.org/dc/elements/1.1/",
		Channel: rssChannel{
			Title:         g.site.Title,
			Link:          g.site.Link,
			Description:   g.site.Description,
			Language:      g.site.Language,
			LastBuildDate: g.newest(entries, false).Format(time.RFC1123Z),
			Generator:     generatorName,
			AtomLink: rssAtomLink{
				Href: g.feedURL(RSSPath),
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: make([]rssItem, 0, len(entries)),
		},
	}

	for _, e := range entries {
		item := rssItem{
			Title:       e.Post.Title,
			Link:        e.Link,
			GUID:        rssGUID{IsPermaLink: true, Value: e.Link},
			PubDate:     e.Post.PublishedAt.Format(time.RFC1123Z),
			Description: e.Summary,
			Categories:  e.Post.Tags,
		}
		author := g.author(e)
		if g.site.Email != "" && author != "" {
			item.Author = g.site.Email + " (" + author + ")"
		} else {
			item.Creator = author
		}
		if e.Enclosure != nil {
			item.Enclosure = &rssEnclosure{URL: e.Enclosure.URL, Type: e.Enclosure.Type}
		}
		if e.HTML != "" {
			item.Content = &cdata{Text: xmlChars(e.HTML)}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	return marshalXML("rss", doc)
}

func (g *Generator) author(e *Entry) string {
	if e.Post.Author != "" {
		return e.Post.Author
	}
	return g.site.Author
}

// xmlChars drops runes outside the XML 1.0 Char production. CDATA is
// written verbatim, so these would otherwise break the whole document.
func xmlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF,
			r >= 0xE000 && r <= 0xFFFD,
			r >= 0x10000 && r <= 0x10FFFF:
			if r == utf8.RuneError {
				return -1
			}
			return r
		}
		return -1
	}, s)
}

func marshalXML(format string, v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, &GenerationError{Format: format, Err: fmt.Errorf("encoding xml: %w", err)}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
