package feed

import (
	"context"
	"encoding/xml"
	"time"
)

type atomFeed struct {
	XMLName   xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Subtitle  string      `xml:"subtitle,omitempty"`
	Updated   string      `xml:"updated"`
	Links     []atomLink  `xml:"link"`
	Author    *atomPerson `xml:"author"`
	Generator string      `xml:"generator"`
	Entries   []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomPerson struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomText struct {
	Type string `xml:"type,attr,omitempty"`
	Body string `xml:",chardata"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Links      []atomLink     `xml:"link"`
	Updated    string         `xml:"updated"`
	Published  string         `xml:"published"`
	Author     *atomPerson    `xml:"author"`
	Summary    *atomText      `xml:"summary"`
	Content    *atomText      `xml:"content"`
	Categories []atomCategory `xml:"category"`
}

// GenerateAtom renders an Atom 1.0 document.
func (g *Generator) GenerateAtom(ctx context.Context) ([]byte, error) {
	entries, err := g.Prepare(ctx)
	if err != nil {
		return nil, &GenerationError{Format: "atom", Err: err}
	}

	doc := atomFeed{
		ID:       g.site.Link,
		Title:    g.site.Title,
		Subtitle: g.site.Description,
		Updated:  g.newest(entries, true).Format(time.RFC3339),
		Links: []atomLink{
			{Href: g.feedURL(AtomPath), Rel: "self", Type: "application/atom+xml"},
			{Href: g.site.Link, Rel: "alternate", Type: "text/html"},
		},
		Generator: generatorName,
		Entries:   make([]atomEntry, 0, len(entries)),
	}
	if g.site.Author != "" {
		doc.Author = &atomPerson{Name: g.site.Author, Email: g.site.Email}
	}

	for _, e := range entries {
		entry := atomEntry{
			ID:        e.Link,
			Title:     e.Post.Title,
			Links:     []atomLink{{Href: e.Link, Rel: "alternate", Type: "text/html"}},
			Updated:   e.Updated.Format(time.RFC3339),
			Published: e.Post.PublishedAt.Format(time.RFC3339),
		}
		if e.Post.Author != "" && e.Post.Author != g.site.Author {
			entry.Author = &atomPerson{Name: e.Post.Author}
		}
		if e.Summary != "" {
			entry.Summary = &atomText{Type: "text", Body: e.Summary}
		}
		if e.HTML != "" {
			entry.Content = &atomText{Type: "html", Body: e.HTML}
		}
		if e.Enclosure != nil {
			entry.Links = append(entry.Links, atomLink{Href: e.Enclosure.URL, Rel: "enclosure", Type: e.Enclosure.Type})
		}
		for _, tag := range e.Post.Tags {
			entry.Categories = append(entry.Categories, atomCategory{Term: tag})
		}
		doc.Entries = append(doc.Entries, entry)
	}

	return marshalXML("atom", doc)
}
