package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/folio/internal/posts"
)

type BleveEngine struct {
	source posts.Source
	idx    bleve.Index
}

// NewBleveEngine creates or opens the index at indexPath and brings it in
// line with source.
func NewBleveEngine(ctx context.Context, source posts.Source, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{source: source, idx: idx}
	if err := be.Reindex(ctx); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = false

	stored := bleve.NewTextFieldMapping()
	stored.Analyzer = keyword.Name
	stored.Store = true
	stored.Index = false

	published := bleve.NewDateTimeFieldMapping()
	published.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("slug", stored)
	dm.AddFieldMappingsAt("url", stored)
	dm.AddFieldMappingsAt("published_at", published)

	im.DefaultMapping = dm
	return im
}

func postDoc(p *posts.Post) map[string]any {
	return map[string]any{
		"title":        p.Title,
		"summary":      p.Summary,
		"content":      p.Content,
		"tags":         strings.Join(p.Tags, " "),
		"slug":         p.Slug,
		"url":          p.URL,
		"published_at": p.PublishedAt,
	}
}

// Reindex indexes every eligible post and drops documents whose post is
// gone or no longer eligible.
func (b *BleveEngine) Reindex(ctx context.Context) error {
	all, err := b.source.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("loading posts: %w", err)
	}

	keep := make(map[string]bool, len(all))
	batch := b.idx.NewBatch()
	for _, p := range all {
		if !p.Eligible() {
			continue
		}
		keep[p.ID] = true
		if err := batch.Index(p.ID, postDoc(p)); err != nil {
			return fmt.Errorf("indexing %s: %w", p.ID, err)
		}
	}

	existing, err := b.docIDs()
	if err != nil {
		return err
	}
	for _, id := range existing {
		if !keep[id] {
			batch.Delete(id)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) docIDs() ([]string, error) {
	n, err := b.DocCount()
	if err != nil || n == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), n, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("listing indexed posts: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (b *BleveEngine) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if tooShort(query) {
		return []*Result{}, nil
	}
	// OR of per-term match and prefix queries, weighted by field
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 4.0},
		{"summary", 2.0},
		{"tags", 1.5},
		{"content", 1.0},
	}
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.8)
			qs = append(qs, mq, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "summary", "slug", "url", "published_at"}
	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{ID: h.ID, Score: h.Score}
		r.Title, _ = h.Fields["title"].(string)
		r.Summary, _ = h.Fields["summary"].(string)
		r.Slug, _ = h.Fields["slug"].(string)
		r.URL, _ = h.Fields["url"].(string)
		if s, ok := h.Fields["published_at"].(string); ok {
			r.PublishedAt, _ = time.Parse(time.RFC3339, s)
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(n), nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
