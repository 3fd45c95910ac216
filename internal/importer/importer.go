// Package importer pulls posts from external feeds (dev.to, Medium or any
// RSS, Atom or JSON feed) into the bolt post store.
package importer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/juju/clock"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/plugins"
	"github.com/pders01/folio/internal/plugins/hosts"
	"github.com/pders01/folio/internal/posts"
	"github.com/pders01/folio/internal/validation"
)

const (
	maxConcurrentImports = 5
	maxFeedSize          = 10 << 20
)

// Result describes one imported feed.
type Result struct {
	Origin      *posts.Origin
	Imported    int
	NotModified bool
}

type Importer struct {
	store        *posts.Store
	fetcher      *Fetcher
	parser       *Parser
	registry     *plugins.Registry
	urlValidator *validation.FeedURLValidator
	clock        clock.Clock
}

func New(store *posts.Store, cfg config.FeedConfig) *Importer {
	return &Importer{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		registry:     hosts.NewRegistry(cfg.HTTPTimeout),
		urlValidator: validation.NewFeedURLValidator(),
		clock:        clock.WallClock,
	}
}

// SetPermissiveValidation allows local and private hosts, for development
// and tests.
func (im *Importer) SetPermissiveValidation(permissive bool) {
	if permissive {
		im.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		im.urlValidator = validation.NewFeedURLValidator()
	}
}

// SetForceRefresh ignores ETag and Last-Modified on the next fetches.
func (im *Importer) SetForceRefresh(force bool) {
	im.fetcher.SetIgnoreCache(force)
}

// Import validates rawURL, resolves it to a feed through the host plugins
// and stores the feed's posts.
func (im *Importer) Import(ctx context.Context, rawURL string) (*Result, error) {
	normalized, err := im.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	info, err := im.registry.Resolve(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolving feed: %w", err)
	}
	feedURL, err := im.urlValidator.ValidateAndNormalize(info.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resolved feed URL: %w", err)
	}

	id := originID(feedURL)
	origin, err := im.store.GetOrigin(id)
	if errors.Is(err, posts.ErrNotFound) {
		origin = &posts.Origin{ID: id, URL: feedURL, Title: info.Title}
	} else if err != nil {
		return nil, fmt.Errorf("loading origin: %w", err)
	}

	return im.importOrigin(ctx, origin, info.Author)
}

// ImportAll imports urls with a bounded number of workers. Results are in
// input order; a failed URL leaves a nil result and contributes to the
// joined error.
func (im *Importer) ImportAll(ctx context.Context, urls []string) ([]*Result, error) {
	return im.run(urls, func(u string) (*Result, error) {
		return im.Import(ctx, u)
	})
}

// Refresh re-fetches every stored origin.
func (im *Importer) Refresh(ctx context.Context) ([]*Result, error) {
	origins, err := im.store.ListOrigins()
	if err != nil {
		return nil, fmt.Errorf("listing origins: %w", err)
	}
	byURL := make(map[string]*posts.Origin, len(origins))
	urls := make([]string, 0, len(origins))
	for _, o := range origins {
		byURL[o.URL] = o
		urls = append(urls, o.URL)
	}
	return im.run(urls, func(u string) (*Result, error) {
		return im.importOrigin(ctx, byURL[u], "")
	})
}

func (im *Importer) run(urls []string, fn func(string) (*Result, error)) ([]*Result, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	type job struct {
		idx int
		url string
	}
	jobs := make(chan job, len(urls))
	results := make([]*Result, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrentImports && i < len(urls); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := fn(j.url)
				if err != nil {
					errs[j.idx] = fmt.Errorf("%s: %w", j.url, err)
					continue
				}
				results[j.idx] = res
			}
		}()
	}

	for i, u := range urls {
		jobs <- job{idx: i, url: u}
	}
	close(jobs)
	wg.Wait()

	return results, errors.Join(errs...)
}

func (im *Importer) importOrigin(ctx context.Context, origin *posts.Origin, author string) (*Result, error) {
	log := debuglog.WithFields(map[string]interface{}{"origin": origin.URL})

	resp, updated, err := im.fetcher.Fetch(ctx, origin)
	if err != nil {
		return nil, err
	}
	if !updated {
		origin.LastFetched = im.clock.Now()
		if err := im.store.SaveOrigin(origin); err != nil {
			return nil, fmt.Errorf("saving origin: %w", err)
		}
		log.Debugf("not modified")
		return &Result{Origin: origin, NotModified: true}, nil
	}
	defer resp.Body.Close()

	items, err := im.parser.Parse(io.LimitReader(resp.Body, maxFeedSize), origin, author)
	if err != nil {
		return nil, err
	}
	if origin.Title == "" {
		origin.Title = hostOf(origin.URL)
	}
	im.fetcher.UpdateOrigin(origin, resp, im.clock.Now())

	if err := im.store.SaveOrigin(origin); err != nil {
		return nil, fmt.Errorf("saving origin: %w", err)
	}
	if err := im.store.SavePosts(items); err != nil {
		return nil, fmt.Errorf("saving posts: %w", err)
	}

	log.Infof("imported %d posts", len(items))
	return &Result{Origin: origin, Imported: len(items)}, nil
}

func originID(feedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(feedURL)))
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return "Unknown Feed"
}
