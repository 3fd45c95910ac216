package importer

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/posts"
)

const (
	defaultUserAgent  = "folio/1.0 (feed importer; github.com/pders01/folio)"
	defaultTimeout    = 30 * time.Second
	defaultRetryAfter = 15 * time.Minute
)

// RateLimitError is returned when a feed host answers 429.
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s, retry after %s", e.URL, e.RetryAfter)
}

type Fetcher struct {
	client      *http.Client
	userAgent   string
	ignoreCache bool
}

func NewFetcher(cfg config.FeedConfig) *Fetcher {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch requests origin.URL. A nil response with updated=false means the
// server answered 304 Not Modified.
func (f *Fetcher) Fetch(ctx context.Context, origin *posts.Origin) (*http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	if !f.ignoreCache {
		if origin.ETag != "" {
			req.Header.Set("If-None-Match", origin.ETag)
		}
		if origin.LastModified != "" {
			req.Header.Set("If-Modified-Since", origin.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching feed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		resp.Body.Close()
		return nil, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, false, &RateLimitError{URL: origin.URL, RetryAfter: RetryAfter(resp)}
	case resp.StatusCode >= 400:
		resp.Body.Close()
		return nil, false, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return resp, true, nil
}

// UpdateOrigin records the validators of resp on origin.
func (f *Fetcher) UpdateOrigin(origin *posts.Origin, resp *http.Response, now time.Time) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		origin.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		origin.LastModified = lastMod
	}
	origin.LastFetched = now
}

// RetryAfter reads the Retry-After header in seconds, defaulting to 15
// minutes.
func RetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
