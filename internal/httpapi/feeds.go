package httpapi

import (
	"context"
	"net/http"

	"github.com/pders01/folio/internal/debuglog"
)

// FeedGenerator renders the three feed formats.
type FeedGenerator interface {
	GenerateRSS(ctx context.Context) ([]byte, error)
	GenerateAtom(ctx context.Context) ([]byte, error)
	GenerateJSONFeed(ctx context.Context) ([]byte, error)
}

const (
	contentTypeRSS  = "application/rss+xml; charset=utf-8"
	contentTypeAtom = "application/atom+xml; charset=utf-8"
	contentTypeJSON = "application/feed+json; charset=utf-8"

	feedCacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"
)

// FeedHandler serves one feed format. Failures are plain text, not the
// JSON envelope.
func FeedHandler(contentType string, generate func(context.Context) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := generate(r.Context())
		if err != nil {
			debuglog.Errorf("feed generation failed: %v", err)
			http.Error(w, "Error generating feed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", feedCacheControl)
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}
