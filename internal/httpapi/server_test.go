package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/folio/internal/aggregator"
	"github.com/pders01/folio/internal/cache"
	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/feed"
	"github.com/pders01/folio/internal/github"
	"github.com/pders01/folio/internal/posts"
	"github.com/pders01/folio/internal/search"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeUpstream struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{calls: map[string]int{}, errs: map[string]error{}}
}

func (f *fakeUpstream) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeUpstream) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUpstream) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeUpstream) Profile(context.Context) (*github.Profile, error) {
	if err := f.record("profile"); err != nil {
		return nil, err
	}
	return &github.Profile{Login: "octocat", Name: "The Octocat"}, nil
}

func (f *fakeUpstream) Repositories(context.Context) ([]github.Repository, error) {
	if err := f.record("repositories"); err != nil {
		return nil, err
	}
	return []github.Repository{{Name: "hello", FullName: "octocat/hello", StargazersCount: 3, PushedAt: now}}, nil
}

func (f *fakeUpstream) RepoLanguages(context.Context, string) (map[string]int64, error) {
	if err := f.record("languages"); err != nil {
		return nil, err
	}
	return map[string]int64{"Go": 100}, nil
}

func (f *fakeUpstream) Contributions(context.Context) (*github.ContributionCalendar, error) {
	if err := f.record("contributions"); err != nil {
		return nil, err
	}
	return &github.ContributionCalendar{Total: 2, Weeks: []github.ContributionWeek{
		{Days: []github.ContributionDay{{Date: "2024-05-31", Count: 1}, {Date: "2024-06-01", Count: 1}}},
	}}, nil
}

func (f *fakeUpstream) Events(context.Context) ([]github.Event, error) {
	if err := f.record("events"); err != nil {
		return nil, err
	}
	return []github.Event{}, nil
}

func (f *fakeUpstream) RateLimit(context.Context) (*github.RateLimit, error) {
	if err := f.record("rate_limit"); err != nil {
		return nil, err
	}
	return &github.RateLimit{Limit: 5000, Remaining: 4999, Used: 1, Reset: now.Add(time.Hour)}, nil
}

type postList []*posts.Post

func (l postList) ListPosts(context.Context) ([]*posts.Post, error) { return l, nil }

type brokenSource struct{}

func (brokenSource) ListPosts(context.Context) ([]*posts.Post, error) {
	return nil, errors.New("posts unavailable")
}

type panickingFeeds struct{}

func (panickingFeeds) GenerateRSS(context.Context) ([]byte, error)      { panic("boom") }
func (panickingFeeds) GenerateAtom(context.Context) ([]byte, error)     { panic("boom") }
func (panickingFeeds) GenerateJSONFeed(context.Context) ([]byte, error) { panic("boom") }

func blogPosts() postList {
	return postList{
		{ID: "jan", Title: "January", Content: "Golang in **January**", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "mar", Title: "March", Content: "March post", PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "feb", Title: "February", Content: "February post", PublishedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "untitled", Content: "no title", PublishedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func newTestServer(t *testing.T, up *fakeUpstream, source posts.Source) http.Handler {
	t.Helper()
	cfg := config.TestConfig()
	c := cache.New(cache.NewMemoryStore(), testclock.NewClock(now), time.Minute)
	gen, err := feed.NewGenerator(source, cfg.Site, cfg.Feed, testclock.NewClock(now))
	require.NoError(t, err)
	return NewServer(cfg.Server, Deps{
		GitHub: aggregator.New(up, c, 5),
		Feeds:  gen,
		Search: search.NewEngine(source),
	}).Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGitHubTypes(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), blogPosts())

	tests := []struct {
		query string
		key   string
	}{
		{"?type=profile", "login"},
		{"?type=repositories", "total_stars"},
		{"?type=contributions", "current_streak"},
		{"?type=languages", "total_bytes"},
		{"?type=activity", "events"},
		{"?type=all", "profile"},
		{"", "languages"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(h, http.MethodGet, "/api/github"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

			body := decode(t, rec)
			assert.Equal(t, true, body["success"])
			data, ok := body["data"].(map[string]interface{})
			require.True(t, ok, "data should be an object")
			assert.Contains(t, data, tt.key)
		})
	}
}

func TestGitHubInvalidType(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), blogPosts())

	rec := do(h, http.MethodGet, "/api/github?type=followers", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid type", body["error"])
	assert.Equal(t, float64(400), body["statusCode"])
}

func TestGitHubCachingAndClear(t *testing.T) {
	up := newFakeUpstream()
	h := newTestServer(t, up, blogPosts())

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodGet, "/api/github?type=profile", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, up.count("profile"), "second request within TTL should be served from cache")

	rec := do(h, http.MethodPost, "/api/github", `{"action":"clear-cache"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])

	rec = do(h, http.MethodGet, "/api/github?type=profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, up.count("profile"))
}

func TestGitHubUpstreamForbidden(t *testing.T) {
	up := newFakeUpstream()
	up.fail("profile", &github.APIError{StatusCode: http.StatusForbidden, Message: "API rate limit exceeded", URL: "/users/octocat"})
	h := newTestServer(t, up, blogPosts())

	rec := do(h, http.MethodGet, "/api/github?type=profile", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(403), body["statusCode"])
	assert.Contains(t, body["error"], "API rate limit exceeded")
}

func TestGitHubAggregateFailsWhole(t *testing.T) {
	up := newFakeUpstream()
	up.fail("events", &github.APIError{StatusCode: http.StatusBadGateway, Message: "bad gateway"})
	h := newTestServer(t, up, blogPosts())

	rec := do(h, http.MethodGet, "/api/github?type=all", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Nil(t, body["data"])
}

func TestGitHubUnknownFailureIs500(t *testing.T) {
	up := newFakeUpstream()
	up.fail("profile", &github.APIError{Message: "connection refused"})
	h := newTestServer(t, up, blogPosts())

	rec := do(h, http.MethodGet, "/api/github?type=profile", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(500), decode(t, rec)["statusCode"])
}

func TestGitHubActions(t *testing.T) {
	up := newFakeUpstream()
	h := newTestServer(t, up, blogPosts())

	t.Run("rate limit is never cached", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rec := do(h, http.MethodPost, "/api/github", `{"action":"rate-limit"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			data := decode(t, rec)["data"].(map[string]interface{})
			assert.Equal(t, float64(4999), data["remaining"])
		}
		assert.Equal(t, 2, up.count("rate_limit"))
	})

	for _, body := range []string{`{"action":"explode"}`, `{}`, `not json`} {
		t.Run("invalid "+body, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/github", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, "Invalid action", resp["error"])
		})
	}
}

func TestFeedRoutes(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), blogPosts())

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{feed.RSSPath, "application/rss+xml; charset=utf-8", "<rss"},
		{feed.AtomPath, "application/atom+xml; charset=utf-8", "<feed"},
		{feed.JSONPath, "application/feed+json; charset=utf-8", `"version": "https://jsonfeed.org/version/1.1"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "public, s-maxage=3600, stale-while-revalidate=86400", rec.Header().Get("Cache-Control"))

			body := rec.Body.String()
			assert.Contains(t, body, tt.contains)
			assert.NotContains(t, body, "no title")
			mar, feb, jan := strings.Index(body, "March"), strings.Index(body, "February"), strings.Index(body, "January")
			assert.True(t, mar >= 0 && mar < feb && feb < jan, "posts should be newest first")
		})
	}
}

func TestFeedFailureIsPlainText(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), brokenSource{})

	for _, path := range []string{feed.RSSPath, feed.AtomPath, feed.JSONPath} {
		rec := do(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"), path)
		assert.Empty(t, rec.Header().Get("Cache-Control"), path)
	}
}

func TestSearchRoute(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), blogPosts())

	rec := do(h, http.MethodGet, "/api/search?q=golang", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	results := body["data"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "jan", results[0].(map[string]interface{})["id"])

	rec = do(h, http.MethodGet, "/api/search?q=a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	rec = do(h, http.MethodGet, "/api/search?q=golang&limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid limit", decode(t, rec)["error"])
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t, newFakeUpstream(), blogPosts())

	rec := do(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := NewServer(config.TestConfig().Server, Deps{Feeds: panickingFeeds{}}).Handler()

	rec := do(h, http.MethodGet, feed.RSSPath, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(500), body["statusCode"])
}

// headerCounter counts WriteHeader calls reaching the underlying writer.
type headerCounter struct {
	*httptest.ResponseRecorder
	writes int
}

func (h *headerCounter) WriteHeader(code int) {
	h.writes++
	h.ResponseRecorder.WriteHeader(code)
}

func TestRecoveryAfterResponseStarted(t *testing.T) {
	h := withRecovery(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		panic("boom")
	}))

	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, rec.writes)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestUnregisteredRoutes(t *testing.T) {
	h := NewServer(config.TestConfig().Server, Deps{}).Handler()
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/github", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, feed.RSSPath, "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	cfg := config.TestConfig().Server
	cfg.ShutdownTimeout = time.Second
	s := NewServer(cfg, Deps{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
