package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/posts"
)

func newTestImporter(t *testing.T) (*Importer, *posts.Store) {
	t.Helper()
	store, err := posts.NewStore(filepath.Join(t.TempDir(), "posts.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	im := New(store, config.TestConfig().Feed)
	im.SetPermissiveValidation(true)
	return im, store
}

func feedServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("If-None-Match") == "\"v1\"" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", "\"v1\"")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestImport(t *testing.T) {
	im, store := newTestImporter(t)
	var hits int32
	server := feedServer(t, &hits)

	res, err := im.Import(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.False(t, res.NotModified)
	assert.Equal(t, "Test RSS Feed", res.Origin.Title)
	assert.Equal(t, "\"v1\"", res.Origin.ETag)

	saved, err := store.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Second Article", saved[0].Title)

	origin, err := store.GetOrigin(res.Origin.ID)
	require.NoError(t, err)
	assert.Equal(t, server.URL, origin.URL)
	assert.False(t, origin.LastFetched.IsZero())

	t.Run("second import is conditional", func(t *testing.T) {
		res, err := im.Import(context.Background(), server.URL)
		require.NoError(t, err)
		assert.True(t, res.NotModified)
		assert.Equal(t, 0, res.Imported)
	})

	t.Run("force refresh skips validators", func(t *testing.T) {
		im.SetForceRefresh(true)
		defer im.SetForceRefresh(false)
		res, err := im.Import(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Imported)
	})
}

func TestImportRejectsLocalHostsByDefault(t *testing.T) {
	im, _ := newTestImporter(t)
	im.SetPermissiveValidation(false)
	var hits int32
	server := feedServer(t, &hits)

	res, err := im.Import(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "invalid feed URL")
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestImportInvalidURL(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.Import(context.Background(), "ftp://example.com/feed")
	assert.Error(t, err)
}

func TestImportAllCollectsErrors(t *testing.T) {
	im, _ := newTestImporter(t)
	var hits int32
	good := feedServer(t, &hits)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	results, err := im.ImportAll(context.Background(), []string{good.URL, bad.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad.URL)
	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	assert.Equal(t, 2, results[0].Imported)
	assert.Nil(t, results[1])
}

func TestImportAllEmpty(t *testing.T) {
	im, _ := newTestImporter(t)
	results, err := im.ImportAll(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRefresh(t *testing.T) {
	im, _ := newTestImporter(t)

	results, err := im.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)

	var hits1, hits2 int32
	s1 := feedServer(t, &hits1)
	s2 := feedServer(t, &hits2)
	_, err = im.ImportAll(context.Background(), []string{s1.URL, s2.URL})
	require.NoError(t, err)

	results, err = im.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.NotModified)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits1))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits2))
}

func TestOriginID(t *testing.T) {
	a := originID("https://example.com/feed")
	assert.Len(t, a, 64)
	assert.Equal(t, a, originID("https://example.com/feed"))
	assert.NotEqual(t, a, originID("https://example.com/other"))
}
