package posts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSource(t *testing.T) {
	dsn := os.Getenv("FOLIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FOLIO_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	src, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer src.Close()
	require.NoError(t, src.Ensure(ctx))

	older := &Post{ID: "pg-test-older", Title: "Older", Tags: []string{"sql"}, PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &Post{ID: "pg-test-newer", Title: "Newer", PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	undated := &Post{ID: "pg-test-undated", Title: "Undated"}
	for _, p := range []*Post{older, newer, undated} {
		require.NoError(t, src.UpsertPost(ctx, p))
		t.Cleanup(func() { _ = src.DeletePost(ctx, p.ID) })
	}

	got, err := src.ListPosts(ctx)
	require.NoError(t, err)

	byID := map[string]*Post{}
	var order []string
	for _, p := range got {
		byID[p.ID] = p
		if p.ID == older.ID || p.ID == newer.ID || p.ID == undated.ID {
			order = append(order, p.ID)
		}
	}
	assert.Equal(t, []string{newer.ID, older.ID, undated.ID}, order)
	assert.Equal(t, []string{"sql"}, byID[older.ID].Tags)
	assert.True(t, byID[undated.ID].PublishedAt.IsZero())
	assert.True(t, byID[older.ID].UpdatedAt.IsZero())
}
