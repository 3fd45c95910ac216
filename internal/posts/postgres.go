package posts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresSource reads posts from the posts table of a CMS database.
type PostgresSource struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &PostgresSource{db: db}, nil
}

func NewPostgresSource(db *sql.DB) *PostgresSource { return &PostgresSource{db: db} }

func (p *PostgresSource) Close() error {
	return p.db.Close()
}

// Ensure creates the posts table when it does not exist.
func (p *PostgresSource) Ensure(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    slug TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    tags TEXT[] NOT NULL DEFAULT '{}',
    author TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    draft BOOLEAN NOT NULL DEFAULT false,
    published_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ
)`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}
	return nil
}

func (p *PostgresSource) ListPosts(ctx context.Context) ([]*Post, error) {
	rows, err := p.db.QueryContext(ctx, `
SELECT id, title, slug, summary, content, url, tags, author, image, draft, published_at, updated_at
FROM posts
ORDER BY published_at DESC NULLS LAST, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var out []*Post
	for rows.Next() {
		var (
			post      Post
			published sql.NullTime
			updated   sql.NullTime
		)
		if err := rows.Scan(&post.ID, &post.Title, &post.Slug, &post.Summary, &post.Content, &post.URL,
			pq.Array(&post.Tags), &post.Author, &post.Image, &post.Draft, &published, &updated); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		if published.Valid {
			post.PublishedAt = published.Time
		}
		if updated.Valid {
			post.UpdatedAt = updated.Time
		}
		out = append(out, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading posts: %w", err)
	}
	return out, nil
}

// UpsertPost inserts post or replaces the row with the same id.
func (p *PostgresSource) UpsertPost(ctx context.Context, post *Post) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO posts (id, title, slug, summary, content, url, tags, author, image, draft, published_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title, slug = EXCLUDED.slug, summary = EXCLUDED.summary,
    content = EXCLUDED.content, url = EXCLUDED.url, tags = EXCLUDED.tags,
    author = EXCLUDED.author, image = EXCLUDED.image, draft = EXCLUDED.draft,
    published_at = EXCLUDED.published_at, updated_at = EXCLUDED.updated_at`,
		post.ID, post.Title, post.Slug, post.Summary, post.Content, post.URL, pq.Array(post.Tags),
		post.Author, post.Image, post.Draft, nullTime(post.PublishedAt), nullTime(post.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting post %s: %w", post.ID, err)
	}
	return nil
}

func (p *PostgresSource) DeletePost(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
