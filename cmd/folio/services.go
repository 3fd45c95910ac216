package main

import (
	"context"
	"fmt"
	"io"

	"github.com/juju/clock"

	"github.com/pders01/folio/internal/aggregator"
	"github.com/pders01/folio/internal/cache"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/feed"
	"github.com/pders01/folio/internal/github"
	"github.com/pders01/folio/internal/posts"
	"github.com/pders01/folio/internal/search"
	"github.com/pders01/folio/internal/validation"
)

func (o *options) paths() *validation.PathHandler {
	if o.permissive {
		return validation.NewPermissivePathHandler()
	}
	return validation.NewSecurePathHandler()
}

// openSource validates the configured post location and opens it.
func (o *options) openSource() (posts.Source, io.Closer, error) {
	pc := o.cfg.Posts
	var err error
	switch pc.Driver {
	case "", "dir":
		pc.Dir, err = o.paths().PostsDir(pc.Dir)
	case "bolt":
		pc.DBPath, err = o.paths().DBPath(pc.DBPath)
	}
	if err != nil {
		return nil, nil, err
	}
	return posts.Open(pc)
}

// openStore opens the bolt store imports are written to.
func (o *options) openStore() (*posts.Store, error) {
	path, err := o.paths().DBPath(o.cfg.Posts.DBPath)
	if err != nil {
		return nil, err
	}
	return posts.NewStore(path)
}

func (o *options) openSearch(ctx context.Context, source posts.Source) (search.Searcher, error) {
	sc := o.cfg.Search
	if sc.Enabled {
		path, err := o.paths().IndexPath(sc.IndexPath)
		if err != nil {
			return nil, err
		}
		sc.IndexPath = path
	}
	return search.New(ctx, sc, source)
}

func (o *options) newGenerator(source posts.Source) (*feed.Generator, error) {
	return feed.NewGenerator(source, o.cfg.Site, o.cfg.Feed, clock.WallClock)
}

// newAggregator wires the GitHub client to the configured cache backend.
// The returned closer releases the backend connection.
func (o *options) newAggregator(ctx context.Context) (*aggregator.Aggregator, io.Closer, error) {
	store, err := cache.NewStore(o.cfg.Cache, o.cfg.GitHub.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			debuglog.Warnf("cache backend %s unreachable: %v", o.cfg.Cache.Backend, err)
		}
	}
	var closer io.Closer = nopCloser{}
	if c, ok := store.(io.Closer); ok {
		closer = c
	}

	c := cache.New(store, clock.WallClock, o.cfg.GitHub.CacheTTL)
	client := github.NewClient(o.cfg.GitHub)
	return aggregator.New(client, c, o.cfg.GitHub.LanguageRepoLimit), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// findPost looks a post up by ID, then by slug.
func findPost(ctx context.Context, source posts.Source, key string) (*posts.Post, error) {
	if store, ok := source.(*posts.Store); ok {
		if p, err := store.GetPost(key); err == nil {
			return p, nil
		}
	}
	all, err := source.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == key {
			return p, nil
		}
	}
	for _, p := range all {
		if p.Slug == key {
			return p, nil
		}
	}
	return nil, fmt.Errorf("post %q: %w", key, posts.ErrNotFound)
}
