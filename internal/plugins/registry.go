// Package plugins resolves blog profile URLs on known hosts to the feed
// URLs the importer fetches.
package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FeedInfo is what a plugin knows about the feed behind a URL.
type FeedInfo struct {
	OriginalURL string
	FeedURL     string
	Title       string
	Author      string
	Metadata    map[string]string
}

// Plugin resolves URLs for one host.
type Plugin interface {
	Name() string
	CanHandle(u *url.URL) bool
	// Resolve may use client to look up metadata; none of the built-in
	// plugins do.
	Resolve(ctx context.Context, u *url.URL, client *http.Client) (*FeedInfo, error)
	// Priority breaks ties when several plugins claim a URL; higher wins.
	Priority() int
}

type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{client: &http.Client{Timeout: timeout}}
}

func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// FindPlugin returns the highest priority plugin that can handle u, or nil.
func (r *Registry) FindPlugin(u *url.URL) Plugin {
	var best Plugin
	for _, p := range r.plugins {
		if p.CanHandle(u) && (best == nil || p.Priority() > best.Priority()) {
			best = p
		}
	}
	return best
}

// Resolve maps rawURL to a feed URL. URLs no plugin claims are returned
// unchanged.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (*FeedInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	p := r.FindPlugin(u)
	if p == nil {
		return &FeedInfo{
			OriginalURL: rawURL,
			FeedURL:     rawURL,
			Metadata:    map[string]string{},
		}, nil
	}

	info, err := p.Resolve(ctx, u, r.client)
	if err != nil {
		return nil, fmt.Errorf("%s plugin: %w", p.Name(), err)
	}
	if info.Metadata == nil {
		info.Metadata = map[string]string{}
	}
	info.Metadata["plugin"] = p.Name()
	return info, nil
}

func (r *Registry) ListPlugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}
