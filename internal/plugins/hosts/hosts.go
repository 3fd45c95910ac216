// Package hosts holds the built-in feed URL plugins.
package hosts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pders01/folio/internal/plugins"
)

// NewRegistry returns a registry with every built-in plugin registered.
func NewRegistry(timeout time.Duration) *plugins.Registry {
	r := plugins.NewRegistry(timeout)
	r.Register(NewDevToPlugin())
	r.Register(NewMediumPlugin())
	return r
}

func pathSegments(u *url.URL) []string {
	return strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
}

func hostIs(u *url.URL, host string) bool {
	h := strings.ToLower(u.Hostname())
	return h == host || h == "www."+host
}

// DevToPlugin maps dev.to profiles to their RSS feed.
type DevToPlugin struct{}

func NewDevToPlugin() *DevToPlugin { return &DevToPlugin{} }

func (p *DevToPlugin) Name() string  { return "devto" }
func (p *DevToPlugin) Priority() int { return 50 }

func (p *DevToPlugin) CanHandle(u *url.URL) bool {
	return hostIs(u, "dev.to")
}

// Resolve accepts https://dev.to/{user}, any article URL under it, or the
// feed URL itself.
func (p *DevToPlugin) Resolve(_ context.Context, u *url.URL, _ *http.Client) (*plugins.FeedInfo, error) {
	segs := pathSegments(u)
	if len(segs) > 0 && segs[0] == "feed" {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("no dev.to user in %s", u)
	}
	user := segs[0]

	return &plugins.FeedInfo{
		OriginalURL: u.String(),
		FeedURL:     "https://dev.to/feed/" + user,
		Title:       "dev.to - " + user,
		Author:      user,
		Metadata:    map[string]string{"user": user},
	}, nil
}

// MediumPlugin maps Medium profiles and publications to their RSS feed.
type MediumPlugin struct{}

func NewMediumPlugin() *MediumPlugin { return &MediumPlugin{} }

func (p *MediumPlugin) Name() string  { return "medium" }
func (p *MediumPlugin) Priority() int { return 50 }

func (p *MediumPlugin) CanHandle(u *url.URL) bool {
	h := strings.ToLower(u.Hostname())
	return h == "medium.com" || h == "www.medium.com" || strings.HasSuffix(h, ".medium.com")
}

// Resolve handles medium.com/@user, medium.com/{publication} and
// {user}.medium.com.
func (p *MediumPlugin) Resolve(_ context.Context, u *url.URL, _ *http.Client) (*plugins.FeedInfo, error) {
	host := strings.ToLower(u.Hostname())
	segs := pathSegments(u)
	if len(segs) > 0 && segs[0] == "feed" {
		segs = segs[1:]
	}

	if host != "medium.com" && host != "www.medium.com" {
		sub := strings.TrimSuffix(host, ".medium.com")
		return &plugins.FeedInfo{
			OriginalURL: u.String(),
			FeedURL:     "https://" + host + "/feed",
			Title:       "Medium - " + sub,
			Author:      sub,
			Metadata:    map[string]string{"user": sub},
		}, nil
	}

	if len(segs) == 0 {
		return nil, fmt.Errorf("no medium user or publication in %s", u)
	}
	name := segs[0]
	info := &plugins.FeedInfo{
		OriginalURL: u.String(),
		FeedURL:     "https://medium.com/feed/" + name,
		Title:       "Medium - " + name,
		Metadata:    map[string]string{},
	}
	if strings.HasPrefix(name, "@") {
		info.Author = strings.TrimPrefix(name, "@")
		info.Metadata["user"] = info.Author
	} else {
		info.Metadata["publication"] = name
	}
	return info, nil
}
