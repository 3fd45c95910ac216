// Package aggregator serves GitHub profile data per category, each behind
// its own TTL cache entry.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pders01/folio/internal/cache"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/github"
)

// maxLanguageFetches bounds concurrent /languages calls.
const maxLanguageFetches = 4

// Upstream is the subset of the GitHub client the aggregator needs.
type Upstream interface {
	Profile(ctx context.Context) (*github.Profile, error)
	Repositories(ctx context.Context) ([]github.Repository, error)
	RepoLanguages(ctx context.Context, fullName string) (map[string]int64, error)
	Contributions(ctx context.Context) (*github.ContributionCalendar, error)
	Events(ctx context.Context) ([]github.Event, error)
	RateLimit(ctx context.Context) (*github.RateLimit, error)
}

type Aggregator struct {
	upstream          Upstream
	cache             *cache.Cache
	flights           singleflight.Group
	languageRepoLimit int

	// clearMu orders ClearCache against flights storing their results.
	// A flight that started before the latest clear does not store.
	clearMu sync.RWMutex
	clears  uint64
}

func New(upstream Upstream, c *cache.Cache, languageRepoLimit int) *Aggregator {
	if languageRepoLimit <= 0 {
		languageRepoLimit = 10
	}
	return &Aggregator{
		upstream:          upstream,
		cache:             c,
		languageRepoLimit: languageRepoLimit,
	}
}

// Get dispatches on category and returns that category's payload.
func (a *Aggregator) Get(ctx context.Context, category Category) (interface{}, error) {
	switch category {
	case CategoryProfile:
		return a.GetProfile(ctx)
	case CategoryRepositories:
		return a.GetRepositories(ctx)
	case CategoryContributions:
		return a.GetContributions(ctx)
	case CategoryLanguages:
		return a.GetLanguageStats(ctx)
	case CategoryActivity:
		return a.GetActivity(ctx)
	case CategoryAll:
		return a.GetGitHubData(ctx)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

func (a *Aggregator) GetProfile(ctx context.Context) (*github.Profile, error) {
	return cached(ctx, a, CategoryProfile, a.upstream.Profile)
}

func (a *Aggregator) GetRepositories(ctx context.Context) (*Repositories, error) {
	return cached(ctx, a, CategoryRepositories, func(ctx context.Context) (*Repositories, error) {
		repos, err := a.upstream.Repositories(ctx)
		if err != nil {
			return nil, err
		}
		return summarizeRepositories(repos), nil
	})
}

func (a *Aggregator) GetContributions(ctx context.Context) (*Contributions, error) {
	return cached(ctx, a, CategoryContributions, func(ctx context.Context) (*Contributions, error) {
		cal, err := a.upstream.Contributions(ctx)
		if err != nil {
			return nil, err
		}
		current, longest := streaks(cal.Weeks)
		return &Contributions{
			Total:         cal.Total,
			CurrentStreak: current,
			LongestStreak: longest,
			Weeks:         cal.Weeks,
		}, nil
	})
}

// GetLanguageStats sums language bytes over the most recently pushed
// non-fork repositories. The repository list itself comes from the
// repositories entry.
func (a *Aggregator) GetLanguageStats(ctx context.Context) (*LanguageStats, error) {
	return cached(ctx, a, CategoryLanguages, func(ctx context.Context) (*LanguageStats, error) {
		repos, err := a.GetRepositories(ctx)
		if err != nil {
			return nil, err
		}

		candidates := recentSources(repos.Items, a.languageRepoLimit)

		var (
			mu     sync.Mutex
			totals = make(map[string]int64)
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxLanguageFetches)
		for _, repo := range candidates {
			g.Go(func() error {
				langs, err := a.upstream.RepoLanguages(gctx, repo.FullName)
				if err != nil {
					return err
				}
				mu.Lock()
				for name, n := range langs {
					totals[name] += n
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return languageStats(totals), nil
	})
}

func (a *Aggregator) GetActivity(ctx context.Context) (*Activity, error) {
	return cached(ctx, a, CategoryActivity, func(ctx context.Context) (*Activity, error) {
		events, err := a.upstream.Events(ctx)
		if err != nil {
			return nil, err
		}
		activity := &Activity{Events: make([]ActivityEvent, 0, len(events))}
		for _, e := range events {
			activity.Events = append(activity.Events, ActivityEvent{
				ID:        e.ID,
				Type:      e.Type,
				Repo:      e.Repo.Name,
				CreatedAt: e.CreatedAt,
				Summary:   summarizeEvent(e),
			})
		}
		return activity, nil
	})
}

// GetGitHubData combines every category. Categories already cached return
// at once, misses are fetched in parallel. All or nothing: the first
// failing category fails the whole call and nothing is stored under "all".
func (a *Aggregator) GetGitHubData(ctx context.Context) (*GitHubData, error) {
	return cached(ctx, a, CategoryAll, func(ctx context.Context) (*GitHubData, error) {
		data := &GitHubData{}

		var g errgroup.Group
		g.Go(func() (err error) {
			data.Profile, err = a.GetProfile(ctx)
			return err
		})
		g.Go(func() (err error) {
			data.Repositories, err = a.GetRepositories(ctx)
			return err
		})
		g.Go(func() (err error) {
			data.Contributions, err = a.GetContributions(ctx)
			return err
		})
		g.Go(func() (err error) {
			data.Languages, err = a.GetLanguageStats(ctx)
			return err
		})
		g.Go(func() (err error) {
			data.Activity, err = a.GetActivity(ctx)
			return err
		})

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// ClearCache drops every cached category. Flights already under way are
// forgotten so later callers start fresh ones.
func (a *Aggregator) ClearCache(ctx context.Context) error {
	a.clearMu.Lock()
	defer a.clearMu.Unlock()

	a.clears++
	for _, c := range Categories {
		a.flights.Forget(string(c))
	}
	if err := a.cache.Clear(ctx); err != nil {
		return err
	}
	debuglog.Infof("github cache cleared")
	return nil
}

// GetRateLimitStatus always asks upstream.
func (a *Aggregator) GetRateLimitStatus(ctx context.Context) (*github.RateLimit, error) {
	return a.upstream.RateLimit(ctx)
}

// cached serves key from the cache when fresh and otherwise runs fetch,
// storing its result. Concurrent misses on one key share a single fetch.
func cached[T any](ctx context.Context, a *Aggregator, key Category, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	log := debuglog.WithFields(map[string]interface{}{"category": key})

	if payload, ok := a.cache.Get(ctx, string(key)); ok {
		var v T
		if err := json.Unmarshal(payload, &v); err == nil {
			log.Debugf("cache hit")
			return v, nil
		}
		log.Warnf("discarding undecodable cache entry")
	}

	res, err, shared := a.flights.Do(string(key), func() (interface{}, error) {
		// A flight may be joined by other callers, so it must not die with
		// the first caller's request.
		fctx := context.WithoutCancel(ctx)

		// a flight that finished between our lookup and Do has filled it
		if payload, ok := a.cache.Get(fctx, string(key)); ok {
			var v T
			if err := json.Unmarshal(payload, &v); err == nil {
				return v, nil
			}
		}

		a.clearMu.RLock()
		generation := a.clears
		a.clearMu.RUnlock()

		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		a.store(fctx, log, key, payload, generation)
		return v, nil
	})
	if err != nil {
		log.Warnf("fetch failed: %v", err)
		return zero, err
	}
	log.Debugf("cache miss, fetched upstream (shared=%t)", shared)
	return res.(T), nil
}

func summarizeRepositories(repos []github.Repository) *Repositories {
	out := &Repositories{Total: len(repos), Items: append([]github.Repository(nil), repos...)}
	for _, r := range repos {
		out.TotalStars += r.StargazersCount
		out.TotalForks += r.ForksCount
	}
	sort.SliceStable(out.Items, func(i, j int) bool {
		if out.Items[i].StargazersCount != out.Items[j].StargazersCount {
			return out.Items[i].StargazersCount > out.Items[j].StargazersCount
		}
		return out.Items[i].Name < out.Items[j].Name
	})
	return out
}

// recentSources returns up to limit non-fork repositories, most recently
// pushed first.
func recentSources(repos []github.Repository, limit int) []github.Repository {
	var sources []github.Repository
	for _, r := range repos {
		if !r.Fork {
			sources = append(sources, r)
		}
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].PushedAt.After(sources[j].PushedAt)
	})
	if len(sources) > limit {
		sources = sources[:limit]
	}
	return sources
}

func languageStats(totals map[string]int64) *LanguageStats {
	stats := &LanguageStats{Languages: make([]Language, 0, len(totals))}
	for _, n := range totals {
		stats.TotalBytes += n
	}
	for name, n := range totals {
		pct := 0.0
		if stats.TotalBytes > 0 {
			pct = math.Round(float64(n)/float64(stats.TotalBytes)*10000) / 100
		}
		stats.Languages = append(stats.Languages, Language{Name: name, Bytes: n, Percentage: pct})
	}
	sort.Slice(stats.Languages, func(i, j int) bool {
		if stats.Languages[i].Bytes != stats.Languages[j].Bytes {
			return stats.Languages[i].Bytes > stats.Languages[j].Bytes
		}
		return stats.Languages[i].Name < stats.Languages[j].Name
	})
	return stats
}

// streaks returns the current and longest run of days with at least one
// contribution. The last day may still be at zero without breaking the
// current streak, since it is usually today.
func streaks(weeks []github.ContributionWeek) (current, longest int) {
	var days []github.ContributionDay
	for _, w := range weeks {
		days = append(days, w.Days...)
	}

	run := 0
	for _, d := range days {
		if d.Count > 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	i := len(days) - 1
	if i >= 0 && days[i].Count == 0 {
		i--
	}
	for ; i >= 0 && days[i].Count > 0; i-- {
		current++
	}
	return current, longest
}

// store writes payload unless the cache was cleared after generation was
// read.
func (a *Aggregator) store(ctx context.Context, log *debuglog.FieldLogger, key Category, payload []byte, generation uint64) {
	a.clearMu.RLock()
	defer a.clearMu.RUnlock()
	if a.clears != generation {
		log.Debugf("cache cleared during fetch, not storing")
		return
	}
	if err := a.cache.Set(ctx, string(key), payload); err != nil {
		log.Warnf("%v", err)
	}
}
