package aggregator

import (
	"time"

	"github.com/pders01/folio/internal/github"
)

// Category names one slice of upstream data. It doubles as the cache key.
type Category string

const (
	CategoryProfile       Category = "profile"
	CategoryRepositories  Category = "repositories"
	CategoryContributions Category = "contributions"
	CategoryLanguages     Category = "languages"
	CategoryActivity      Category = "activity"
	CategoryAll           Category = "all"
)

// Categories lists every category the aggregator can serve, "all" last.
var Categories = []Category{
	CategoryProfile,
	CategoryRepositories,
	CategoryContributions,
	CategoryLanguages,
	CategoryActivity,
	CategoryAll,
}

// ParseCategory maps a query value onto a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Repositories struct {
	Total      int                 `json:"total"`
	TotalStars int                 `json:"total_stars"`
	TotalForks int                 `json:"total_forks"`
	Items      []github.Repository `json:"items"`
}

type Contributions struct {
	Total         int                       `json:"total"`
	CurrentStreak int                       `json:"current_streak"`
	LongestStreak int                       `json:"longest_streak"`
	Weeks         []github.ContributionWeek `json:"weeks"`
}

type Language struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

type LanguageStats struct {
	TotalBytes int64      `json:"total_bytes"`
	Languages  []Language `json:"languages"`
}

type ActivityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary"`
}

type Activity struct {
	Events []ActivityEvent `json:"events"`
}

// GitHubData is every category combined.
type GitHubData struct {
	Profile       *github.Profile `json:"profile"`
	Repositories  *Repositories   `json:"repositories"`
	Contributions *Contributions  `json:"contributions"`
	Languages     *LanguageStats  `json:"languages"`
	Activity      *Activity       `json:"activity"`
}
