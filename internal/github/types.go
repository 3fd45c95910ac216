package github

import (
	"encoding/json"
	"time"
)

// Profile mirrors the fields of GET /users/{user} that folio shows.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Company     string    `json:"company"`
	Blog        string    `json:"blog"`
	Location    string    `json:"location"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Homepage        string    `json:"homepage"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Topics          []string  `json:"topics"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	PushedAt        time.Time `json:"pushed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type EventActor struct {
	Login string `json:"login"`
}

type EventRepo struct {
	Name string `json:"name"`
}

// Event is one entry of the public events timeline. Payload is kept raw
// because its shape depends on Type.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Actor     EventActor      `json:"actor"`
	Repo      EventRepo       `json:"repo"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	// Level is the calendar quartile, 0 (none) to 4.
	Level int `json:"level"`
}

type ContributionWeek struct {
	Days []ContributionDay `json:"days"`
}

type ContributionCalendar struct {
	Total int                `json:"total"`
	Weeks []ContributionWeek `json:"weeks"`
}

type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Reset     time.Time `json:"reset"`
}
