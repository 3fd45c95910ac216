package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
)

const (
	defaultUserAgent = "folio/1.0 (github.com/pders01/folio)"
	defaultTimeout   = 10 * time.Second
	apiVersion       = "2022-11-28"
	perPage          = 100
)

// Client talks to the GitHub REST and GraphQL APIs on behalf of one user.
type Client struct {
	client        *http.Client
	baseURL       string
	graphqlURL    string
	username      string
	token         string
	userAgent     string
	maxPages      int
	activityLimit int
}

func NewClient(cfg config.GitHubConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	graphqlURL := cfg.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = baseURL + "/graphql"
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	activityLimit := cfg.ActivityLimit
	if activityLimit <= 0 || activityLimit > perPage {
		activityLimit = 30
	}

	return &Client{
		client:        &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		graphqlURL:    graphqlURL,
		username:      cfg.Username,
		token:         cfg.Token,
		userAgent:     userAgent,
		maxPages:      maxPages,
		activityLimit: activityLimit,
	}
}

type repoListOptions struct {
	Type      string `url:"type,omitempty"`
	Sort      string `url:"sort,omitempty"`
	Direction string `url:"direction,omitempty"`
	PerPage   int    `url:"per_page,omitempty"`
	Page      int    `url:"page,omitempty"`
}

type eventListOptions struct {
	PerPage int `url:"per_page,omitempty"`
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, "/users/"+url.PathEscape(c.username), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Repositories lists the user's own repositories, most recently updated
// first, following pages until a short page or the page limit.
func (c *Client) Repositories(ctx context.Context) ([]Repository, error) {
	var all []Repository
	opts := repoListOptions{Type: "owner", Sort: "updated", Direction: "desc", PerPage: perPage}

	for page := 1; page <= c.maxPages; page++ {
		opts.Page = page
		var batch []Repository
		if err := c.get(ctx, "/users/"+url.PathEscape(c.username)+"/repos", opts, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return all, nil
}

// RepoLanguages returns bytes of code per language for owner/name.
func (c *Client) RepoLanguages(ctx context.Context, fullName string) (map[string]int64, error) {
	langs := make(map[string]int64)
	if err := c.get(ctx, "/repos/"+fullName+"/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	opts := eventListOptions{PerPage: c.activityLimit}
	if err := c.get(ctx, "/users/"+url.PathEscape(c.username)+"/events/public", opts, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type rateLimitWindow struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Used      int   `json:"used"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponse struct {
	Resources struct {
		Core *rateLimitWindow `json:"core"`
	} `json:"resources"`
	Rate *rateLimitWindow `json:"rate"`
}

// RateLimit reports the core REST quota. It is never cached.
func (c *Client) RateLimit(ctx context.Context) (*RateLimit, error) {
	var resp rateLimitResponse
	if err := c.get(ctx, "/rate_limit", nil, &resp); err != nil {
		return nil, err
	}

	window := resp.Resources.Core
	if window == nil {
		window = resp.Rate
	}
	if window == nil {
		return nil, &APIError{Message: "rate limit response has no core window", URL: c.baseURL + "/rate_limit"}
	}

	return &RateLimit{
		Limit:     window.Limit,
		Remaining: window.Remaining,
		Used:      window.Used,
		Reset:     time.Unix(window.Reset, 0).UTC(),
	}, nil
}

const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            date
            contributionCount
            contributionLevel
          }
        }
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type contributionsResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int `json:"totalContributions"`
					Weeks              []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
							ContributionLevel string `json:"contributionLevel"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

var contributionLevels = map[string]int{
	"NONE":            0,
	"FIRST_QUARTILE":  1,
	"SECOND_QUARTILE": 2,
	"THIRD_QUARTILE":  3,
	"FOURTH_QUARTILE": 4,
}

// Contributions fetches the contribution calendar of the last year. The
// GraphQL API requires a token.
func (c *Client) Contributions(ctx context.Context) (*ContributionCalendar, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     contributionsQuery,
		Variables: map[string]any{"login": c.username},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp contributionsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &APIError{Message: strings.Join(msgs, "; "), URL: c.graphqlURL}
	}
	if resp.Data.User == nil {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "user not found", URL: c.graphqlURL}
	}

	cal := resp.Data.User.ContributionsCollection.ContributionCalendar
	out := &ContributionCalendar{Total: cal.TotalContributions, Weeks: make([]ContributionWeek, 0, len(cal.Weeks))}
	for _, w := range cal.Weeks {
		week := ContributionWeek{Days: make([]ContributionDay, 0, len(w.ContributionDays))}
		for _, d := range w.ContributionDays {
			week.Days = append(week.Days, ContributionDay{
				Date:  d.Date,
				Count: d.ContributionCount,
				Level: contributionLevels[d.ContributionLevel],
			})
		}
		out.Weeks = append(out.Weeks, week)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, opts interface{}, v interface{}) error {
	u := c.baseURL + path
	if opts != nil {
		values, err := query.Values(opts)
		if err != nil {
			return fmt.Errorf("encoding query for %s: %w", path, err)
		}
		if encoded := values.Encode(); encoded != "" {
			u += "?" + encoded
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(req *http.Request, v interface{}) error {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	endpoint := req.URL.String()
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Message: err.Error(), URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debugf("github %s %s", req.Method, endpoint)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "reading response: " + err.Error(), URL: endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			msg = eb.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, URL: endpoint}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &APIError{Message: "decoding response: " + err.Error(), URL: endpoint, Err: err}
	}
	return nil
}
