package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.GitHub = GitHubConfig{
		BaseURL:           "http://127.0.0.1:0",
		GraphQLURL:        "http://127.0.0.1:0/graphql",
		Username:          "octocat",
		UserAgent:         "folio-test/1.0",
		HTTPTimeout:       5 * time.Second,
		CacheTTL:          1 * time.Minute,
		MaxPages:          2,
		LanguageRepoLimit: 5,
		ActivityLimit:     10,
	}
	cfg.Site = SiteConfig{
		Title:       "Test Blog",
		Link:        "https://blog.test",
		Description: "A test blog",
		Language:    "en-us",
		Author:      "Tester",
	}
	cfg.Feed.HTTPTimeout = 5 * time.Second
	cfg.Feed.UserAgent = "folio-test/1.0"
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
