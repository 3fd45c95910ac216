package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want ':8080'", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}

	if cfg.GitHub.BaseURL != "https://api.github.com" {
		t.Errorf("GitHub.BaseURL = %s, want https://api.github.com", cfg.GitHub.BaseURL)
	}
	if cfg.GitHub.CacheTTL != 5*time.Minute {
		t.Errorf("GitHub.CacheTTL = %v, want 5m", cfg.GitHub.CacheTTL)
	}
	if cfg.GitHub.UserAgent == "" {
		t.Error("GitHub.UserAgent should not be empty")
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %s, want 'memory'", cfg.Cache.Backend)
	}
	if cfg.Posts.Driver != "dir" {
		t.Errorf("Posts.Driver = %s, want 'dir'", cfg.Posts.Driver)
	}
	if cfg.Feed.SummaryLength != 200 {
		t.Errorf("Feed.SummaryLength = %d, want 200", cfg.Feed.SummaryLength)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.GitHub.CacheTTL != 5*time.Minute {
		t.Errorf("GitHub.CacheTTL = %v, want 5m", cfg.GitHub.CacheTTL)
	}
	if cfg.GitHub.GraphQLURL != "https://api.github.com/graphql" {
		t.Errorf("GitHub.GraphQLURL = %s, want derived from base URL", cfg.GitHub.GraphQLURL)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[github]
username = "gopher"
cache_ttl = "90s"
base_url = "https://ghe.internal/api/v3"

[cache]
backend = "redis"

[posts]
driver = "bolt"
db_path = "/tmp/posts.db"

[site]
title = "Gopher Notes"
`

	if writeErr := os.WriteFile(configPath, []byte(configContent), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GitHub.Username != "gopher" {
		t.Errorf("GitHub.Username = %s, want 'gopher'", cfg.GitHub.Username)
	}
	if cfg.GitHub.CacheTTL != 90*time.Second {
		t.Errorf("GitHub.CacheTTL = %v, want 90s", cfg.GitHub.CacheTTL)
	}
	if cfg.GitHub.GraphQLURL != "https://ghe.internal/api/v3/graphql" {
		t.Errorf("GitHub.GraphQLURL = %s, want derived from base_url", cfg.GitHub.GraphQLURL)
	}
	// untouched keys inside a partially filled section keep their defaults
	if cfg.GitHub.MaxPages != 3 {
		t.Errorf("GitHub.MaxPages = %d, want default 3", cfg.GitHub.MaxPages)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend = %s, want 'redis'", cfg.Cache.Backend)
	}
	if cfg.Cache.KeyPrefix != "folio:github:" {
		t.Errorf("Cache.KeyPrefix = %s, want default", cfg.Cache.KeyPrefix)
	}
	if cfg.Posts.DBPath != "/tmp/posts.db" {
		t.Errorf("Posts.DBPath = %s, want '/tmp/posts.db'", cfg.Posts.DBPath)
	}
	if cfg.Site.Title != "Gopher Notes" {
		t.Errorf("Site.Title = %s, want 'Gopher Notes'", cfg.Site.Title)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FOLIO_GITHUB_TOKEN", "secret-token")
	t.Setenv("FOLIO_CACHE_BACKEND", "redis")

	path := filepath.Join(t.TempDir(), "empty.toml")
	if writeErr := os.WriteFile(path, []byte(""), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GitHub.Token != "secret-token" {
		t.Errorf("GitHub.Token = %q, want value from env", cfg.GitHub.Token)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend = %q, want value from env", cfg.Cache.Backend)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := expandPath("~/posts"); got != filepath.Join(home, "posts") {
		t.Errorf("expandPath(~/posts) = %s", got)
	}
	if got := expandPath("-"); got != "-" {
		t.Errorf("expandPath(-) = %s, want '-'", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %s, want empty", got)
	}
	if got := expandPath("relative/dir"); !filepath.IsAbs(got) {
		t.Errorf("expandPath(relative/dir) = %s, want absolute", got)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := defaultConfig()
	cfg.GitHub.Username = "saved-user"
	cfg.GitHub.CacheTTL = 42 * time.Second
	cfg.Cache.RedisAddr = "redis.internal:6380"
	cfg.Posts.DBPath = "/test/posts.db"
	cfg.Feed.UserAgent = "test-save-agent"

	savePath := filepath.Join(tmpDir, "nested", "saved-config.toml")
	if saveErr := Save(cfg, savePath); saveErr != nil {
		t.Fatalf("Save() error = %v", saveErr)
	}

	if _, statErr := os.Stat(savePath); os.IsNotExist(statErr) {
		t.Fatal("Save() did not create config file")
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.GitHub.Username != cfg.GitHub.Username {
		t.Errorf("Loaded GitHub.Username = %s, want %s", loaded.GitHub.Username, cfg.GitHub.Username)
	}
	if loaded.GitHub.CacheTTL != cfg.GitHub.CacheTTL {
		t.Errorf("Loaded GitHub.CacheTTL = %v, want %v", loaded.GitHub.CacheTTL, cfg.GitHub.CacheTTL)
	}
	if loaded.Cache.RedisAddr != cfg.Cache.RedisAddr {
		t.Errorf("Loaded Cache.RedisAddr = %s, want %s", loaded.Cache.RedisAddr, cfg.Cache.RedisAddr)
	}
	if loaded.Posts.DBPath != cfg.Posts.DBPath {
		t.Errorf("Loaded Posts.DBPath = %s, want %s", loaded.Posts.DBPath, cfg.Posts.DBPath)
	}
	if loaded.Feed.UserAgent != cfg.Feed.UserAgent {
		t.Errorf("Loaded Feed.UserAgent = %s, want %s", loaded.Feed.UserAgent, cfg.Feed.UserAgent)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if genErr := GenerateDefaultConfig(configPath); genErr != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", genErr)
	}

	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		t.Fatal("GenerateDefaultConfig() did not create file")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("Generated config has Cache.Backend = %s, want 'memory'", cfg.Cache.Backend)
	}
	if cfg.GitHub.LanguageRepoLimit != 10 {
		t.Errorf("Generated config has GitHub.LanguageRepoLimit = %d, want 10", cfg.GitHub.LanguageRepoLimit)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}

	if cfg.Feed.UserAgent != "folio-test/1.0" {
		t.Errorf("TestConfig Feed.UserAgent = %s, want 'folio-test/1.0'", cfg.Feed.UserAgent)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("TestConfig Log.Level = %s, want 'off'", cfg.Log.Level)
	}
}
