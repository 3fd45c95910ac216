package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	GitHub GitHubConfig `mapstructure:"github"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Site   SiteConfig   `mapstructure:"site"`
	Posts  PostsConfig  `mapstructure:"posts"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GitHubConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	GraphQLURL        string        `mapstructure:"graphql_url"`
	Username          string        `mapstructure:"username"`
	Token             string        `mapstructure:"token"`
	UserAgent         string        `mapstructure:"user_agent"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	MaxPages          int           `mapstructure:"max_pages"`
	LanguageRepoLimit int           `mapstructure:"language_repo_limit"`
	ActivityLimit     int           `mapstructure:"activity_limit"`
}

// CacheConfig selects where aggregator entries live. Backend is "memory"
// or "redis".
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

type SiteConfig struct {
	Title       string `mapstructure:"title"`
	Link        string `mapstructure:"link"`
	Description string `mapstructure:"description"`
	Language    string `mapstructure:"language"`
	Author      string `mapstructure:"author"`
	Email       string `mapstructure:"email"`
}

// PostsConfig selects the blog post source. Driver is "dir", "bolt" or
// "postgres".
type PostsConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	DBPath string `mapstructure:"db_path"`
	DSN    string `mapstructure:"dsn"`
}

type FeedConfig struct {
	MaxItems      int           `mapstructure:"max_items"`
	SummaryLength int           `mapstructure:"summary_length"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// SearchConfig enables the bleve index. ReindexInterval is how often a
// running server brings the index in line with the post source; zero
// disables it.
type SearchConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	IndexPath       string        `mapstructure:"index_path"`
	ReindexInterval time.Duration `mapstructure:"reindex_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".folio")

	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL:           "https://api.github.com",
			Username:          "octocat",
			UserAgent:         "folio/1.0 (https://github.com/pders01/folio)",
			HTTPTimeout:       10 * time.Second,
			CacheTTL:          5 * time.Minute,
			MaxPages:          3,
			LanguageRepoLimit: 10,
			ActivityLimit:     30,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RedisAddr: "127.0.0.1:6379",
			KeyPrefix: "folio:github:",
		},
		Site: SiteConfig{
			Title:       "folio",
			Link:        "https://example.org",
			Description: "Notes on software, systems and everything in between",
			Language:    "en-us",
			Author:      "folio",
		},
		Posts: PostsConfig{
			Driver: "dir",
			Dir:    filepath.Join(dataDir, "posts"),
			DBPath: filepath.Join(dataDir, "posts.db"),
		},
		Feed: FeedConfig{
			MaxItems:      50,
			SummaryLength: 200,
			HTTPTimeout:   30 * time.Second,
			UserAgent:     "folio/1.0 (feed importer; github.com/pders01/folio)",
		},
		Search: SearchConfig{
			Enabled:         false,
			IndexPath:       filepath.Join(dataDir, "index.bleve"),
			ReindexInterval: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dataDir, "folio.log"),
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "folio")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.GitHub.GraphQLURL == "" {
		config.GitHub.GraphQLURL = strings.TrimSuffix(config.GitHub.BaseURL, "/") + "/graphql"
	}

	expandPaths(&config)

	return &config, nil
}

// setDefaults registers every leaf key so that partially filled sections
// keep their defaults and FOLIO_* env vars can override any key.
func setDefaults(v *viper.Viper, cfg *Config) {
	defaults := map[string]interface{}{
		"server.addr":             cfg.Server.Addr,
		"server.read_timeout":     cfg.Server.ReadTimeout,
		"server.write_timeout":    cfg.Server.WriteTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,

		"github.base_url":            cfg.GitHub.BaseURL,
		"github.graphql_url":         cfg.GitHub.GraphQLURL,
		"github.username":            cfg.GitHub.Username,
		"github.token":               cfg.GitHub.Token,
		"github.user_agent":          cfg.GitHub.UserAgent,
		"github.http_timeout":        cfg.GitHub.HTTPTimeout,
		"github.cache_ttl":           cfg.GitHub.CacheTTL,
		"github.max_pages":           cfg.GitHub.MaxPages,
		"github.language_repo_limit": cfg.GitHub.LanguageRepoLimit,
		"github.activity_limit":      cfg.GitHub.ActivityLimit,

		"cache.backend":        cfg.Cache.Backend,
		"cache.redis_addr":     cfg.Cache.RedisAddr,
		"cache.redis_password": cfg.Cache.RedisPassword,
		"cache.redis_db":       cfg.Cache.RedisDB,
		"cache.key_prefix":     cfg.Cache.KeyPrefix,

		"site.title":       cfg.Site.Title,
		"site.link":        cfg.Site.Link,
		"site.description": cfg.Site.Description,
		"site.language":    cfg.Site.Language,
		"site.author":      cfg.Site.Author,
		"site.email":       cfg.Site.Email,

		"posts.driver":  cfg.Posts.Driver,
		"posts.dir":     cfg.Posts.Dir,
		"posts.db_path": cfg.Posts.DBPath,
		"posts.dsn":     cfg.Posts.DSN,

		"feed.max_items":      cfg.Feed.MaxItems,
		"feed.summary_length": cfg.Feed.SummaryLength,
		"feed.http_timeout":   cfg.Feed.HTTPTimeout,
		"feed.user_agent":     cfg.Feed.UserAgent,

		"search.enabled":          cfg.Search.Enabled,
		"search.index_path":       cfg.Search.IndexPath,
		"search.reindex_interval": cfg.Search.ReindexInterval,

		"log.level": cfg.Log.Level,
		"log.file":  cfg.Log.File,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// expandPath expands ~ to home directory and converts to absolute path.
// "-" is kept as is; it means stderr for the log file.
func expandPath(path string) string {
	if path == "" || path == "-" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Posts.Dir = expandPath(cfg.Posts.Dir)
	cfg.Posts.DBPath = expandPath(cfg.Posts.DBPath)
	cfg.Search.IndexPath = expandPath(cfg.Search.IndexPath)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	serverCfg := map[string]interface{}{
		"addr":             config.Server.Addr,
		"read_timeout":     config.Server.ReadTimeout.String(),
		"write_timeout":    config.Server.WriteTimeout.String(),
		"shutdown_timeout": config.Server.ShutdownTimeout.String(),
	}

	githubCfg := map[string]interface{}{
		"base_url":            config.GitHub.BaseURL,
		"graphql_url":         config.GitHub.GraphQLURL,
		"username":            config.GitHub.Username,
		"token":               config.GitHub.Token,
		"user_agent":          config.GitHub.UserAgent,
		"http_timeout":        config.GitHub.HTTPTimeout.String(),
		"cache_ttl":           config.GitHub.CacheTTL.String(),
		"max_pages":           config.GitHub.MaxPages,
		"language_repo_limit": config.GitHub.LanguageRepoLimit,
		"activity_limit":      config.GitHub.ActivityLimit,
	}

	feedCfg := map[string]interface{}{
		"max_items":      config.Feed.MaxItems,
		"summary_length": config.Feed.SummaryLength,
		"http_timeout":   config.Feed.HTTPTimeout.String(),
		"user_agent":     config.Feed.UserAgent,
	}

	cacheCfg := map[string]interface{}{
		"backend":        config.Cache.Backend,
		"redis_addr":     config.Cache.RedisAddr,
		"redis_password": config.Cache.RedisPassword,
		"redis_db":       config.Cache.RedisDB,
		"key_prefix":     config.Cache.KeyPrefix,
	}

	siteCfg := map[string]interface{}{
		"title":       config.Site.Title,
		"link":        config.Site.Link,
		"description": config.Site.Description,
		"language":    config.Site.Language,
		"author":      config.Site.Author,
		"email":       config.Site.Email,
	}

	postsCfg := map[string]interface{}{
		"driver":  config.Posts.Driver,
		"dir":     config.Posts.Dir,
		"db_path": config.Posts.DBPath,
		"dsn":     config.Posts.DSN,
	}

	v.Set("server", serverCfg)
	v.Set("github", githubCfg)
	v.Set("cache", cacheCfg)
	v.Set("site", siteCfg)
	v.Set("posts", postsCfg)
	v.Set("feed", feedCfg)
	v.Set("search", map[string]interface{}{
		"enabled":          config.Search.Enabled,
		"index_path":       config.Search.IndexPath,
		"reindex_interval": config.Search.ReindexInterval.String(),
	})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
