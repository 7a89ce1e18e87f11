// Package config handles application configuration from defaults, an optional
// TOML file, a .env file and environment variables
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all application configuration
type Config struct {
	Port      string `toml:"port" env:"PORT"`
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"` // json, console, or empty to detect

	GitHub GitHubConfig `toml:"github" envPrefix:"GITHUB_"`
	Trends TrendsConfig `toml:"trends" envPrefix:"TRENDS_"`
	LLM    LLMConfig    `toml:"llm" envPrefix:"LLM_"`
}

// GitHubConfig holds search provider configuration
type GitHubConfig struct {
	APIURL  string        `toml:"api_url" env:"API_URL"`
	Token   string        `toml:"token" env:"TOKEN"` // optional
	Timeout time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// TrendsConfig holds the trending query and cache settings
type TrendsConfig struct {
	CacheTTL   time.Duration `toml:"cache_ttl" env:"CACHE_TTL"`
	Topic      string        `toml:"topic" env:"TOPIC"`
	MinStars   int           `toml:"min_stars" env:"MIN_STARS"`
	WindowDays int           `toml:"window_days" env:"WINDOW_DAYS"`
	PerPage    int           `toml:"per_page" env:"PER_PAGE"`
}

// LLMConfig holds summarization provider configuration.
// The credential is supplied per request and is not part of the config.
type LLMConfig struct {
	BaseURL string        `toml:"base_url" env:"BASE_URL"`
	Model   string        `toml:"model" env:"MODEL"`
	Timeout time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// Default returns the compiled-in configuration
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		GitHub: GitHubConfig{
			APIURL:  "https://api.github.com",
			Timeout: 10 * time.Second,
		},
		Trends: TrendsConfig{
			CacheTTL:   10 * time.Minute,
			Topic:      "AI",
			MinStars:   100,
			WindowDays: 7,
			PerPage:    20,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
			Timeout: 30 * time.Second,
		},
	}
}

// Load builds the configuration. Later layers override earlier ones:
// defaults, the TOML file at path (skipped when path is empty), .env, environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.GitHub.APIURL = strings.TrimSuffix(cfg.GitHub.APIURL, "/")
	cfg.LLM.BaseURL = strings.TrimSuffix(cfg.LLM.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures every setting is usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", c.LogFormat)
	}

	if c.GitHub.APIURL == "" {
		return fmt.Errorf("github api url must not be empty")
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github timeout must be positive, got %s", c.GitHub.Timeout)
	}

	if c.Trends.CacheTTL <= 0 {
		return fmt.Errorf("trends cache ttl must be positive, got %s", c.Trends.CacheTTL)
	}
	if strings.TrimSpace(c.Trends.Topic) == "" {
		return fmt.Errorf("trends topic must not be empty")
	}
	if c.Trends.MinStars < 0 {
		return fmt.Errorf("trends min stars must not be negative, got %d", c.Trends.MinStars)
	}
	if c.Trends.WindowDays < 1 {
		return fmt.Errorf("trends window must be at least one day, got %d", c.Trends.WindowDays)
	}
	if c.Trends.PerPage < 1 || c.Trends.PerPage > 100 {
		return fmt.Errorf("trends per page must be between 1-100, got %d", c.Trends.PerPage)
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base url must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.LLM.Timeout)
	}
	return nil
}

// Window returns the trending activity window as a duration
func (c TrendsConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// HasGitHubToken returns true if search requests should be authenticated
func (c *Config) HasGitHubToken() bool {
	return c.GitHub.Token != ""
}
