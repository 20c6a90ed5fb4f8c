// internal/config/config.go
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Category maps a prospect category key to its search query template and
// its keyword table for news-page scanning. List order is the category
// definition order used by the capper.
type Category struct {
	Key      string   `yaml:"key" json:"key"`
	Query    string   `yaml:"query" json:"query"` // {company} is replaced at runtime
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port" json:"port"`
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		Targets  string `yaml:"targets" json:"targets"` // CSV or YAML roster
		LogLevel string `yaml:"log_level" json:"log_level"`
	} `yaml:"app" json:"app"`

	Polling struct {
		RunIntervalMinutes int `yaml:"run_interval_minutes" json:"run_interval_minutes"`
	} `yaml:"polling" json:"polling"`

	Scan struct {
		CooldownHours           float64 `yaml:"cooldown_hours" json:"cooldown_hours"`
		MaxProspectSignals      int     `yaml:"max_prospect_signals" json:"max_prospect_signals"`
		Concurrency             int     `yaml:"concurrency" json:"concurrency"`
		ScrapeDelaySeconds      float64 `yaml:"scrape_delay_seconds" json:"scrape_delay_seconds"`
		SearchDelaySeconds      float64 `yaml:"search_delay_seconds" json:"search_delay_seconds"`
		RateLimitBackoffSeconds float64 `yaml:"rate_limit_backoff_seconds" json:"rate_limit_backoff_seconds"`
		RequestTimeoutSeconds   int     `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
		UserAgent               string  `yaml:"user_agent" json:"user_agent"`
	} `yaml:"scan" json:"scan"`

	Hiring struct {
		Keywords      []string `yaml:"keywords" json:"keywords"`
		Exclude       []string `yaml:"exclude" json:"exclude"`
		SnippetRadius int      `yaml:"snippet_radius" json:"snippet_radius"`
	} `yaml:"hiring" json:"hiring"`

	Prospect struct {
		Categories       []Category `yaml:"categories" json:"categories"`
		MinSegmentLength int        `yaml:"min_segment_length" json:"min_segment_length"`
		ChromePhrases    []string   `yaml:"chrome_phrases" json:"chrome_phrases"`
	} `yaml:"prospect" json:"prospect"`

	Search struct {
		Enabled        bool   `yaml:"enabled" json:"enabled"`
		Endpoint       string `yaml:"endpoint" json:"endpoint"`
		Freshness      string `yaml:"freshness" json:"freshness"` // pd | pw | pm
		MaxResults     int    `yaml:"max_results" json:"max_results"`
		KeyringAccount string `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"search" json:"search"`

	Drafting struct {
		Enabled         bool    `yaml:"enabled" json:"enabled"`
		Model           string  `yaml:"model" json:"model"`
		MaxTokens       int     `yaml:"max_tokens" json:"max_tokens"`
		Temperature     float64 `yaml:"temperature" json:"temperature"`
		MaxFailures     int     `yaml:"max_failures" json:"max_failures"`
		CooldownMinutes int     `yaml:"cooldown_minutes" json:"cooldown_minutes"`
		KeyringAccount  string  `yaml:"keyring_account" json:"keyring_account"`
	} `yaml:"drafting" json:"drafting"`
}

// Load reads path on top of Default(), so omitted keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.Scan.CooldownHours * float64(time.Hour))
}

func (c Config) ScrapeDelay() time.Duration {
	return seconds(c.Scan.ScrapeDelaySeconds)
}

func (c Config) SearchDelay() time.Duration {
	return seconds(c.Scan.SearchDelaySeconds)
}

func (c Config) RateLimitBackoff() time.Duration {
	return seconds(c.Scan.RateLimitBackoffSeconds)
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scan.RequestTimeoutSeconds) * time.Second
}

func (c Config) RunInterval() time.Duration {
	return time.Duration(c.Polling.RunIntervalMinutes) * time.Minute
}

// CategoryOrder returns category keys in definition order.
func (c Config) CategoryOrder() []string {
	out := make([]string, 0, len(c.Prospect.Categories))
	for _, cat := range c.Prospect.Categories {
		out = append(out, cat.Key)
	}
	return out
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
