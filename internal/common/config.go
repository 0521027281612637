package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Crawler     CrawlerConfig     `toml:"crawler"`
	Interaction InteractionConfig `toml:"interaction"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Storage     StorageConfig     `toml:"storage"`
	Export      ExportConfig      `toml:"export"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CrawlerConfig controls discovery, fetching and scope behavior
type CrawlerConfig struct {
	StartURL             string        `toml:"start_url" validate:"required"`
	MaxPages             int           `toml:"max_pages" validate:"gte=1"`
	MaxDepth             int           `toml:"max_depth" validate:"gte=0"`
	Workers              int           `toml:"workers" validate:"gte=1"`
	QueueSize            int           `toml:"queue_size" validate:"gte=1"`
	RequestTimeout       time.Duration `toml:"request_timeout"`
	RequestInterval      time.Duration `toml:"request_interval"` // Minimum delay between dispatches across all workers
	MaxRetries           int           `toml:"max_retries" validate:"gte=0"`
	RetryBackoffBase     time.Duration `toml:"retry_backoff_base"`
	RetryBackoffMax      time.Duration `toml:"retry_backoff_max"`
	UserAgent            string        `toml:"user_agent"`
	StripQuery           bool          `toml:"strip_query"`        // Drop all query strings during canonicalization (tracking params are always dropped)
	AllowCrossScheme     bool          `toml:"allow_cross_scheme"` // Treat http and https as the same scope
	DenyPatterns         []string      `toml:"deny_patterns"`      // User regexes, matched case-insensitively against the canonical URL
	MinWordCount         int           `toml:"min_word_count"`     // Pages below this are recorded as skipped; their links are still followed
	EnableJavaScript     bool          `toml:"enable_javascript"`  // Render pages in a headless browser
	EnableStaticFallback bool          `toml:"enable_static_fallback"`
	RenderWaitTime       time.Duration `toml:"render_wait_time"` // Settle time after navigation before snapshotting
	FollowRobotsTxt      bool          `toml:"follow_robots_txt"`
	LoginURLPattern      string        `toml:"login_url_pattern"` // Substring that marks a redirect to a login page
}

// InteractionConfig controls the collapsible-content expansion pass
type InteractionConfig struct {
	Enabled         bool          `toml:"enabled"`
	ClickBudget     int           `toml:"click_budget" validate:"gte=0"`
	TimeBudget      time.Duration `toml:"time_budget"`
	SettleDelay     time.Duration `toml:"settle_delay"`      // Wait after each granular click
	BulkSettleDelay time.Duration `toml:"bulk_settle_delay"` // Wait after an expand-all click
}

// PipelineConfig controls chunking of extracted content
type PipelineConfig struct {
	TargetChunkWords int `toml:"target_chunk_words" validate:"gte=1"`
	MaxChunkWords    int `toml:"max_chunk_words" validate:"gte=1"`
	OverlapWords     int `toml:"overlap_words" validate:"gte=0"`
}

type StorageConfig struct {
	Enabled bool         `toml:"enabled"`
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type ExportConfig struct {
	Format string `toml:"format" validate:"oneof=json jsonl"`
	Path   string `toml:"path"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			MaxPages:             100,
			MaxDepth:             5,
			Workers:              5,
			QueueSize:            10000,
			RequestTimeout:       30 * time.Second,
			RequestInterval:      500 * time.Millisecond,
			MaxRetries:           3,
			RetryBackoffBase:     time.Second,
			RetryBackoffMax:      30 * time.Second,
			UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			StripQuery:           false,
			AllowCrossScheme:     true,
			MinWordCount:         25,
			EnableJavaScript:     true,
			EnableStaticFallback: true,
			RenderWaitTime:       2 * time.Second,
			FollowRobotsTxt:      true,
		},
		Interaction: InteractionConfig{
			Enabled:         true,
			ClickBudget:     50,
			TimeBudget:      20 * time.Second,
			SettleDelay:     500 * time.Millisecond,
			BulkSettleDelay: 1500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			TargetChunkWords: 400,
			MaxChunkWords:    600,
			OverlapWords:     40,
		},
		Storage: StorageConfig{
			Enabled: true,
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Export: ExportConfig{
			Format: "json",
			Path:   "./corpus.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	// Validation happens after the caller applies its flag overrides
	return config, nil
}

// Validate checks field constraints and cross-field invariants
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Pipeline.MaxChunkWords < c.Pipeline.TargetChunkWords {
		return fmt.Errorf("invalid configuration: max_chunk_words (%d) must be >= target_chunk_words (%d)",
			c.Pipeline.MaxChunkWords, c.Pipeline.TargetChunkWords)
	}
	if c.Pipeline.OverlapWords >= c.Pipeline.TargetChunkWords {
		return fmt.Errorf("invalid configuration: overlap_words (%d) must be < target_chunk_words (%d)",
			c.Pipeline.OverlapWords, c.Pipeline.TargetChunkWords)
	}
	if c.Pipeline.OverlapWords+c.Pipeline.TargetChunkWords > c.Pipeline.MaxChunkWords {
		return fmt.Errorf("invalid configuration: overlap_words + target_chunk_words (%d) must not exceed max_chunk_words (%d)",
			c.Pipeline.OverlapWords+c.Pipeline.TargetChunkWords, c.Pipeline.MaxChunkWords)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COLLIGO_START_URL"); v != "" {
		config.Crawler.StartURL = v
	}
	if v := os.Getenv("COLLIGO_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Crawler.MaxPages = n
		}
	}
	if v := os.Getenv("COLLIGO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Crawler.Workers = n
		}
	}
	if v := os.Getenv("COLLIGO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COLLIGO_DATA_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
}
