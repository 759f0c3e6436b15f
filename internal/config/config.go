package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobrake/internal/model"
)

// Config is the root configuration for jobrake.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Scrape  ScrapeConfig
	Sources map[model.Source]SourceConfig
	Filters FilterConfig
	AI      AIConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string
	RequestTimeout  time.Duration // upper bound for one request, scrapes included
	ShutdownTimeout time.Duration
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default), "postgres" or "memory"
	Path   string `yaml:"path"`   // sqlite file
	DSN    string `yaml:"dsn"`    // postgres connection string, expanded from env by Load
}

// ScrapeConfig controls how the aggregator calls the sources.
type ScrapeConfig struct {
	UserAgent      string
	FetchTimeout   time.Duration // per-source bound
	Sequential     bool
	DefaultSources []model.Source // used when a request names none
}

// SourceConfig tunes a single source.
type SourceConfig struct {
	Enabled bool
	BaseURL string // empty means the public site
}

// FilterConfig holds the default keyword filters for the jobs and browse commands.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// AIConfig controls the optional analysis layer.
type AIConfig struct {
	Enabled        bool
	BaseURL        string        // defaults to https://api.openai.com/v1
	Model          string        // model identifier, e.g. "gpt-4o-mini"
	APIKey         string        // expanded from env var by Load
	Timeout        time.Duration // per-request timeout
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

const (
	defaultAddr           = "127.0.0.1:5000"
	defaultStorePath      = "jobs.db"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultRequestTimeout = 2 * time.Minute
	defaultShutdown       = 10 * time.Second
	defaultFetchTimeout   = 20 * time.Second
	defaultAITimeout      = 30 * time.Second
	defaultRetryDelay     = 2 * time.Second
	defaultMaxRetries     = 2

	// storeWriteHeadroom is reserved inside server.request_timeout for
	// appending and listing once the sources are done.
	storeWriteHeadroom = 5 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server  rawServerConfig            `yaml:"server"`
	Store   StoreConfig                `yaml:"store"`
	Scrape  rawScrapeConfig            `yaml:"scrape"`
	Sources map[string]rawSourceConfig `yaml:"sources"`
	Filters FilterConfig               `yaml:"filters"`
	AI      rawAIConfig                `yaml:"ai"`
	Log     LogConfig                  `yaml:"log"`
}

type rawServerConfig struct {
	Addr            string `yaml:"addr"`
	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawScrapeConfig struct {
	UserAgent      string   `yaml:"user_agent"`
	FetchTimeout   string   `yaml:"fetch_timeout"`
	Sequential     bool     `yaml:"sequential"`
	DefaultSources []string `yaml:"default_sources"`
}

type rawSourceConfig struct {
	Enabled *bool  `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type rawAIConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	Timeout        string `yaml:"timeout"`
	MaxRetries     *int   `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg, err := build(rawConfig{})
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return build(raw)
}

func build(raw rawConfig) (*Config, error) {
	requestTimeout, err := parseDuration("server.request_timeout", raw.Server.RequestTimeout, defaultRequestTimeout)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("server.shutdown_timeout", raw.Server.ShutdownTimeout, defaultShutdown)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("scrape.fetch_timeout", raw.Scrape.FetchTimeout, defaultFetchTimeout)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, defaultAITimeout)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("ai.retry_base_delay", raw.AI.RetryBaseDelay, defaultRetryDelay)
	if err != nil {
		return nil, err
	}

	sources := make(map[model.Source]SourceConfig, len(model.AllSources))
	for _, s := range model.AllSources {
		sources[s] = SourceConfig{Enabled: true}
	}
	for key, rs := range raw.Sources {
		s, ok := model.ParseSource(key)
		if !ok {
			return nil, fmt.Errorf("sources: unknown source %q", key)
		}
		sc := SourceConfig{Enabled: true, BaseURL: rs.BaseURL}
		if rs.Enabled != nil {
			sc.Enabled = *rs.Enabled
		}
		sources[s] = sc
	}

	defaults := model.AllSources
	if raw.Scrape.DefaultSources != nil {
		defaults = model.ParseSources(raw.Scrape.DefaultSources)
		if len(defaults) != len(raw.Scrape.DefaultSources) {
			return nil, fmt.Errorf("scrape.default_sources contains unknown or repeated sources: %v", raw.Scrape.DefaultSources)
		}
	}

	maxRetries := defaultMaxRetries
	if raw.AI.MaxRetries != nil {
		maxRetries = *raw.AI.MaxRetries
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            orDefault(raw.Server.Addr, defaultAddr),
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Store: StoreConfig{
			Driver: orDefault(raw.Store.Driver, "sqlite"),
			Path:   orDefault(raw.Store.Path, defaultStorePath),
			DSN:    raw.Store.DSN,
		},
		Scrape: ScrapeConfig{
			UserAgent:      raw.Scrape.UserAgent,
			FetchTimeout:   fetchTimeout,
			Sequential:     raw.Scrape.Sequential,
			DefaultSources: defaults,
		},
		Sources: sources,
		Filters: raw.Filters,
		AI: AIConfig{
			Enabled:        raw.AI.Enabled,
			BaseURL:        orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:          raw.AI.Model,
			APIKey:         raw.AI.APIKey,
			Timeout:        aiTimeout,
			MaxRetries:     maxRetries,
			RetryBaseDelay: retryDelay,
		},
		Log: LogConfig{
			Level:  orDefault(raw.Log.Level, "info"),
			Format: orDefault(raw.Log.Format, "text"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnabledSources returns the enabled sources in default order.
func (c *Config) EnabledSources() []model.Source {
	var out []model.Source
	for _, s := range model.AllSources {
		if c.Sources[s].Enabled {
			out = append(out, s)
		}
	}
	return out
}

// fetchBudget is the longest a scrape can spend on the sources: one
// fetch_timeout when they run concurrently, one per enabled source otherwise.
func (c *Config) fetchBudget() time.Duration {
	if !c.Scrape.Sequential {
		return c.Scrape.FetchTimeout
	}
	return c.Scrape.FetchTimeout * time.Duration(max(len(c.EnabledSources()), 1))
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, raw, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Scrape.FetchTimeout <= 0 {
		return fmt.Errorf("scrape.fetch_timeout must be positive, got %v", cfg.Scrape.FetchTimeout)
	}
	if budget := cfg.fetchBudget() + storeWriteHeadroom; budget >= cfg.Server.RequestTimeout {
		return fmt.Errorf("scrape.fetch_timeout (%v, %v for all sources) plus %v for the store write must stay below server.request_timeout (%v)",
			cfg.Scrape.FetchTimeout, cfg.fetchBudget(), storeWriteHeadroom, cfg.Server.RequestTimeout)
	}

	switch cfg.Store.Driver {
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite")
		}
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is \"postgres\"")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver must be sqlite, postgres or memory, got %q", cfg.Store.Driver)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}

	if cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", cfg.AI.MaxRetries)
	}
	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
