package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobrake/internal/adapter"
	"github.com/amishk599/jobrake/internal/aggregator"
	"github.com/amishk599/jobrake/internal/ai"
	"github.com/amishk599/jobrake/internal/config"
	"github.com/amishk599/jobrake/internal/metrics"
	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/normalize"
	"github.com/amishk599/jobrake/internal/retry"
	"github.com/amishk599/jobrake/internal/service"
	"github.com/amishk599/jobrake/internal/store"
)

const (
	configEnv         = "JOBRAKE_CONFIG"
	defaultConfigPath = "config.yaml"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobrake",
	Short: "Rake job postings from Indeed, LinkedIn and Glassdoor",
	Long:  "jobrake scrapes job boards for a title and location, normalizes the results, and keeps them in a local store.",
	// With no subcommand, run the server.
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRAKE_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBRAKE_CONFIG env var > "./config.yaml".
// A missing ./config.yaml falls back to the built-in defaults; a missing
// explicit path is an error.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		cfg, err := config.Load(defaultConfigPath)
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return cfg, err
	}
	return config.Load(path)
}

// setupLogger builds the slog logger. Logs go to stderr so --json output on
// stdout stays parseable.
func setupLogger(cfg config.LogConfig, dbg bool) *slog.Logger {
	return newLogger(os.Stderr, cfg, dbg)
}

func newLogger(w io.Writer, cfg config.LogConfig, dbg bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	if dbg {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// bootstrap loads config and the logger shared by every command.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, setupLogger(config.LogConfig{}, debug), fmt.Errorf("load config: %w", err)
	}
	return cfg, setupLogger(cfg.Log, debug), nil
}

// createAdapter returns the adapter for one source.
func createAdapter(src model.Source, sc config.SourceConfig, userAgent string, httpClient *http.Client) (model.SourceAdapter, bool) {
	switch src {
	case model.SourceIndeed:
		return adapter.NewIndeedAdapter(sc.BaseURL, userAgent, httpClient), true
	case model.SourceLinkedIn:
		return adapter.NewLinkedInAdapter(sc.BaseURL, userAgent, httpClient), true
	case model.SourceGlassdoor:
		return adapter.NewGlassdoorAdapter(sc.BaseURL, userAgent, httpClient), true
	default:
		return nil, false
	}
}

func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	var adapters []model.SourceAdapter
	for _, src := range cfg.EnabledSources() {
		a, ok := createAdapter(src, cfg.Sources[src], cfg.Scrape.UserAgent, httpClient)
		if !ok {
			logger.Warn("unsupported source, skipping", "source", src)
			continue
		}
		adapters = append(adapters, a)
		logger.Debug("registered source", "source", src, "base_url", cfg.Sources[src].BaseURL)
	}
	return adapters
}

func openStore(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (model.PostingStore, error) {
	driver := cfg.Store.Driver
	if dryRun {
		logger.Info("dry-run mode enabled, postings are kept in memory only")
		driver = store.DriverMemory
	}
	s, err := store.Open(ctx, driver, cfg.Store.Path, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return s, nil
}

// setupAnalyzer returns the LLM generator, or a NopGenerator when AI is disabled.
func setupAnalyzer(cfg *config.Config, logger *slog.Logger) model.Generator {
	if !cfg.AI.Enabled {
		return ai.NewNopGenerator()
	}
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, httpClient)
	logger.Info("AI analysis enabled", "model", cfg.AI.Model)
	return retry.NewGenerator(provider, cfg.AI.MaxRetries, cfg.AI.RetryBaseDelay, logger)
}

// app holds the wired components for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   model.PostingStore
	metrics *metrics.Metrics
	jobs    *service.JobService
	analyst *ai.Analyst
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*app, error) {
	st, err := openStore(ctx, cfg, dryRun, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	// Whole-request bound; each source is additionally bounded by FetchTimeout.
	httpClient := &http.Client{Timeout: cfg.Scrape.FetchTimeout + 5*time.Second}
	adapters := buildAdapters(cfg, httpClient, logger)

	agg := aggregator.New(adapters, normalize.New(time.Now), logger,
		aggregator.WithFetchTimeout(cfg.Scrape.FetchTimeout),
		aggregator.WithSequential(cfg.Scrape.Sequential),
		aggregator.WithMetrics(m),
	)
	jobs := service.New(agg, st, cfg.Scrape.DefaultSources, m, logger)
	analyst := ai.NewAnalyst(setupAnalyzer(cfg, logger), jobs, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		metrics: m,
		jobs:    jobs,
		analyst: analyst,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}
