// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/uniscrape/internal/config"
	"github.com/law-makers/uniscrape/internal/fetch"
	"github.com/law-makers/uniscrape/internal/institutions"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/internal/proxy"
	"github.com/law-makers/uniscrape/internal/ratelimit"
	"github.com/law-makers/uniscrape/internal/store"
	"github.com/law-makers/uniscrape/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Store       *store.Store
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	Fetcher     *fetch.Client
	Runner      *pipeline.Runner
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the SQLite store and applies the schema
//   - Creates the per-host rate limiter
//   - Initializes the HTTP client, proxy rotation and optional renderer
//   - Creates the pipeline runner
//
// If any step fails, an error is returned and no resources are left open.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg)

	if unknown := cfg.Unknown(institutions.Slugs()); len(unknown) > 0 {
		logger.Warn().Strs("slugs", unknown).Msg("Ignoring configuration for unknown institutions")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", cfg.DBPath).Msg("Store opened")

	// Per-site page delays are installed by the runner
	rateLimiter := ratelimit.NewDomainLimiter(0)

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Msg("HTTP client initialized")

	var proxies *proxy.Pool
	if len(cfg.Proxies) > 0 {
		proxies, err = proxy.NewPool(cfg.Proxies)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug().Int("proxies", proxies.Len()).Msg("Proxy rotation enabled")
	}

	var renderer *fetch.Renderer
	if anyRender(cfg) {
		chromePath := cfg.ChromePath
		if chromePath == "" {
			chromePath = fetch.FindChrome()
		}
		firstProxy := ""
		if len(cfg.Proxies) > 0 {
			firstProxy = cfg.Proxies[0]
		}
		renderer = fetch.NewRenderer(fetch.RendererOptions{
			ChromePath: chromePath,
			Headless:   cfg.Headless,
			UserAgent:  cfg.UserAgent,
			Proxy:      firstProxy,
			Timeout:    2 * cfg.HTTPTimeout,
			Settle:     cfg.RenderWait,
		})
		logger.Debug().Str("chrome", chromePath).Msg("Renderer initialized")
	}

	fetcher := fetch.NewClient(httpClient, rateLimiter, fetch.Options{
		UserAgent:        cfg.UserAgent,
		CloudflareBypass: cfg.CloudflareBypass,
		Proxies:          proxies,
		Renderer:         renderer,
	})

	var diag pipeline.Diagnostics = pipeline.NopDiagnostics{}
	if cfg.DumpDir != "" {
		if err := os.MkdirAll(cfg.DumpDir, 0o755); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create dump dir: %w", err)
		}
		diag = pipeline.DirDiagnostics{Dir: cfg.DumpDir}
	}

	runner := pipeline.NewRunner(db, fetcher, pipeline.Options{
		Limiter:     rateLimiter,
		Diagnostics: diag,
		Debug:       cfg.Debug,
	})

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Store:       db,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		Fetcher:     fetcher,
		Runner:      runner,
		startTime:   time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

func anyRender(cfg *config.Config) bool {
	for _, s := range cfg.Sites {
		if s.Render {
			return true
		}
	}
	return false
}

// Strategy builds the strategy for slug with its configured overrides
func (a *Application) Strategy(slug string) (pipeline.Strategy, error) {
	site := a.Config.Site(slug)
	return institutions.New(slug, institutions.Options{
		BaseURL:   site.BaseURL,
		PageDelay: site.PageDelay,
		Render:    site.Render,
		Headers:   site.Headers,
	})
}

// Strategies builds the strategies of every enabled institution in fixed order
func (a *Application) Strategies() ([]pipeline.Strategy, error) {
	var out []pipeline.Strategy
	for _, slug := range a.Config.Enabled(institutions.Slugs()) {
		s, err := a.Strategy(slug)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Seed ensures an institution row exists for every supported slug
func (a *Application) Seed(ctx context.Context) ([]models.Institution, error) {
	var out []models.Institution
	for _, inst := range institutions.Seeds() {
		row, err := a.Store.EnsureInstitution(ctx, inst)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, nil
}

// Scrape runs one institution
func (a *Application) Scrape(ctx context.Context, slug string) (*pipeline.Report, error) {
	s, err := a.Strategy(slug)
	if err != nil {
		return nil, err
	}
	return a.Runner.Run(ctx, s), nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	var err error
	if a.Store != nil {
		if err = a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
