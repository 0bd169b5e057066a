package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values
type Config struct {
	// Storage
	DBPath string `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`

	// HTTP/Scraping
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	UserAgent        string        `yaml:"user_agent"`
	Proxies          []string      `yaml:"proxies"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass"`

	// Browser rendering
	Headless   bool          `yaml:"headless"`
	ChromePath string        `yaml:"chrome_path"`
	RenderWait time.Duration `yaml:"render_wait"`

	// Runs
	Debug    bool   `yaml:"debug"`
	DumpDir  string `yaml:"dump_dir"`
	Parallel int    `yaml:"parallel"`
	// Institutions restricts scrape-all to these slugs; empty means all
	Institutions []string              `yaml:"institutions"`
	Sites        map[string]SiteConfig `yaml:"sites"`
}

// SiteConfig overrides one institution's built-in settings
type SiteConfig struct {
	BaseURL   string            `yaml:"base_url"`
	PageDelay *time.Duration    `yaml:"page_delay"`
	Render    bool              `yaml:"render"`
	Headers   map[string]string `yaml:"headers"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath:      DefaultDBPath,
		LogLevel:    DefaultLogLevel,
		JSONLog:     DefaultJSONLog,
		HTTPTimeout: DefaultHTTPTimeout,
		Headless:    DefaultHeadless,
		RenderWait:  DefaultRenderWait,
		Parallel:    DefaultParallel,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv(EnvPrefix + "CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// mergeFile reads a YAML file and merges its non-zero values over cfg
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := mergo.Merge(cfg, file, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "PROXIES"); v != "" {
		cfg.Proxies = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv(EnvPrefix + "DUMP_DIR"); v != "" {
		cfg.DumpDir = v
	}
	if v := os.Getenv(EnvPrefix + "INSTITUTIONS"); v != "" {
		cfg.Institutions = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv(EnvPrefix + "DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG: %w", EnvPrefix, err)
		}
		cfg.Debug = b
	}
	return nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()

	if f := flags.Lookup("db"); f != nil && f.Value.String() != "" {
		cfg.DBPath = f.Value.String()
	}
	if f := flags.Lookup("user-agent"); f != nil && f.Value.String() != "" {
		cfg.UserAgent = f.Value.String()
	}
	if f := flags.Lookup("dump-dir"); f != nil && f.Value.String() != "" {
		cfg.DumpDir = f.Value.String()
	}
	if f := flags.Lookup("proxy"); f != nil && f.Changed {
		proxies, err := flags.GetStringSlice("proxy")
		if err != nil {
			return err
		}
		cfg.Proxies = proxies
	}
	if f := flags.Lookup("timeout"); f != nil && f.Value.String() != "" {
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if f := flags.Lookup("json"); f != nil && f.Value.String() == "true" {
		cfg.JSONLog = true
	}
	if f := flags.Lookup("cloudflare"); f != nil && f.Value.String() == "true" {
		cfg.CloudflareBypass = true
	}
	if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
		cfg.Debug = true
	}
	if f := flags.Lookup("quiet"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "error"
	}
	if f := flags.Lookup("verbose"); f != nil && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}
	return nil
}

// Site returns the overrides configured for slug
func (c *Config) Site(slug string) SiteConfig {
	return c.Sites[slug]
}

// Enabled filters all to the configured institutions, keeping the order of all
func (c *Config) Enabled(all []string) []string {
	if len(c.Institutions) == 0 {
		return all
	}
	want := make(map[string]bool, len(c.Institutions))
	for _, s := range c.Institutions {
		want[s] = true
	}
	var out []string
	for _, s := range all {
		if want[s] {
			out = append(out, s)
		}
	}
	return out
}

// Unknown returns configured slugs (enabled list and site overrides) not in known
func (c *Config) Unknown(known []string) []string {
	ok := make(map[string]bool, len(known))
	for _, s := range known {
		ok[s] = true
	}
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !ok[s] && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range c.Institutions {
		add(s)
	}
	for s := range c.Sites {
		add(s)
	}
	sort.Strings(out)
	return out
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
