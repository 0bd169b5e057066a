package config

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	urlutil "github.com/law-makers/uniscrape/internal/utils/url"
)

func validate(c *Config) error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Parallel <= 0 || c.Parallel > MaxParallel {
		return fmt.Errorf("parallel must be between 1 and %d", MaxParallel)
	}
	for _, p := range c.Proxies {
		if u, err := url.Parse(p); err != nil || u.Host == "" {
			return fmt.Errorf("invalid proxy %q", p)
		}
	}
	for slug, s := range c.Sites {
		if s.BaseURL != "" {
			if err := urlutil.ValidateURL(s.BaseURL); err != nil {
				return fmt.Errorf("site %s base_url: %w", slug, err)
			}
		}
		if s.PageDelay != nil && *s.PageDelay < 0 {
			return fmt.Errorf("site %s page_delay must be >= 0", slug)
		}
	}
	return nil
}
