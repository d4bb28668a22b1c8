package config

import (
	"errors"
	"fmt"
	"strings"

	"playsync/internal/urlnorm"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateListenBrainz(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return errors.New("catalog.path must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	switch c.Matching.TieBreak {
	case TieBreakFirst, TieBreakFewestPlays, TieBreakStrict:
	default:
		return fmt.Errorf("matching.tie_break must be one of %q, %q or %q (got %q)",
			TieBreakFirst, TieBreakFewestPlays, TieBreakStrict, c.Matching.TieBreak)
	}
	if _, err := urlnorm.NewRewriter(c.RewriteRules()...); err != nil {
		return fmt.Errorf("matching.rewrite: %w", err)
	}
	return nil
}

func (c *Config) validateListenBrainz() error {
	if !strings.HasPrefix(c.ListenBrainz.BaseURL, "http://") && !strings.HasPrefix(c.ListenBrainz.BaseURL, "https://") {
		return fmt.Errorf("listenbrainz.base_url must be an http(s) URL (got %q)", c.ListenBrainz.BaseURL)
	}
	if c.ListenBrainz.Count > maxListenBrainzCount {
		return fmt.Errorf("listenbrainz.count must be at most %d", maxListenBrainzCount)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	for component, level := range c.Logging.ComponentOverrides {
		if !validLevel(level) {
			return fmt.Errorf("logging.component_overrides.%s: invalid level %q", component, level)
		}
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// RewriteRules converts the configured rewrite table into urlnorm rules.
func (c *Config) RewriteRules() []urlnorm.Rule {
	rules := make([]urlnorm.Rule, 0, len(c.Matching.Rewrite))
	for _, rule := range c.Matching.Rewrite {
		rules = append(rules, urlnorm.Rule{Pattern: rule.Pattern, Replacement: rule.Replacement})
	}
	return rules
}
