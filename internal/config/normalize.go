package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeListenBrainz()
	return c.normalizeLogging()
}

func (c *Config) normalizeCatalog() error {
	var err error
	c.Catalog.Path = strings.TrimSpace(c.Catalog.Path)
	if c.Catalog.Path == "" {
		c.Catalog.Path = defaultCatalogPath
	}
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	if c.Catalog.BackupDir, err = expandPath(strings.TrimSpace(c.Catalog.BackupDir)); err != nil {
		return fmt.Errorf("catalog.backup_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	var err error
	c.Library.Path = strings.TrimSpace(c.Library.Path)
	if c.Library.Path == "" {
		c.Library.Path = defaultLibraryPath
	}
	if c.Library.Path, err = expandPath(c.Library.Path); err != nil {
		return fmt.Errorf("library.path: %w", err)
	}
	if c.Library.ExcludePlaylists == nil {
		c.Library.ExcludePlaylists = append([]string(nil), DefaultExcludedPlaylists...)
		return nil
	}
	names := make([]string, 0, len(c.Library.ExcludePlaylists))
	seen := make(map[string]struct{}, len(c.Library.ExcludePlaylists))
	for _, name := range c.Library.ExcludePlaylists {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	c.Library.ExcludePlaylists = names
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.TieBreak = strings.ToLower(strings.TrimSpace(c.Matching.TieBreak))
	if c.Matching.TieBreak == "" {
		c.Matching.TieBreak = defaultTieBreak
	}
}

func (c *Config) normalizeListenBrainz() {
	c.ListenBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.ListenBrainz.BaseURL), "/")
	if c.ListenBrainz.BaseURL == "" {
		c.ListenBrainz.BaseURL = defaultListenBrainzBaseURL
	}
	c.ListenBrainz.User = strings.TrimSpace(c.ListenBrainz.User)
	if c.ListenBrainz.Count <= 0 {
		c.ListenBrainz.Count = defaultListenBrainzCount
	}
	if c.ListenBrainz.TimeoutSeconds <= 0 {
		c.ListenBrainz.TimeoutSeconds = defaultListenBrainzTimeout
	}
	c.ListenBrainz.Token = strings.TrimSpace(c.ListenBrainz.Token)
	if c.ListenBrainz.Token == "" {
		if value, ok := os.LookupEnv(listenBrainzTokenEnv); ok {
			c.ListenBrainz.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	if len(c.Logging.ComponentOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			component = strings.ToLower(strings.TrimSpace(component))
			level = strings.ToLower(strings.TrimSpace(level))
			if component == "" || level == "" {
				continue
			}
			overrides[component] = level
		}
		c.Logging.ComponentOverrides = overrides
	}
	return nil
}
