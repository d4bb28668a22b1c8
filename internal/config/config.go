package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Catalog locates the player catalog and controls write-run safeguards.
type Catalog struct {
	Path      string `toml:"path"`
	Lock      bool   `toml:"lock"`
	Backup    bool   `toml:"backup"`
	BackupDir string `toml:"backup_dir"`
}

// Library points at the exported legacy library.
type Library struct {
	Path             string   `toml:"path"`
	ExcludePlaylists []string `toml:"exclude_playlists"`
}

// RewriteRule is one ordered URL rewrite used for the alternate lookup.
type RewriteRule struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
}

// Matching controls how source tracks are resolved to catalog rows.
type Matching struct {
	ArtistTitleFallback bool          `toml:"artist_title_fallback"`
	TieBreak            string        `toml:"tie_break"`
	Rewrite             []RewriteRule `toml:"rewrite"`
}

// ListenBrainz configures the listen-service client.
type ListenBrainz struct {
	BaseURL        string `toml:"base_url"`
	User           string `toml:"user"`
	Count          int    `toml:"count"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Token          string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	Dir                string            `toml:"dir"`
	RetentionDays      int               `toml:"retention_days"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for playsync.
type Config struct {
	Catalog      Catalog      `toml:"catalog"`
	Library      Library      `toml:"library"`
	Matching     Matching     `toml:"matching"`
	ListenBrainz ListenBrainz `toml:"listenbrainz"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("playsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Normalize re-applies path expansion and defaults after callers override
// fields, for example from command-line flags.
func (c *Config) Normalize() error {
	return c.normalize()
}

// ListenBrainzTimeout returns the HTTP timeout for the listen service.
func (c *Config) ListenBrainzTimeout() time.Duration {
	return time.Duration(c.ListenBrainz.TimeoutSeconds) * time.Second
}

// IsExcludedPlaylist reports whether name is in library.exclude_playlists.
func (c *Config) IsExcludedPlaylist(name string) bool {
	for _, excluded := range c.Library.ExcludePlaylists {
		if excluded == name {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
