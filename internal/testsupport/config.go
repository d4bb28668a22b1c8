package testsupport

import (
	"path/filepath"
	"testing"

	"playsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose catalog and library paths live in a
// unique temp directory. Neither file is created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Catalog.Path = filepath.Join(base, "strawberry.db")
	cfgVal.Catalog.BackupDir = filepath.Join(base, "backups")
	cfgVal.Library.Path = filepath.Join(base, "Library.xml")
	cfgVal.ListenBrainz.BaseURL = "http://127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalog creates an empty catalog at the configured path.
func WithCatalog() ConfigOption {
	return func(b *configBuilder) {
		CreateCatalog(b.t, b.cfg.Catalog.Path)
	}
}

// WithTieBreak sets the artist/title tie-break policy.
func WithTieBreak(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.TieBreak = policy
	}
}

// WithRewrite appends a URL rewrite rule.
func WithRewrite(pattern, replacement string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Rewrite = append(b.cfg.Matching.Rewrite, config.RewriteRule{
			Pattern:     pattern,
			Replacement: replacement,
		})
	}
}

// WithListenBrainz points the listen client at baseURL.
func WithListenBrainz(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ListenBrainz.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Catalog.Path)
}
