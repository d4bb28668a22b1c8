package preflight

import (
	"context"
	"os"
	"strings"

	"playsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes all applicable preflight checks for the given config.
// write selects whether the catalog must also be writable.
func RunAll(ctx context.Context, cfg *config.Config, write bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Catalog (always checked)
	results = append(results, CheckCatalogAccess(ctx, "Catalog", cfg.Catalog.Path, write))

	if cfg.Library.Path != "" {
		results = append(results, CheckFileReadable("Library export", cfg.Library.Path))
	}

	// Backup directory is created on first use.
	if write && cfg.Catalog.Backup && cfg.Catalog.BackupDir != "" {
		if _, err := os.Stat(cfg.Catalog.BackupDir); err == nil {
			results = append(results, CheckDirectoryAccess("Backup directory", cfg.Catalog.BackupDir))
		}
	}

	if cfg.Logging.Dir != "" {
		if _, err := os.Stat(cfg.Logging.Dir); err == nil {
			results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
		}
	}

	if strings.TrimSpace(cfg.ListenBrainz.User) != "" {
		results = append(results, CheckListenBrainzFromConfig(ctx, cfg))
	}

	return results
}
