package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"playsync/internal/catalog"
	"playsync/internal/config"
	"playsync/internal/logging"
	"playsync/internal/matching"
	"playsync/internal/urlnorm"
)

// Options control how a Runner writes and matches.
type Options struct {
	// Write commits effective runs. When false every run is rolled back.
	Write bool
	// Lock takes the catalog's advisory lock for the duration of a run.
	Lock bool
	// Backup copies the catalog before a writing run begins.
	Backup    bool
	BackupDir string

	Rewriter            *urlnorm.Rewriter
	ArtistTitleFallback bool
	TieBreak            matching.TieBreak

	// Now supplies the imputed play date for tracks without one.
	Now func() time.Time
	// RunID labels every run; a fresh id is generated per run when empty.
	RunID string
}

// OptionsFromConfig derives runner options from configuration. Rewrite rules
// from flags, when present, replace the configured ones.
func OptionsFromConfig(cfg *config.Config, write bool, flagRules []urlnorm.Rule) (Options, error) {
	rules := flagRules
	if len(rules) == 0 {
		rules = cfg.RewriteRules()
	}
	rw, err := urlnorm.NewRewriter(rules...)
	if err != nil {
		return Options{}, err
	}
	tb, err := matching.ParseTieBreak(cfg.Matching.TieBreak)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Write:               write,
		Lock:                cfg.Catalog.Lock,
		Backup:              cfg.Catalog.Backup,
		BackupDir:           cfg.Catalog.BackupDir,
		Rewriter:            rw,
		ArtistTitleFallback: cfg.Matching.ArtistTitleFallback,
		TieBreak:            tb,
	}, nil
}

// Runner executes scenarios against one catalog.
type Runner struct {
	store  *catalog.Store
	opts   Options
	logger *slog.Logger
	newID  func() string
}

// NewRunner binds a runner to an open, writable catalog.
func NewRunner(store *catalog.Store, opts Options, logger *slog.Logger) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TieBreak == "" {
		opts.TieBreak = matching.TieBreakFewestPlays
	}
	newID := uuid.NewString
	if opts.RunID != "" {
		newID = func() string { return opts.RunID }
	}
	return &Runner{
		store:  store,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "reconcile"),
		newID:  newID,
	}
}

// scenarioFunc performs one scenario's reads and writes inside tx.
type scenarioFunc func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error

// run wraps fn in the lock, backup and transaction lifecycle.
func (r *Runner) run(ctx context.Context, scenario string, fn scenarioFunc) (Summary, error) {
	s := newSummary(scenario, r.newID(), !r.opts.Write)
	ctx = logging.ContextWithRun(ctx, s.RunID, scenario)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.Bool("write_updates", r.opts.Write),
		logging.Int("rewrite_rules", r.opts.Rewriter.Len()),
		logging.String("tie_break", string(r.opts.TieBreak)),
		logging.Bool("artist_title_fallback", r.opts.ArtistTitleFallback),
	)

	if r.opts.Write && r.opts.Lock {
		lock, err := catalog.AcquireLock(ctx, r.store.Path())
		if err != nil {
			return *s, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Debug("release lock failed", logging.Error(err))
			}
		}()
	}

	if r.opts.Write && r.opts.Backup {
		path, err := r.store.Backup(r.opts.BackupDir, r.opts.Now())
		if err != nil {
			return *s, fmt.Errorf("backup catalog: %w", err)
		}
		s.Backup = path
		logger.Info("catalog backed up", logging.String("path", path))
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		r.discardBackup(s, logger)
		return *s, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			logger.Debug("rollback failed", logging.Error(err))
		}
	}()

	if err := fn(ctx, tx, s, logger); err != nil {
		r.discardBackup(s, logger)
		hint := "fix the reported problem and re-run"
		if catalog.IsFatal(err) {
			hint = "check the catalog file is intact and not held by the player"
		}
		logging.ErrorWithContext(logger, "run aborted, catalog rolled back", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
		)
		return *s, err
	}

	count := s.Count()
	if count == 0 || !r.opts.Write {
		r.discardBackup(s, logger)
		logger.Info("run finished without commit",
			logging.Int("count", count),
			logging.Bool("write_updates", r.opts.Write),
		)
		return *s, nil
	}
	if err := tx.Commit(); err != nil {
		return *s, err
	}
	s.Committed = true
	logger.Info("run committed", logging.Int("count", count))
	return *s, nil
}

func (r *Runner) discardBackup(s *Summary, logger *slog.Logger) {
	if s.Backup == "" {
		return
	}
	if err := os.Remove(s.Backup); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("remove unused backup failed", logging.String("path", s.Backup), logging.Error(err))
		return
	}
	s.Backup = ""
}

func (r *Runner) matcher(index *matching.Index, logger *slog.Logger) *matching.Matcher {
	return matching.New(index,
		matching.WithRewriter(r.opts.Rewriter),
		matching.WithArtistTitleFallback(r.opts.ArtistTitleFallback),
		matching.WithTieBreak(r.opts.TieBreak),
		matching.WithLogger(logger),
	)
}

// recordMatch counts a resolved lookup or logs the miss.
func recordMatch(s *Summary, logger *slog.Logger, res matching.Result, what string) bool {
	if res.Matched() {
		s.Matched++
		s.ByStrategy[res.Strategy.String()]++
		return true
	}
	s.Unmatched++
	if res.Ambiguous {
		logging.WarnWithContext(logger, "ambiguous catalog match, skipping", "track_ambiguous",
			logging.String("track", what),
			logging.Int("candidates", res.Candidates),
			logging.String(logging.FieldErrorHint, "set matching.tie_break to first or fewest_plays"),
			logging.String(logging.FieldImpact, "play history not imported for this track"),
		)
		return false
	}
	logging.WarnWithContext(logger, "no catalog match, skipping", "track_unmatched",
		logging.String("track", what),
		logging.String(logging.FieldURL, res.URL),
		logging.String("alternate_url", res.Alternate),
		logging.String(logging.FieldErrorHint, "add a --replace-url rule or check the catalog path"),
		logging.String(logging.FieldImpact, "play history not imported for this track"),
	)
	return false
}

func warnIneffective(logger *slog.Logger, url string) {
	logging.WarnWithContext(logger, "catalog row changed before write, skipping", "write_ineffective",
		logging.String(logging.FieldURL, url),
		logging.String(logging.FieldErrorHint, "re-run after the player has closed the catalog"),
		logging.String(logging.FieldImpact, "row left unchanged"),
	)
}
