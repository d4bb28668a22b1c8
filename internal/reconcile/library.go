package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"playsync/internal/catalog"
	"playsync/internal/library"
	"playsync/internal/logging"
	"playsync/internal/matching"
	"playsync/internal/playhistory"
)

// LibraryOptions select which catalog rows a legacy import may touch.
type LibraryOptions struct {
	// Albums restricts candidate rows to these album names.
	Albums []string
	// UnplayedOnly restricts candidate rows to never-played rows.
	UnplayedOnly bool
	// UpdateExisting adds source counts to rows that already have plays.
	UpdateExisting bool
}

// ImportLibrary merges play history from a legacy library export. Never
// played rows are filled from the source track; rows with plays are summed
// when UpdateExisting is set and left alone otherwise.
func (r *Runner) ImportLibrary(ctx context.Context, lib *library.Library, opts LibraryOptions) (Summary, error) {
	if lib == nil {
		return Summary{}, fmt.Errorf("import library: no library loaded")
	}
	return r.run(ctx, ScenarioLibrary, func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error {
		songs, err := tx.Songs(ctx, catalog.Filter{Albums: opts.Albums, Unplayed: opts.UnplayedOnly})
		if err != nil {
			return err
		}
		logger.Info("library loaded",
			logging.String("version", lib.Version()),
			logging.Int("tracks", len(lib.Tracks)),
			logging.Int("candidate_rows", len(songs)),
		)
		m := r.matcher(matching.NewIndex(songs), logger)
		now := r.opts.Now()
		touched := make(map[int64]struct{})

		for _, key := range lib.TrackKeys() {
			entry := lib.Tracks[key].Impute(key, now)
			s.Examined++
			if !entry.HasLocation {
				s.Skipped++
				logging.WarnWithContext(logger, "track has no location, skipping", "track_no_location",
					logging.String("track_key", key),
					logging.String("name", entry.Name),
					logging.String("artist", entry.Artist),
				)
				continue
			}

			incoming := entry.Record()
			res := m.Match(incoming.Identity)
			if !recordMatch(s, logger, res, entry.Artist+" - "+entry.Name) {
				continue
			}
			if _, seen := touched[res.Song.RowID]; seen {
				s.Skipped++
				logger.Info("catalog row already merged this run, skipping",
					logging.String(logging.FieldURL, res.Song.URL),
					logging.String("track_key", key),
				)
				continue
			}

			existing := res.Song.Record()
			mode := playhistory.ModeFill
			if existing.PlayCount != 0 {
				if !opts.UpdateExisting {
					s.Skipped++
					logger.Debug("catalog row already played, leaving unchanged",
						logging.String(logging.FieldURL, res.Song.URL))
					continue
				}
				mode = playhistory.ModeAdditive
			} else if entry.Unplayed() {
				s.Skipped++
				logging.WarnWithContext(logger, "unplayed in source, not altering play count", "source_unplayed",
					logging.String(logging.FieldURL, res.Song.URL),
					logging.String(logging.FieldImpact, "catalog row left unplayed"),
					logging.String(logging.FieldErrorHint, "none needed"),
				)
				continue
			}

			next, changed := playhistory.Merge(existing, incoming, mode)
			if !changed {
				s.Skipped++
				continue
			}
			n, err := tx.Apply(ctx, catalog.Update{Mode: mode, URL: res.Song.URL, Observed: existing, Next: next})
			if err != nil {
				return err
			}
			if n == 0 {
				s.Ineffective++
				warnIneffective(logger, res.Song.URL)
				continue
			}
			touched[res.Song.RowID] = struct{}{}
			s.Updated++
			logger.Info("track updated",
				logging.String(logging.FieldURL, res.Song.URL),
				logging.String("mode", mode.String()),
				logging.String(logging.FieldStrategy, res.Strategy.String()),
				logging.Uint32("playcount", next.PlayCount),
				logging.Uint32("skipcount", next.SkipCount),
				logging.Int64("lastplayed", next.LastPlayed),
			)
		}
		return nil
	})
}
