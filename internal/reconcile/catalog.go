package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"playsync/internal/catalog"
	"playsync/internal/logging"
	"playsync/internal/matching"
	"playsync/internal/playhistory"
)

// ImportCatalog fills never-played rows from the played rows of another
// catalog. source should be opened read-only.
func (r *Runner) ImportCatalog(ctx context.Context, source *catalog.Store) (Summary, error) {
	if source == nil {
		return Summary{}, fmt.Errorf("import catalog: no source catalog")
	}
	if sameFile(source.Path(), r.store.Path()) {
		return Summary{}, fmt.Errorf("import catalog: source and target are the same file %s", source.Path())
	}
	played, err := source.PlayedSongs(ctx, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("read source catalog: %w", err)
	}

	return r.run(ctx, ScenarioCatalog, func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error {
		unplayed, err := tx.Songs(ctx, catalog.Filter{Unplayed: true})
		if err != nil {
			return err
		}
		logger.Info("source catalog loaded",
			logging.String("source", source.Path()),
			logging.Int("played_rows", len(played)),
			logging.Int("unplayed_rows", len(unplayed)),
		)
		m := r.matcher(matching.NewIndex(unplayed), logger)
		touched := make(map[int64]struct{})

		for _, src := range played {
			s.Examined++
			incoming := src.Record()
			res := m.Match(incoming.Identity)
			if !recordMatch(s, logger, res, src.Artist+" - "+src.Title) {
				continue
			}
			if _, seen := touched[res.Song.RowID]; seen {
				s.Skipped++
				continue
			}

			existing := res.Song.Record()
			next, changed := playhistory.Merge(existing, incoming, playhistory.ModeFill)
			if !changed {
				s.Skipped++
				continue
			}
			n, err := tx.Apply(ctx, catalog.Update{Mode: playhistory.ModeFill, URL: res.Song.URL, Observed: existing, Next: next})
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
				logging.String(logging.FieldStrategy, res.Strategy.String()),
				logging.Uint32("playcount", next.PlayCount),
				logging.Int64("lastplayed", next.LastPlayed),
			)
		}
		return nil
	})
}

// sameFile reports whether a and b name the same file, following symlinks
// and relative paths.
func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
