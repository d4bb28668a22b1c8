package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"playsync/internal/catalog"
	"playsync/internal/logging"
	"playsync/internal/playhistory"
)

// ErrSameTrack is returned when both fragments resolve to one row.
var ErrSameTrack = errors.New("consolidate: from and to resolve to the same track")

// Consolidation holds the rows a consolidate run looked at.
type Consolidation struct {
	From   *catalog.Song
	To     *catalog.Song
	Result playhistory.PlayRecord
}

// Consolidate adds the play history of the row matching fromFragment into
// the row matching toFragment: counts are summed and the later last-played
// time wins. The from row is left unchanged. A fragment matching no row is
// reported and leaves the catalog untouched.
func (r *Runner) Consolidate(ctx context.Context, fromFragment, toFragment string) (Summary, Consolidation, error) {
	var out Consolidation
	s, err := r.run(ctx, ScenarioConsolidate, func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error {
		to, err := findFragment(ctx, tx, s, logger, toFragment, "to")
		if err != nil || to == nil {
			return err
		}
		out.To = to
		from, err := findFragment(ctx, tx, s, logger, fromFragment, "from")
		if err != nil || from == nil {
			return err
		}
		out.From = from
		if from.RowID == to.RowID {
			return ErrSameTrack
		}

		existing := to.Record()
		next, changed := playhistory.Merge(existing, from.Record(), playhistory.ModeConsolidate)
		out.Result = next
		if !changed {
			s.Skipped++
			logging.WarnWithContext(logger, "unplayed in both tracks, not altering", "consolidate_noop",
				logging.String("from", from.URL),
				logging.String("to", to.URL),
				logging.String(logging.FieldImpact, "catalog row left unchanged"),
				logging.String(logging.FieldErrorHint, "none needed"),
			)
			return nil
		}
		n, err := tx.Apply(ctx, catalog.Update{Mode: playhistory.ModeConsolidate, URL: to.URL, Observed: existing, Next: next})
		if err != nil {
			return err
		}
		if n == 0 {
			s.Ineffective++
			warnIneffective(logger, to.URL)
			return nil
		}
		s.Updated++
		logger.Info("tracks consolidated",
			logging.String("from", from.URL),
			logging.String("to", to.URL),
			logging.Uint32("playcount", next.PlayCount),
			logging.Uint32("skipcount", next.SkipCount),
			logging.Int64("lastplayed", next.LastPlayed),
		)
		return nil
	})
	return s, out, err
}

func findFragment(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger, fragment, role string) (*catalog.Song, error) {
	s.Examined++
	song, err := tx.FindByURLFragment(ctx, fragment)
	if errors.Is(err, catalog.ErrNotFound) {
		s.Unmatched++
		logging.ErrorWithContext(logger, "no track found matching url fragment", "track_unmatched",
			logging.String("role", role),
			logging.String("fragment", fragment),
			logging.String(logging.FieldErrorHint, "use a longer or exact fragment of the catalog url"),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Matched++
	s.ByStrategy["url_fragment"]++
	return &song, nil
}
