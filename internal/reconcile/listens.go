package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"playsync/internal/catalog"
	"playsync/internal/listenbrainz"
	"playsync/internal/logging"
	"playsync/internal/matching"
	"playsync/internal/playhistory"
)

// ListenOptions bound the listen history fetched for one run.
type ListenOptions struct {
	// Before fetches listens strictly older than this unix time; zero means now.
	Before int64
	// Count is the page size requested from the service.
	Count int
}

// ImportListens fetches a user's listens and adds one play for every listen
// newer than the matched row's last play. Listens always resolve by artist
// and title, since the service carries no file location.
func (r *Runner) ImportListens(ctx context.Context, fetcher listenbrainz.Fetcher, user string, opts ListenOptions) (Summary, error) {
	user = strings.TrimSpace(user)
	if fetcher == nil || user == "" {
		return Summary{}, fmt.Errorf("import listens: user and client are required")
	}
	listens, err := fetcher.GetListens(ctx, user, opts.Before, opts.Count)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch listens for %s: %w", user, err)
	}

	return r.run(ctx, ScenarioListens, func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error {
		logger.Info("listens fetched", logging.String("user", user), logging.Int("listens", len(listens)))
		songs, err := tx.Songs(ctx, catalog.Filter{})
		if err != nil {
			return err
		}
		m := r.matcher(matching.NewIndex(songs), logger)
		acc := playhistory.NewAccumulator()

		for _, listen := range listens {
			s.Examined++
			res := m.MatchName(listen.ArtistName, listen.TrackName)
			if !recordMatch(s, logger, res, listen.ArtistName+" - "+listen.TrackName) {
				continue
			}
			if !acc.Add(res.Song.Record(), listen.ListenedAt) {
				s.Skipped++
				logger.Debug("listen not newer than last play",
					logging.String(logging.FieldURL, res.Song.URL),
					logging.Int64("listened_at", listen.ListenedAt),
					logging.Int64("lastplayed", res.Song.LastPlayed),
				)
			}
		}

		for _, delta := range acc.Deltas() {
			next := delta.Result()
			url := delta.Base.Identity.URL
			n, err := tx.Apply(ctx, catalog.Update{Mode: playhistory.ModeListen, URL: url, Observed: delta.Base, Next: next})
			if err != nil {
				return err
			}
			if n == 0 {
				s.Ineffective++
				warnIneffective(logger, url)
				continue
			}
			s.Updated++
			logger.Info("listens applied",
				logging.String(logging.FieldURL, url),
				logging.Uint32("listens", delta.Plays),
				logging.Uint32("playcount", next.PlayCount),
				logging.Int64("lastplayed", next.LastPlayed),
			)
		}
		return nil
	})
}
