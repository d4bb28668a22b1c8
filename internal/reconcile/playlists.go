package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"playsync/internal/catalog"
	"playsync/internal/library"
	"playsync/internal/logging"
	"playsync/internal/matching"
)

// PlaylistOptions select which legacy playlists are imported.
type PlaylistOptions struct {
	// Only imports just the named playlist, even when it is excluded.
	Only string
	// ConvertSmart imports rule-based playlists as static snapshots.
	ConvertSmart bool
	// Exclude lists playlist names skipped unless named by Only.
	Exclude []string
}

func (o PlaylistOptions) selects(name string) bool {
	if o.Only != "" {
		return name == o.Only
	}
	for _, excluded := range o.Exclude {
		if strings.TrimSpace(excluded) == name {
			return false
		}
	}
	return true
}

// ImportPlaylists creates catalog playlists from the legacy export. A
// playlist whose name already exists in the catalog is reported and skipped;
// it never aborts the remaining playlists.
func (r *Runner) ImportPlaylists(ctx context.Context, lib *library.Library, opts PlaylistOptions) (Summary, error) {
	if lib == nil {
		return Summary{}, fmt.Errorf("import playlists: no library loaded")
	}
	return r.run(ctx, ScenarioPlaylists, func(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger) error {
		songs, err := tx.Songs(ctx, catalog.Filter{})
		if err != nil {
			return err
		}
		m := r.matcher(matching.NewIndex(songs), logger)
		now := r.opts.Now()

		for _, pl := range lib.Playlists {
			if !opts.selects(pl.Name) {
				logger.Debug("playlist not selected", logging.String("playlist", pl.Name))
				continue
			}
			s.Examined++
			plLogger := logger.With(logging.String("playlist", pl.Name))
			if pl.Empty() {
				s.Skipped++
				logging.WarnWithContext(plLogger, "playlist has no items, not creating", "playlist_empty",
					logging.String(logging.FieldImpact, "playlist not imported"),
					logging.String(logging.FieldErrorHint, "none needed"),
				)
				continue
			}
			if pl.IsSmart() && !opts.ConvertSmart {
				s.Skipped++
				logging.WarnWithContext(plLogger, "smart playlist excluded, needs manual recreation", "playlist_smart",
					logging.String(logging.FieldImpact, "playlist not imported"),
					logging.String(logging.FieldErrorHint, "pass --convert-smart-playlists to import a static snapshot"),
				)
				continue
			}

			id, err := tx.CreatePlaylist(ctx, pl.Name)
			if errors.Is(err, catalog.ErrPlaylistExists) {
				s.Skipped++
				logging.ErrorWithContext(plLogger, "playlist already present in catalog, not overwriting", "playlist_duplicate",
					logging.String(logging.FieldErrorHint, "rename or delete the catalog playlist first"),
				)
				continue
			}
			if errors.Is(err, catalog.ErrInvalidPlaylist) {
				s.Skipped++
				logging.WarnWithContext(plLogger, "playlist name is blank, not creating", "playlist_invalid",
					logging.Int64("playlist_id", pl.PlaylistID),
					logging.String(logging.FieldImpact, "playlist not imported"),
					logging.String(logging.FieldErrorHint, "give the playlist a name in the library"),
				)
				continue
			}
			if err != nil {
				return err
			}
			s.PlaylistsCreated++
			if err := r.addPlaylistItems(ctx, tx, s, plLogger, m, lib, pl, id, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Runner) addPlaylistItems(ctx context.Context, tx *catalog.Tx, s *Summary, logger *slog.Logger,
	m *matching.Matcher, lib *library.Library, pl library.Playlist, playlistID int64, now time.Time) error {
	added := 0
	for pos, item := range pl.Items {
		if item.TrackID == nil {
			s.Skipped++
			logging.WarnWithContext(logger, "playlist item has no track id, skipping", "playlist_item_invalid",
				logging.Int("position", pos))
			continue
		}
		track, ok := lib.Track(*item.TrackID)
		if !ok {
			s.Skipped++
			logging.WarnWithContext(logger, "track id not found in library, skipping", "playlist_item_missing",
				logging.Int64("track_id", *item.TrackID),
				logging.Int("position", pos),
			)
			continue
		}
		entry := track.Impute(strconv.FormatInt(*item.TrackID, 10), now)
		if !entry.HasLocation {
			s.Skipped++
			logging.WarnWithContext(logger, "track has no location, skipping", "track_no_location",
				logging.Int64("track_id", *item.TrackID),
				logging.String("name", entry.Name),
			)
			continue
		}
		res := m.Match(entry.Record().Identity)
		if !recordMatch(s, logger, res, entry.Artist+" - "+entry.Name) {
			continue
		}
		if _, err := tx.AddPlaylistItem(ctx, playlistID, res.Song.RowID); err != nil {
			return err
		}
		added++
		s.PlaylistItems++
	}
	logger.Info("playlist imported",
		logging.Int64("playlist_id", playlistID),
		logging.Int("items", added),
		logging.Int("source_items", len(pl.Items)),
	)
	return nil
}
