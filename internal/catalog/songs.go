package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"playsync/internal/playhistory"
)

// Song is the subset of a songs row the importers work with.
type Song struct {
	RowID      int64  `db:"rowid"`
	URL        string `db:"url"`
	Artist     string `db:"artist"`
	Title      string `db:"title"`
	Album      string `db:"album"`
	PlayCount  int64  `db:"playcount"`
	SkipCount  int64  `db:"skipcount"`
	LastPlayed int64  `db:"lastplayed"`
}

// Record converts the row into a play record.
func (s Song) Record() playhistory.PlayRecord {
	return playhistory.PlayRecord{
		Identity: playhistory.TrackIdentity{
			URL:    s.URL,
			Artist: s.Artist,
			Title:  s.Title,
		},
		PlayCount:  playhistory.ClampCount(s.PlayCount),
		SkipCount:  playhistory.ClampCount(s.SkipCount),
		LastPlayed: s.LastPlayed,
	}
}

// LastPlayedTime returns the last play as local time, or the zero time.
func (s Song) LastPlayedTime() time.Time {
	return s.Record().LastPlayedTime()
}

// NULL columns are read as empty strings and zero counts; lastplayed uses the
// player's -1 "never" marker.
const songColumns = `rowid AS rowid,
	url,
	COALESCE(artist, '') AS artist,
	COALESCE(title, '') AS title,
	COALESCE(album, '') AS album,
	COALESCE(playcount, 0) AS playcount,
	COALESCE(skipcount, 0) AS skipcount,
	COALESCE(lastplayed, -1) AS lastplayed`

// Filter narrows a song listing.
type Filter struct {
	// Unplayed keeps rows with playcount = 0.
	Unplayed bool
	// Played keeps rows with playcount <> 0.
	Played bool
	// Albums keeps rows whose album is one of the listed names.
	Albums []string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

type reader struct {
	q sqlx.ExtContext
}

// Songs lists rows matching filter in rowid order.
func (r reader) Songs(ctx context.Context, filter Filter) ([]Song, error) {
	query, args, err := buildSongsQuery(filter)
	if err != nil {
		return nil, wrap("list songs", KindIO, err)
	}
	var songs []Song
	if err := sqlx.SelectContext(ctx, r.q, &songs, r.q.Rebind(query), args...); err != nil {
		return nil, wrap("list songs", KindIO, err)
	}
	return songs, nil
}

func buildSongsQuery(filter Filter) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	switch {
	case filter.Unplayed && filter.Played:
		return "", nil, errors.New("filter cannot select both played and unplayed rows")
	case filter.Unplayed:
		where = append(where, "COALESCE(playcount, 0) = 0")
	case filter.Played:
		where = append(where, "COALESCE(playcount, 0) <> 0")
	}
	if len(filter.Albums) > 0 {
		clause, inArgs, err := sqlx.In("album IN (?)", filter.Albums)
		if err != nil {
			return "", nil, fmt.Errorf("expand album filter: %w", err)
		}
		where = append(where, clause)
		args = append(args, inArgs...)
	}

	query := `SELECT ` + songColumns + ` FROM songs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return query, args, nil
}

// PlayedSongs lists every row with a non-zero play count.
func (r reader) PlayedSongs(ctx context.Context, limit int) ([]Song, error) {
	return r.Songs(ctx, Filter{Played: true, Limit: limit})
}

// FindByURL returns the row whose url equals u exactly.
func (r reader) FindByURL(ctx context.Context, u string) (Song, error) {
	var song Song
	err := sqlx.GetContext(ctx, r.q, &song, `SELECT `+songColumns+` FROM songs WHERE url = ?`, u)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, wrap("find by url", KindNotFound, ErrNotFound)
	}
	if err != nil {
		return Song{}, wrap("find by url", KindIO, err)
	}
	return song, nil
}

// FindByURLFragment returns the lowest-rowid row whose url contains fragment.
// LIKE wildcards in fragment are matched literally.
func (r reader) FindByURLFragment(ctx context.Context, fragment string) (Song, error) {
	if fragment == "" {
		return Song{}, wrap("find by url fragment", KindNotFound, ErrNotFound)
	}
	pattern := "%" + escapeLike(fragment) + "%"
	var song Song
	err := sqlx.GetContext(ctx, r.q, &song,
		`SELECT `+songColumns+` FROM songs WHERE url LIKE ? ESCAPE '\' ORDER BY rowid LIMIT 1`, pattern)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, wrap("find by url fragment", KindNotFound, ErrNotFound)
	}
	if err != nil {
		return Song{}, wrap("find by url fragment", KindIO, err)
	}
	return song, nil
}

// CountSongs returns the number of rows in the songs table.
func (r reader) CountSongs(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM songs`); err != nil {
		return 0, wrap("count songs", KindIO, err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
