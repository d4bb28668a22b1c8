package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Fixed values the player expects for imported playlists and their items.
const (
	PlaylistUIOrder    = -1
	PlaylistFavorite   = 1
	PlaylistItemType   = 2
	PlaylistItemSource = 2
)

// FindPlaylist returns the rowid of the playlist called name.
func (r reader) FindPlaylist(ctx context.Context, name string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, r.q, &id, `SELECT rowid FROM playlists WHERE name = ? ORDER BY rowid LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, wrap("find playlist", KindNotFound, ErrNotFound)
	}
	if err != nil {
		return 0, wrap("find playlist", KindIO, err)
	}
	return id, nil
}

// CreatePlaylist inserts a playlist and returns its rowid. An existing
// playlist with the same name yields ErrPlaylistExists; a blank name yields
// ErrInvalidPlaylist.
func (t *Tx) CreatePlaylist(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, wrap("create playlist", KindInvalid, fmt.Errorf("empty name: %w", ErrInvalidPlaylist))
	}
	if _, err := t.FindPlaylist(ctx, name); err == nil {
		return 0, wrap("create playlist", KindDuplicate, fmt.Errorf("%q: %w", name, ErrPlaylistExists))
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO playlists (name, ui_order, is_favorite) VALUES (?, ?, ?)`,
		name, PlaylistUIOrder, PlaylistFavorite,
	)
	if err != nil {
		return 0, wrap("create playlist", KindIO, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrap("create playlist", KindIO, fmt.Errorf("last insert id: %w", err))
	}
	return id, nil
}

// AddPlaylistItem appends the song with rowid songID to playlist.
func (t *Tx) AddPlaylistItem(ctx context.Context, playlist, songID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO playlist_items (playlist, collection_id, type, source) VALUES (?, ?, ?, ?)`,
		playlist, songID, PlaylistItemType, PlaylistItemSource,
	)
	if err != nil {
		return 0, wrap("add playlist item", KindIO, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("add playlist item", KindIO, fmt.Errorf("rows affected: %w", err))
	}
	return n, nil
}
