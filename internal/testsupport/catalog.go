package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"playsync/internal/catalog"
)

// CatalogSchema is the slice of the player's schema the importers touch.
const CatalogSchema = `
CREATE TABLE songs (
	title TEXT,
	album TEXT,
	artist TEXT,
	albumartist TEXT,
	url TEXT NOT NULL UNIQUE,
	playcount INTEGER NOT NULL DEFAULT 0,
	skipcount INTEGER NOT NULL DEFAULT 0,
	lastplayed INTEGER NOT NULL DEFAULT -1,
	rating INTEGER NOT NULL DEFAULT -1
);
CREATE TABLE playlists (
	name TEXT NOT NULL,
	last_played INTEGER NOT NULL DEFAULT -1,
	ui_order INTEGER NOT NULL DEFAULT 0,
	special_type TEXT,
	is_favorite INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE playlist_items (
	playlist INTEGER NOT NULL,
	type INTEGER NOT NULL DEFAULT 0,
	collection_id INTEGER,
	source INTEGER NOT NULL DEFAULT 0,
	url TEXT
);
`

// CreateCatalog writes a new catalog database with CatalogSchema at path.
func CreateCatalog(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	db := openRaw(t, path)
	if _, err := db.Exec(CatalogSchema); err != nil {
		t.Fatalf("create catalog schema: %v", err)
	}
}

// SeedSongs inserts songs and returns their rowids. RowID fields are ignored.
func SeedSongs(t testing.TB, path string, songs ...catalog.Song) []int64 {
	t.Helper()

	db := openRaw(t, path)
	ids := make([]int64, 0, len(songs))
	for _, song := range songs {
		lastPlayed := song.LastPlayed
		if lastPlayed == 0 && song.PlayCount == 0 {
			lastPlayed = -1
		}
		res, err := db.Exec(
			`INSERT INTO songs (title, album, artist, url, playcount, skipcount, lastplayed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			song.Title, song.Album, song.Artist, song.URL, song.PlayCount, song.SkipCount, lastPlayed,
		)
		if err != nil {
			t.Fatalf("seed song %q: %v", song.URL, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("seed song id: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// SeedPlaylist inserts a playlist row and returns its rowid.
func SeedPlaylist(t testing.TB, path, name string) int64 {
	t.Helper()

	db := openRaw(t, path)
	res, err := db.Exec(`INSERT INTO playlists (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("seed playlist %q: %v", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("seed playlist id: %v", err)
	}
	return id
}

// ReadSong loads the row for url straight from the file, bypassing the store.
func ReadSong(t testing.TB, path, url string) catalog.Song {
	t.Helper()

	db := openRaw(t, path)
	var song catalog.Song
	err := db.Get(&song, `SELECT rowid AS rowid, url, COALESCE(artist, '') AS artist, COALESCE(title, '') AS title,
		COALESCE(album, '') AS album, playcount, skipcount, lastplayed FROM songs WHERE url = ?`, url)
	if err != nil {
		t.Fatalf("read song %q: %v", url, err)
	}
	return song
}

// PlaylistItem is a playlist_items row.
type PlaylistItem struct {
	Playlist     int64 `db:"playlist"`
	CollectionID int64 `db:"collection_id"`
	Type         int   `db:"type"`
	Source       int   `db:"source"`
}

// Playlist is a playlists row.
type Playlist struct {
	RowID      int64  `db:"rowid"`
	Name       string `db:"name"`
	UIOrder    int    `db:"ui_order"`
	IsFavorite int    `db:"is_favorite"`
}

// ReadPlaylists returns every playlist in rowid order.
func ReadPlaylists(t testing.TB, path string) []Playlist {
	t.Helper()

	db := openRaw(t, path)
	var out []Playlist
	if err := db.Select(&out, `SELECT rowid AS rowid, name, ui_order, is_favorite FROM playlists ORDER BY rowid`); err != nil {
		t.Fatalf("read playlists: %v", err)
	}
	return out
}

// ReadPlaylistItems returns the items of playlist in insertion order.
func ReadPlaylistItems(t testing.TB, path string, playlist int64) []PlaylistItem {
	t.Helper()

	db := openRaw(t, path)
	var out []PlaylistItem
	err := db.Select(&out, `SELECT playlist, collection_id, type, source FROM playlist_items WHERE playlist = ? ORDER BY rowid`, playlist)
	if err != nil {
		t.Fatalf("read playlist items: %v", err)
	}
	return out
}

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, path string) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(context.Background(), path, catalog.Options{})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func openRaw(t testing.TB, path string) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
