package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"howett.net/plist"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// LibraryFixture describes an exported library. Track maps must carry an
// integer "Track ID"; playlists use "Name" and "Playlist Items".
type LibraryFixture struct {
	Date      time.Time
	Tracks    []map[string]any
	Playlists []map[string]any
}

// PlaylistEntry builds the Playlist Items array for the given track ids.
func PlaylistEntry(trackIDs ...int) []any {
	items := make([]any, 0, len(trackIDs))
	for _, id := range trackIDs {
		items = append(items, map[string]any{"Track ID": id})
	}
	return items
}

// WriteLibrary encodes fx as an XML property list at path.
func WriteLibrary(t testing.TB, path string, fx LibraryFixture) {
	t.Helper()

	date := fx.Date
	if date.IsZero() {
		date = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	tracks := make(map[string]any, len(fx.Tracks))
	for _, track := range fx.Tracks {
		id, ok := track["Track ID"].(int)
		if !ok {
			t.Fatalf("library fixture track without integer Track ID: %v", track)
		}
		tracks[strconv.Itoa(id)] = track
	}
	playlists := make([]any, 0, len(fx.Playlists))
	for _, playlist := range fx.Playlists {
		playlists = append(playlists, playlist)
	}
	root := map[string]any{
		"Major Version": 1,
		"Minor Version": 1,
		"Date":          date,
		"Tracks":        tracks,
		"Playlists":     playlists,
	}
	data, err := plist.MarshalIndent(root, plist.XMLFormat, "\t")
	if err != nil {
		t.Fatalf("encode library fixture: %v", err)
	}
	WriteFile(t, path, string(data))
}
