package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"playsync/internal/catalog"
	"playsync/internal/testsupport"
)

func writeLibrary(t *testing.T, env *cliTestEnv) {
	t.Helper()
	played := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	testsupport.WriteLibrary(t, env.cfg.Library.Path, testsupport.LibraryFixture{
		Tracks: []map[string]any{
			{"Track ID": 10, "Location": "file:///music/a.mp3", "Name": "A", "Artist": "X", "Play Count": 5, "Play Date UTC": played},
			{"Track ID": 11, "Location": "file:///music/b.mp3", "Name": "B", "Artist": "X", "Play Count": 2, "Play Date UTC": played},
		},
		Playlists: []map[string]any{
			{"Name": "Library", "Master": true, "Playlist Items": testsupport.PlaylistEntry(10, 11)},
			{"Name": "Mix", "Playlist Items": testsupport.PlaylistEntry(11, 10)},
		},
	})
}

func TestLibraryDryRunThenWrite(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedSongs(t, env.cfg.Catalog.Path,
		catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "A"},
		catalog.Song{URL: "file:///music/b.mp3", Artist: "X", Title: "B", PlayCount: 1, LastPlayed: 100},
	)
	writeLibrary(t, env)

	out, _, err := runCLI(t, []string{"itunes"}, env.configPath)
	if err != nil {
		t.Fatalf("itunes dry run: %v", err)
	}
	requireContains(t, out, "dry run")
	requireContains(t, out, "pass --write-updates to commit")
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/a.mp3"); got.PlayCount != 0 {
		t.Fatalf("dry run wrote to catalog: %+v", got)
	}

	out, _, err = runCLI(t, []string{"-w", "itunes", "--update-existing"}, env.configPath)
	if err != nil {
		t.Fatalf("itunes write: %v", err)
	}
	requireContains(t, out, "Committed")
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/a.mp3"); got.PlayCount != 5 || got.LastPlayed != 1672531200 {
		t.Fatalf("a = %+v", got)
	}
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/b.mp3"); got.PlayCount != 3 || got.LastPlayed != 100 {
		t.Fatalf("b = %+v", got)
	}
}

func TestLibraryRejectsConflictingFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	writeLibrary(t, env)
	if _, _, err := runCLI(t, []string{"itunes", "-p", "-u"}, env.configPath); err == nil {
		t.Fatal("expected error for --update-unplayed with --update-existing")
	}
	if _, _, err := runCLI(t, []string{"itunes", "-r", "^a"}, env.configPath); err == nil {
		t.Fatal("expected error for unpaired --replace-url")
	}
}

func TestPlaylistsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedSongs(t, env.cfg.Catalog.Path,
		catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "A"},
		catalog.Song{URL: "file:///music/b.mp3", Artist: "X", Title: "B"},
	)
	writeLibrary(t, env)

	out, _, err := runCLI(t, []string{"--write-updates", "playlists"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	requireContains(t, out, "Playlists created")
	playlists := testsupport.ReadPlaylists(t, env.cfg.Catalog.Path)
	if len(playlists) != 1 || playlists[0].Name != "Mix" {
		t.Fatalf("playlists = %+v", playlists)
	}
}

func TestListensCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/user/alice/listens" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("max_ts"); got != "1700000000" {
			t.Errorf("max_ts = %q", got)
		}
		_, _ = w.Write([]byte(`{"payload":{"count":1,"listens":[
			{"listened_at":1600000000,"track_metadata":{"artist_name":"X","track_name":"A"}}]}}`))
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	env.cfg.ListenBrainz.BaseURL = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)
	testsupport.SeedSongs(t, env.cfg.Catalog.Path, catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "A", PlayCount: 1, LastPlayed: 100})

	out, _, err := runCLI(t, []string{"-w", "listens", "alice", "--before", "1700000000"}, env.configPath)
	if err != nil {
		t.Fatalf("listens: %v", err)
	}
	requireContains(t, out, "listens")
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/a.mp3"); got.PlayCount != 2 || got.LastPlayed != 1600000000 {
		t.Fatalf("row = %+v", got)
	}

	if _, _, err := runCLI(t, []string{"listens"}, env.configPath); err == nil {
		t.Fatal("expected error without a user")
	}
}

func TestParseBefore(t *testing.T) {
	local := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local).Unix()
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"1700000000", 1700000000, false},
		{"2024-03-01T10:30:00Z", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC).Unix(), false},
		{"2024-03-01 10:30:00", local, false},
		{"-5", 0, true},
		{"yesterday", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBefore(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseBefore(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseBefore(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCatalogCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedSongs(t, env.cfg.Catalog.Path, catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "A"})
	source := filepath.Join(env.baseDir, "old.db")
	testsupport.CreateCatalog(t, source)
	testsupport.SeedSongs(t, source, catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "A", PlayCount: 4, LastPlayed: 500})

	if _, _, err := runCLI(t, []string{"-w", "catalog", "--from-db", source}, env.configPath); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/a.mp3"); got.PlayCount != 4 || got.LastPlayed != 500 {
		t.Fatalf("row = %+v", got)
	}
	if _, _, err := runCLI(t, []string{"catalog"}, env.configPath); err == nil {
		t.Fatal("expected error without --from-db")
	}
}

func TestConsolidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedSongs(t, env.cfg.Catalog.Path,
		catalog.Song{URL: "file:///music/flac/a.flac", Artist: "X", Title: "A", PlayCount: 3, LastPlayed: 1000},
		catalog.Song{URL: "file:///music/mp3/a.mp3", Artist: "X", Title: "A", PlayCount: 2, SkipCount: 1, LastPlayed: 2000},
	)

	out, _, err := runCLI(t, []string{"-w", "consolidate", "mp3/a", "flac/a"}, env.configPath)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	requireContains(t, out, "Result:")
	if got := testsupport.ReadSong(t, env.cfg.Catalog.Path, "file:///music/flac/a.flac"); got.PlayCount != 5 || got.SkipCount != 1 || got.LastPlayed != 2000 {
		t.Fatalf("to = %+v", got)
	}

	// A fragment matching nothing is reported but is not a failure.
	out, stderr, err := runCLI(t, []string{"-w", "consolidate", "missing", "flac/a"}, env.configPath)
	if err != nil {
		t.Fatalf("consolidate with missing fragment: %v", err)
	}
	requireContains(t, stderr, "no track found matching url fragment")
	requireContains(t, out, "Nothing to update")

	if _, _, err := runCLI(t, []string{"-w", "consolidate", "a.flac", "flac/a"}, env.configPath); err == nil {
		t.Fatal("expected error when both fragments resolve to the same row")
	}
}

func TestDumpCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"dump"}, env.configPath)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	requireContains(t, out, "No played tracks")

	testsupport.SeedSongs(t, env.cfg.Catalog.Path,
		catalog.Song{URL: "file:///music/a.mp3", Artist: "X", Title: "Played", PlayCount: 3, LastPlayed: 1000},
		catalog.Song{URL: "file:///music/b.mp3", Artist: "X", Title: "Unplayed"},
	)
	out, _, err = runCLI(t, []string{"dump", "--limit", "10"}, env.configPath)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	requireContains(t, out, "Played")
	if strings.Contains(out, "Unplayed") {
		t.Fatalf("dump listed an unplayed row: %q", out)
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"check"}, env.configPath); err == nil {
		t.Fatal("expected failure without a library export")
	}
	writeLibrary(t, env)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Catalog")
	requireContains(t, out, "Library export")
}

func TestCatalogOverrideFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(env.baseDir, "other.db")
	testsupport.CreateCatalog(t, other)
	testsupport.SeedSongs(t, other, catalog.Song{URL: "file:///x.mp3", Title: "Elsewhere", PlayCount: 1, LastPlayed: 10})

	out, _, err := runCLI(t, []string{"--catalog", other, "dump"}, env.configPath)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	requireContains(t, out, "Elsewhere")
	if _, err := os.Stat(env.cfg.Catalog.Path); err != nil {
		t.Fatalf("configured catalog should be untouched: %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
}
