package library_test

import (
	"path/filepath"
	"testing"
	"time"

	"playsync/internal/library"
	"playsync/internal/testsupport"
)

const sampleLibrary = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple Computer//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Major Version</key><integer>1</integer>
	<key>Minor Version</key><integer>1</integer>
	<key>Date</key><date>2023-02-03T04:05:06Z</date>
	<key>Application Version</key><string>12.9.5.5</string>
	<key>Tracks</key>
	<dict>
		<key>200</key>
		<dict>
			<key>Track ID</key><integer>200</integer>
			<key>Name</key><string>Lonely</string>
		</dict>
		<key>100</key>
		<dict>
			<key>Track ID</key><integer>100</integer>
			<key>Name</key><string>Boxer</string>
			<key>Artist</key><string>Simon &#38; Garfunkel</string>
			<key>Album</key><string>Bridge</string>
			<key>Kind</key><string>MPEG audio file</string>
			<key>Play Count</key><integer>5</integer>
			<key>Play Date</key><integer>3755376000</integer>
			<key>Play Date UTC</key><date>2023-01-01T00:00:00Z</date>
			<key>Skip Count</key><integer>1</integer>
			<key>Skip Date</key><date>2022-06-01T12:00:00Z</date>
			<key>Location</key><string>file:///Music/Simon%20&#38;%20Garfunkel/Boxer.mp3</string>
		</dict>
		<key>30</key>
		<dict>
			<key>Track ID</key><integer>30</integer>
			<key>Name</key><string>Third</string>
			<key>Location</key><string>file:///Music/third.mp3</string>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>Library</string>
			<key>Master</key><true/>
			<key>Playlist ID</key><integer>1</integer>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>100</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Recently Added</string>
			<key>Playlist ID</key><integer>2</integer>
			<key>Smart Info</key><data>AQEAAwAAAAIAAAAZ</data>
			<key>Smart Criteria</key><data>U0xzdAABAAEAAAAC</data>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>200</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Road Trip</string>
			<key>Description</key><string>Long drives</string>
			<key>Playlist ID</key><integer>3</integer>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>200</integer></dict>
				<dict><key>Track ID</key><integer>100</integer></dict>
				<dict><key>Unexpected</key><string>x</string></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Empty</string>
			<key>Playlist ID</key><integer>4</integer>
		</dict>
	</array>
</dict>
</plist>
`

func TestLoadDecodesTracksAndPlaylists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Library.xml")
	testsupport.WriteFile(t, path, sampleLibrary)

	lib, err := library.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Version() != "1.1" {
		t.Fatalf("Version = %q", lib.Version())
	}
	if !lib.Date.Equal(time.Date(2023, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Fatalf("Date = %v", lib.Date)
	}
	if len(lib.Tracks) != 3 {
		t.Fatalf("tracks = %d", len(lib.Tracks))
	}

	boxer, ok := lib.Track(100)
	if !ok {
		t.Fatal("track 100 missing")
	}
	if boxer.Artist == nil || *boxer.Artist != "Simon & Garfunkel" {
		t.Fatalf("artist = %v", boxer.Artist)
	}
	if boxer.Location == nil || *boxer.Location != "file:///Music/Simon%20&%20Garfunkel/Boxer.mp3" {
		t.Fatalf("location = %v", boxer.Location)
	}
	if boxer.PlayCount == nil || *boxer.PlayCount != 5 {
		t.Fatalf("play count = %v", boxer.PlayCount)
	}

	lonely, _ := lib.Track(200)
	if lonely.Artist != nil || lonely.PlayCount != nil || lonely.Location != nil {
		t.Fatalf("absent fields must stay nil: %+v", lonely)
	}

	if got := lib.TrackKeys(); len(got) != 3 || got[0] != "30" || got[1] != "100" || got[2] != "200" {
		t.Fatalf("TrackKeys = %v", got)
	}

	if len(lib.Playlists) != 4 {
		t.Fatalf("playlists = %d", len(lib.Playlists))
	}
	if !lib.Playlists[0].Master || lib.Playlists[0].IsSmart() {
		t.Fatalf("unexpected master playlist %+v", lib.Playlists[0])
	}
	if !lib.Playlists[1].IsSmart() {
		t.Fatal("expected smart playlist")
	}
	road := lib.Playlists[2]
	if road.Description != "Long drives" || len(road.Items) != 3 || road.Items[2].TrackID != nil {
		t.Fatalf("unexpected road trip playlist %+v", road)
	}
	if !lib.Playlists[3].Empty() {
		t.Fatal("expected empty playlist")
	}
}

func TestImputeDefaults(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	entry := library.Track{}.Impute("7", now)

	if entry.Artist != "Unknown" || entry.Name != "Untitled" {
		t.Fatalf("unexpected name defaults %+v", entry)
	}
	if entry.PlayCount != 0 || entry.SkipCount != 0 || entry.SkipDate.Unix() != 0 {
		t.Fatalf("unexpected count defaults %+v", entry)
	}
	if !entry.PlayDate.Equal(now) || entry.PlayDate.Location() != time.UTC {
		t.Fatalf("play date = %v", entry.PlayDate)
	}
	if entry.HasLocation || !entry.Unplayed() {
		t.Fatalf("unexpected flags %+v", entry)
	}
}

func TestImputeKeepsPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Library.xml")
	testsupport.WriteFile(t, path, sampleLibrary)
	lib, err := library.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	track, _ := lib.Track(100)
	entry := track.Impute("100", time.Now())

	record := entry.Record()
	if record.PlayCount != 5 || record.SkipCount != 1 || record.LastPlayed != 1672531200 {
		t.Fatalf("record = %+v", record)
	}
	if record.Identity.Artist != "Simon & Garfunkel" || record.Identity.Title != "Boxer" {
		t.Fatalf("identity = %+v", record.Identity)
	}
	if entry.ID != 100 || !entry.HasLocation || entry.Album != "Bridge" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestLoadWrittenFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Library.xml")
	played := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	testsupport.WriteLibrary(t, path, testsupport.LibraryFixture{
		Tracks: []map[string]any{
			{"Track ID": 1, "Name": "A", "Location": "file:///a.mp3", "Play Count": 2, "Play Date UTC": played},
		},
		Playlists: []map[string]any{
			{"Name": "Mix", "Playlist Items": testsupport.PlaylistEntry(1)},
		},
	})

	lib, err := library.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	track, ok := lib.Track(1)
	if !ok || track.PlayDateUTC == nil || !track.PlayDateUTC.Equal(played) {
		t.Fatalf("track = %+v", track)
	}
	if len(lib.Playlists) != 1 || *lib.Playlists[0].Items[0].TrackID != 1 {
		t.Fatalf("playlists = %+v", lib.Playlists)
	}
}

func TestLoadRejectsMissingOrMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := library.Load(filepath.Join(dir, "missing.xml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.xml")
	testsupport.WriteFile(t, bad, "<plist><dict><key>Tracks</key>")
	if _, err := library.Load(bad); err == nil {
		t.Fatal("expected error for malformed file")
	}
	noTracks := filepath.Join(dir, "empty.xml")
	testsupport.WriteFile(t, noTracks, `<?xml version="1.0"?><plist version="1.0"><dict></dict></plist>`)
	if _, err := library.Load(noTracks); err == nil {
		t.Fatal("expected error for library without tracks")
	}
}
