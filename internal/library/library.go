package library

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"howett.net/plist"
)

// Library is the decoded export.
type Library struct {
	MajorVersion int64            `plist:"Major Version"`
	MinorVersion int64            `plist:"Minor Version"`
	Date         time.Time        `plist:"Date"`
	Tracks       map[string]Track `plist:"Tracks"`
	Playlists    []Playlist       `plist:"Playlists"`
}

// Track is one entry of the Tracks dictionary. Absent keys stay nil.
type Track struct {
	TrackID     *int64     `plist:"Track ID"`
	Name        *string    `plist:"Name"`
	Artist      *string    `plist:"Artist"`
	Album       *string    `plist:"Album"`
	Location    *string    `plist:"Location"`
	PlayCount   *int64     `plist:"Play Count"`
	PlayDateUTC *time.Time `plist:"Play Date UTC"`
	SkipCount   *int64     `plist:"Skip Count"`
	SkipDate    *time.Time `plist:"Skip Date"`
}

// Playlist is one entry of the Playlists array.
type Playlist struct {
	Name          string         `plist:"Name"`
	Description   string         `plist:"Description"`
	PlaylistID    int64          `plist:"Playlist ID"`
	Master        bool           `plist:"Master"`
	SmartCriteria *[]byte        `plist:"Smart Criteria"`
	Items         []PlaylistItem `plist:"Playlist Items"`
}

// PlaylistItem references a track by id.
type PlaylistItem struct {
	TrackID *int64 `plist:"Track ID"`
}

// Empty reports whether the playlist has no items.
func (p Playlist) Empty() bool {
	return len(p.Items) == 0
}

// IsSmart reports whether the playlist is rule based.
func (p Playlist) IsSmart() bool {
	return p.SmartCriteria != nil
}

// Load reads and decodes the export at path.
func Load(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	defer f.Close()

	var lib Library
	if err := plist.NewDecoder(f).Decode(&lib); err != nil {
		return nil, fmt.Errorf("decode library %s: %w", path, err)
	}
	if lib.Tracks == nil {
		return nil, errors.New("decode library: no Tracks dictionary")
	}
	return &lib, nil
}

// Track looks up a track by its numeric id.
func (l *Library) Track(id int64) (Track, bool) {
	track, ok := l.Tracks[strconv.FormatInt(id, 10)]
	return track, ok
}

// TrackKeys returns the Tracks dictionary keys ordered numerically, with
// non-numeric keys last in lexical order.
func (l *Library) TrackKeys() []string {
	keys := make([]string, 0, len(l.Tracks))
	for key := range l.Tracks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Version renders "major.minor".
func (l *Library) Version() string {
	return fmt.Sprintf("%d.%d", l.MajorVersion, l.MinorVersion)
}
