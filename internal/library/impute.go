package library

import (
	"time"

	"playsync/internal/playhistory"
)

// Defaults applied to absent track fields.
const (
	DefaultArtist = "Unknown"
	DefaultName   = "Untitled"
)

// Entry is a track with every optional field resolved.
type Entry struct {
	Key         string
	ID          int64
	Location    string
	HasLocation bool
	Name        string
	Artist      string
	Album       string
	PlayCount   uint32
	SkipCount   uint32
	PlayDate    time.Time
	SkipDate    time.Time
}

// Impute resolves absent fields: counts default to zero, artist to
// "Unknown", name to "Untitled", skip date to the epoch and play date to now.
// Location has no default; HasLocation reports whether one was present.
func (t Track) Impute(key string, now time.Time) Entry {
	e := Entry{
		Key:      key,
		Name:     DefaultName,
		Artist:   DefaultArtist,
		PlayDate: now.UTC(),
		SkipDate: time.Unix(0, 0).UTC(),
	}
	if t.TrackID != nil {
		e.ID = *t.TrackID
	}
	if t.Location != nil {
		e.Location = *t.Location
		e.HasLocation = e.Location != ""
	}
	if t.Name != nil {
		e.Name = *t.Name
	}
	if t.Artist != nil {
		e.Artist = *t.Artist
	}
	if t.Album != nil {
		e.Album = *t.Album
	}
	if t.PlayCount != nil {
		e.PlayCount = playhistory.ClampCount(*t.PlayCount)
	}
	if t.SkipCount != nil {
		e.SkipCount = playhistory.ClampCount(*t.SkipCount)
	}
	if t.PlayDateUTC != nil {
		e.PlayDate = t.PlayDateUTC.UTC()
	}
	if t.SkipDate != nil {
		e.SkipDate = t.SkipDate.UTC()
	}
	return e
}

// Unplayed reports whether the track has neither plays nor skips.
func (e Entry) Unplayed() bool {
	return e.PlayCount == 0 && e.SkipCount == 0
}

// Record converts the entry to a play record. The identity URL is the raw
// location; callers normalize it before matching.
func (e Entry) Record() playhistory.PlayRecord {
	return playhistory.PlayRecord{
		Identity: playhistory.TrackIdentity{
			URL:    e.Location,
			Artist: e.Artist,
			Title:  e.Name,
		},
		PlayCount:  e.PlayCount,
		SkipCount:  e.SkipCount,
		LastPlayed: e.PlayDate.Unix(),
	}
}
