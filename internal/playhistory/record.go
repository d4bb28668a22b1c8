package playhistory

import (
	"math"
	"time"
)

// TrackIdentity identifies a track. URL is the canonical encoded location and
// is compared byte for byte; artist and title compare case-insensitively.
type TrackIdentity struct {
	URL    string
	Artist string
	Title  string
}

// PlayRecord is the play state of one track.
type PlayRecord struct {
	Identity   TrackIdentity
	PlayCount  uint32
	SkipCount  uint32
	LastPlayed int64
}

// NeverPlayed reports whether the record carries no play history at all.
func (r PlayRecord) NeverPlayed() bool {
	return r.PlayCount == 0 && r.SkipCount == 0 && r.LastPlayed <= 0
}

// SameState reports whether both records carry identical counts and timestamp.
func (r PlayRecord) SameState(other PlayRecord) bool {
	return r.PlayCount == other.PlayCount &&
		r.SkipCount == other.SkipCount &&
		r.LastPlayed == other.LastPlayed
}

// LastPlayedTime converts LastPlayed to a time, or the zero time when the
// track has never been played.
func (r PlayRecord) LastPlayedTime() time.Time {
	if r.LastPlayed <= 0 {
		return time.Time{}
	}
	return time.Unix(r.LastPlayed, 0)
}

// Listen is a single play event reported by a listen-tracking service.
type Listen struct {
	ArtistName string
	TrackName  string
	ListenedAt int64
}

// Identity returns the artist/title identity of the listen.
func (l Listen) Identity() TrackIdentity {
	return TrackIdentity{Artist: l.ArtistName, Title: l.TrackName}
}

func addSaturating(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// ClampCount converts a possibly negative or oversized integer read from an
// external source into a count.
func ClampCount(v int64) uint32 {
	switch {
	case v <= 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
