package playhistory

import "fmt"

// Mode selects the merge rule.
type Mode int

const (
	// ModeFill copies incoming state into a row that has never been played.
	ModeFill Mode = iota
	// ModeAdditive adds incoming counts to a row that already has plays.
	ModeAdditive
	// ModeConsolidate folds one row's history into another.
	ModeConsolidate
	// ModeListen records play events newer than the row's last play.
	ModeListen
)

func (m Mode) String() string {
	switch m {
	case ModeFill:
		return "fill"
	case ModeAdditive:
		return "additive"
	case ModeConsolidate:
		return "consolidate"
	case ModeListen:
		return "listen"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Merge combines existing and incoming play state under mode. The returned
// record keeps the existing identity. The boolean is false when the mode does
// not apply to existing or when the merge would leave the row unchanged.
//
// ModeListen is handled by Accumulator and always reports false here.
func Merge(existing, incoming PlayRecord, mode Mode) (PlayRecord, bool) {
	switch mode {
	case ModeFill:
		return mergeFill(existing, incoming)
	case ModeAdditive:
		return mergeAdditive(existing, incoming)
	case ModeConsolidate:
		return mergeConsolidate(existing, incoming)
	}
	return existing, false
}

func mergeFill(existing, incoming PlayRecord) (PlayRecord, bool) {
	if existing.PlayCount != 0 {
		return existing, false
	}
	out := existing
	out.PlayCount = incoming.PlayCount
	out.SkipCount = incoming.SkipCount
	out.LastPlayed = maxInt64(existing.LastPlayed, incoming.LastPlayed)
	return out, !out.SameState(existing)
}

func mergeAdditive(existing, incoming PlayRecord) (PlayRecord, bool) {
	if existing.PlayCount == 0 {
		return existing, false
	}
	out := existing
	out.PlayCount = addSaturating(existing.PlayCount, incoming.PlayCount)
	out.SkipCount = addSaturating(existing.SkipCount, incoming.SkipCount)
	return out, !out.SameState(existing)
}

func mergeConsolidate(existing, incoming PlayRecord) (PlayRecord, bool) {
	out := existing
	out.PlayCount = addSaturating(existing.PlayCount, incoming.PlayCount)
	out.SkipCount = addSaturating(existing.SkipCount, incoming.SkipCount)
	out.LastPlayed = maxInt64(existing.LastPlayed, incoming.LastPlayed)
	if out.PlayCount == 0 && out.SkipCount == 0 && out.LastPlayed <= 0 {
		return existing, false
	}
	return out, !out.SameState(existing)
}
