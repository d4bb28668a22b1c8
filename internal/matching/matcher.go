package matching

import (
	"fmt"
	"log/slog"
	"strings"

	"playsync/internal/catalog"
	"playsync/internal/logging"
	"playsync/internal/playhistory"
	"playsync/internal/urlnorm"
)

// Strategy names the rule that resolved a track.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyCanonicalURL
	StrategyAlternateURL
	StrategyArtistTitle
)

func (s Strategy) String() string {
	switch s {
	case StrategyCanonicalURL:
		return "canonical_url"
	case StrategyAlternateURL:
		return "alternate_url"
	case StrategyArtistTitle:
		return "artist_title"
	default:
		return "none"
	}
}

// TieBreak selects one row when several share an artist and title.
type TieBreak string

const (
	// TieBreakFirst picks the lowest rowid.
	TieBreakFirst TieBreak = "first"
	// TieBreakFewestPlays picks the row with the lowest playcount, then the
	// lowest rowid.
	TieBreakFewestPlays TieBreak = "fewest_plays"
	// TieBreakStrict refuses to pick and reports the track as ambiguous.
	TieBreakStrict TieBreak = "strict"
)

// ParseTieBreak validates a configured tie-break name.
func ParseTieBreak(value string) (TieBreak, error) {
	switch tb := TieBreak(strings.ToLower(strings.TrimSpace(value))); tb {
	case "":
		return TieBreakFewestPlays, nil
	case TieBreakFirst, TieBreakFewestPlays, TieBreakStrict:
		return tb, nil
	default:
		return "", fmt.Errorf("unknown tie-break %q (want first, fewest_plays or strict)", value)
	}
}

// Result describes the outcome of one lookup.
type Result struct {
	Song       catalog.Song
	Strategy   Strategy
	URL        string
	Alternate  string
	Candidates int
	Ambiguous  bool
}

// Matched reports whether a catalog row was found.
func (r Result) Matched() bool {
	return r.Strategy != StrategyNone
}

// Matcher resolves identities against an Index.
type Matcher struct {
	index    *Index
	rewriter *urlnorm.Rewriter
	fallback bool
	tieBreak TieBreak
	logger   *slog.Logger
}

// Option customises the Matcher.
type Option func(*Matcher)

// WithRewriter sets the rules producing the alternate URL.
func WithRewriter(rw *urlnorm.Rewriter) Option {
	return func(m *Matcher) {
		m.rewriter = rw
	}
}

// WithArtistTitleFallback enables or disables the artist/title strategy for
// URL lookups.
func WithArtistTitleFallback(enabled bool) Option {
	return func(m *Matcher) {
		m.fallback = enabled
	}
}

// WithTieBreak overrides the default fewest_plays tie-break.
func WithTieBreak(tb TieBreak) Option {
	return func(m *Matcher) {
		if tb != "" {
			m.tieBreak = tb
		}
	}
}

// WithLogger attaches a logger for debug tracing and rewrite failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Matcher over index. The artist/title fallback is enabled by
// default.
func New(index *Index, opts ...Option) *Matcher {
	m := &Matcher{
		index:    index,
		fallback: true,
		tieBreak: TieBreakFewestPlays,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.logger = logging.NewComponentLogger(m.logger, "matching")
	return m
}

// Match resolves id using the URL strategies and, when enabled, the
// artist/title fallback.
func (m *Matcher) Match(id playhistory.TrackIdentity) Result {
	result := Result{}
	if id.URL != "" {
		result.URL = urlnorm.Normalize(id.URL)
		if song, ok := m.index.ByURL(result.URL); ok {
			return m.found(result, song, StrategyCanonicalURL, 1)
		}

		alt, err := m.rewriter.Alternate(result.URL)
		if err != nil {
			logging.WarnWithContext(m.logger, "url rewrite failed", "rewrite_failed",
				logging.String(logging.FieldURL, result.URL),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the replace-url patterns"),
				logging.String(logging.FieldImpact, "alternate url lookup may miss"),
			)
		}
		if alt != result.URL {
			result.Alternate = alt
			if song, ok := m.index.ByURL(alt); ok {
				return m.found(result, song, StrategyAlternateURL, 1)
			}
			if song, ok := m.index.ByURL(urlnorm.Normalize(alt)); ok {
				return m.found(result, song, StrategyAlternateURL, 1)
			}
		}
		if !m.fallback {
			return result
		}
	}
	byName := m.MatchName(id.Artist, id.Title)
	byName.URL = result.URL
	byName.Alternate = result.Alternate
	return byName
}

// MatchName resolves a track by artist and title only.
func (m *Matcher) MatchName(artist, title string) Result {
	candidates := m.index.ByName(artist, title)
	result := Result{Candidates: len(candidates)}
	switch len(candidates) {
	case 0:
		return result
	case 1:
		return m.found(result, candidates[0], StrategyArtistTitle, 1)
	}

	switch m.tieBreak {
	case TieBreakStrict:
		result.Ambiguous = true
		m.logger.Debug("ambiguous artist/title match",
			logging.String("artist", artist),
			logging.String("title", title),
			logging.Int("candidates", len(candidates)),
		)
		return result
	case TieBreakFirst:
		return m.found(result, candidates[0], StrategyArtistTitle, len(candidates))
	default:
		best := candidates[0]
		for _, song := range candidates[1:] {
			if song.PlayCount < best.PlayCount {
				best = song
			}
		}
		return m.found(result, best, StrategyArtistTitle, len(candidates))
	}
}

func (m *Matcher) found(result Result, song catalog.Song, strategy Strategy, candidates int) Result {
	result.Song = song
	result.Strategy = strategy
	result.Candidates = candidates
	m.logger.Debug("track matched",
		logging.String(logging.FieldStrategy, strategy.String()),
		logging.String(logging.FieldURL, song.URL),
		logging.Int64("rowid", song.RowID),
		logging.Int("candidates", candidates),
	)
	return result
}
