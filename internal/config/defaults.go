package config

const (
	defaultConfigPath          = "~/.config/playsync/config.toml"
	defaultCatalogPath         = "strawberry.db"
	defaultLibraryPath         = "Library.xml"
	defaultTieBreak            = TieBreakFewestPlays
	defaultListenBrainzBaseURL = "https://api.listenbrainz.org"
	defaultListenBrainzCount   = 100
	defaultListenBrainzTimeout = 30
	maxListenBrainzCount       = 1000
	defaultLogFormat           = "console"
	defaultLogLevel            = "warn"
	defaultLogRetentionDays    = 30
	listenBrainzTokenEnv       = "LISTENBRAINZ_TOKEN"
)

// Tie-break policies for the artist/title fallback.
const (
	TieBreakFirst       = "first"
	TieBreakFewestPlays = "fewest_plays"
	TieBreakStrict      = "strict"
)

// DefaultExcludedPlaylists are the built-in library playlists that are never
// imported unless asked for by name.
var DefaultExcludedPlaylists = []string{"Library", "Music", "Downloaded"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Catalog: Catalog{
			Path:   defaultCatalogPath,
			Lock:   true,
			Backup: false,
		},
		Library: Library{
			Path:             defaultLibraryPath,
			ExcludePlaylists: append([]string(nil), DefaultExcludedPlaylists...),
		},
		Matching: Matching{
			ArtistTitleFallback: true,
			TieBreak:            defaultTieBreak,
		},
		ListenBrainz: ListenBrainz{
			BaseURL:        defaultListenBrainzBaseURL,
			Count:          defaultListenBrainzCount,
			TimeoutSeconds: defaultListenBrainzTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
