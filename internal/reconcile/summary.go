package reconcile

import (
	"sort"
)

// Scenario names used in summaries and logs.
const (
	ScenarioLibrary     = "itunes"
	ScenarioPlaylists   = "playlists"
	ScenarioListens     = "listens"
	ScenarioCatalog     = "catalog"
	ScenarioConsolidate = "consolidate"
)

// Summary reports what one run did.
type Summary struct {
	Scenario string
	RunID    string
	DryRun   bool

	Examined    int
	Matched     int
	Updated     int
	Unmatched   int
	Ineffective int
	Skipped     int
	ByStrategy  map[string]int

	PlaylistsCreated int
	PlaylistItems    int

	Committed bool
	Backup    string
}

func newSummary(scenario, runID string, dryRun bool) *Summary {
	return &Summary{
		Scenario:   scenario,
		RunID:      runID,
		DryRun:     dryRun,
		ByStrategy: make(map[string]int),
	}
}

// Count is the number of effective writes: updated rows, or inserted
// playlist items for playlist imports.
func (s Summary) Count() int {
	return s.Updated + s.PlaylistItems
}

// Strategies returns the strategy names with at least one match, sorted.
func (s Summary) Strategies() []string {
	names := make([]string, 0, len(s.ByStrategy))
	for name, n := range s.ByStrategy {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
