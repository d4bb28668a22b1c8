package matching

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"playsync/internal/catalog"
	"playsync/internal/urlnorm"
)

// Index is an in-memory snapshot of catalog rows keyed by URL and by
// artist/title. It is built once per run before any mutation.
type Index struct {
	songs   []catalog.Song
	byURL   map[string]int
	byAlias map[string]int
	byName  map[string][]int
}

// NewIndex indexes songs. Each row is reachable by its stored URL and, when
// no row stores that exact string, by the normalized form of its URL. The
// lowest rowid wins when two rows collide on the same key.
func NewIndex(songs []catalog.Song) *Index {
	ix := &Index{
		songs:   append([]catalog.Song(nil), songs...),
		byURL:   make(map[string]int, len(songs)),
		byAlias: make(map[string]int, len(songs)),
		byName:  make(map[string][]int, len(songs)),
	}
	sort.SliceStable(ix.songs, func(i, j int) bool { return ix.songs[i].RowID < ix.songs[j].RowID })
	for i, song := range ix.songs {
		addKey(ix.byURL, song.URL, i)
		if alias := urlnorm.Normalize(song.URL); alias != song.URL {
			addKey(ix.byAlias, alias, i)
		}
		if key := NameKey(song.Artist, song.Title); key != "" {
			ix.byName[key] = append(ix.byName[key], i)
		}
	}
	return ix
}

func addKey(m map[string]int, u string, i int) {
	if u == "" {
		return
	}
	if _, exists := m[u]; !exists {
		m[u] = i
	}
}

// Len reports the number of indexed rows.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.songs)
}

// ByURL returns the row whose stored URL is exactly u, falling back to a row
// whose URL normalizes to u.
func (ix *Index) ByURL(u string) (catalog.Song, bool) {
	if ix == nil || u == "" {
		return catalog.Song{}, false
	}
	i, ok := ix.byURL[u]
	if !ok {
		i, ok = ix.byAlias[u]
	}
	if !ok {
		return catalog.Song{}, false
	}
	return ix.songs[i], true
}

// ByName returns every row whose artist and title match case-insensitively,
// in rowid order.
func (ix *Index) ByName(artist, title string) []catalog.Song {
	if ix == nil {
		return nil
	}
	key := NameKey(artist, title)
	if key == "" {
		return nil
	}
	idx := ix.byName[key]
	out := make([]catalog.Song, 0, len(idx))
	for _, i := range idx {
		out = append(out, ix.songs[i])
	}
	return out
}

// NameKey folds artist and title into a comparison key: NFC composed, Unicode
// case folded and trimmed. A missing title yields an empty key.
func NameKey(artist, title string) string {
	title = foldName(title)
	if title == "" {
		return ""
	}
	return foldName(artist) + "\x00" + title
}

func foldName(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	// cases.Caser is stateful, so one is built per call.
	return norm.NFC.String(cases.Fold().String(s))
}
