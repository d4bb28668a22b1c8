package playhistory

// Delta is the pending listen-derived change for one catalog row.
type Delta struct {
	// Base is the row state observed before any listen was applied.
	Base       PlayRecord
	Plays      uint32
	LastPlayed int64
}

// Result returns the row state after applying the delta.
func (d Delta) Result() PlayRecord {
	out := d.Base
	out.PlayCount = addSaturating(d.Base.PlayCount, d.Plays)
	out.LastPlayed = maxInt64(d.Base.LastPlayed, d.LastPlayed)
	return out
}

// Accumulator folds listen events into per-row deltas keyed by URL. Rows are
// returned in the order they were first touched.
type Accumulator struct {
	order  []string
	deltas map[string]*Delta
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{deltas: make(map[string]*Delta)}
}

// Add records a listen against the catalog row base. A listen qualifies only
// when it is strictly newer than the row's last play as observed before this
// run, so event order never changes the outcome. It reports whether the
// listen was counted.
func (a *Accumulator) Add(base PlayRecord, listenedAt int64) bool {
	if listenedAt <= base.LastPlayed {
		return false
	}
	key := base.Identity.URL
	d, ok := a.deltas[key]
	if !ok {
		d = &Delta{Base: base}
		a.deltas[key] = d
		a.order = append(a.order, key)
	}
	d.Plays = addSaturating(d.Plays, 1)
	d.LastPlayed = maxInt64(d.LastPlayed, listenedAt)
	return true
}

// Len reports how many distinct rows have pending deltas.
func (a *Accumulator) Len() int {
	return len(a.order)
}

// Deltas returns the pending deltas in first-touched order.
func (a *Accumulator) Deltas() []Delta {
	out := make([]Delta, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.deltas[key])
	}
	return out
}
