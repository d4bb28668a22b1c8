package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"playsync/internal/playhistory"
)

// Tx is the transaction a reconcile run performs all writes in.
type Tx struct {
	reader
	tx   *sqlx.Tx
	done bool
}

// Commit persists the run's writes.
func (t *Tx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return wrap("commit", KindIO, err)
	}
	return nil
}

// Rollback discards the run's writes. It is safe to call after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return wrap("rollback", KindIO, err)
	}
	return nil
}

// Update describes one play-state write. Observed is the row state the new
// value was computed from and Next is the desired state.
type Update struct {
	Mode     playhistory.Mode
	URL      string
	Observed playhistory.PlayRecord
	Next     playhistory.PlayRecord
}

const (
	// Only rows that have never been played are filled.
	fillStatement = `UPDATE songs SET playcount = ?, skipcount = ?, lastplayed = ?
	WHERE url = ? AND COALESCE(playcount, 0) = 0`

	// Counts are added in place; last played is left untouched.
	additiveStatement = `UPDATE songs SET playcount = COALESCE(playcount, 0) + ?, skipcount = COALESCE(skipcount, 0) + ?
	WHERE url = ? AND COALESCE(playcount, 0) <> 0`

	// Compare-and-swap on the observed state.
	swapStatement = `UPDATE songs SET playcount = ?, skipcount = ?, lastplayed = ?
	WHERE url = ? AND COALESCE(playcount, 0) = ? AND COALESCE(skipcount, 0) = ? AND COALESCE(lastplayed, -1) = ?`
)

// Apply executes u and returns the number of rows it changed. Zero means the
// predicate no longer held, which callers treat as an ineffective write.
func (t *Tx) Apply(ctx context.Context, u Update) (int64, error) {
	query, args, err := updateStatement(u)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap("apply "+u.Mode.String(), KindIO, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("apply "+u.Mode.String(), KindIO, fmt.Errorf("rows affected: %w", err))
	}
	return n, nil
}

func updateStatement(u Update) (string, []any, error) {
	if u.URL == "" {
		return "", nil, fmt.Errorf("apply %s: empty url", u.Mode)
	}
	switch u.Mode {
	case playhistory.ModeFill:
		return fillStatement, []any{
			int64(u.Next.PlayCount), int64(u.Next.SkipCount), u.Next.LastPlayed, u.URL,
		}, nil
	case playhistory.ModeAdditive:
		if u.Next.PlayCount < u.Observed.PlayCount || u.Next.SkipCount < u.Observed.SkipCount {
			return "", nil, fmt.Errorf("apply %s: counts cannot decrease", u.Mode)
		}
		return additiveStatement, []any{
			int64(u.Next.PlayCount - u.Observed.PlayCount),
			int64(u.Next.SkipCount - u.Observed.SkipCount),
			u.URL,
		}, nil
	case playhistory.ModeConsolidate, playhistory.ModeListen:
		return swapStatement, []any{
			int64(u.Next.PlayCount), int64(u.Next.SkipCount), u.Next.LastPlayed, u.URL,
			int64(u.Observed.PlayCount), int64(u.Observed.SkipCount), u.Observed.LastPlayed,
		}, nil
	}
	return "", nil, fmt.Errorf("apply: unsupported mode %s", u.Mode)
}
