package catalog_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"playsync/internal/catalog"
	"playsync/internal/playhistory"
)

func newMockStore(t *testing.T) (*catalog.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return catalog.NewWithDB(db, "mock.db"), mock
}

func TestApplyBindsValuesAsParameters(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	const url = "file:///Music/O'Brien/It's%20Here.mp3"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE songs SET playcount = ?, skipcount = ?, lastplayed = ? WHERE url = ? AND COALESCE(playcount, 0) = 0")).
		WithArgs(int64(5), int64(1), int64(1672531200), url).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	n, err := tx.Apply(ctx, catalog.Update{
		Mode: playhistory.ModeFill,
		URL:  url,
		Next: playhistory.PlayRecord{PlayCount: 5, SkipCount: 1, LastPlayed: 1672531200},
	})
	if err != nil || n != 1 {
		t.Fatalf("Apply: n=%d err=%v", n, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyAdditiveSendsDeltas(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE songs SET playcount = COALESCE(playcount, 0) + ?, skipcount = COALESCE(skipcount, 0) + ? WHERE url = ? AND COALESCE(playcount, 0) <> 0")).
		WithArgs(int64(2), int64(0), "file:///a.mp3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	n, err := tx.Apply(ctx, catalog.Update{
		Mode:     playhistory.ModeAdditive,
		URL:      "file:///a.mp3",
		Observed: playhistory.PlayRecord{PlayCount: 3, SkipCount: 1},
		Next:     playhistory.PlayRecord{PlayCount: 5, SkipCount: 1},
	})
	if err != nil || n != 0 {
		t.Fatalf("Apply: n=%d err=%v", n, err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplySwapCarriesObservedState(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("AND COALESCE(playcount, 0) = ? AND COALESCE(skipcount, 0) = ? AND COALESCE(lastplayed, -1) = ?")).
		WithArgs(int64(7), int64(0), int64(300), "file:///a.mp3", int64(5), int64(0), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	n, err := tx.Apply(ctx, catalog.Update{
		Mode:     playhistory.ModeListen,
		URL:      "file:///a.mp3",
		Observed: playhistory.PlayRecord{PlayCount: 5, LastPlayed: 100},
		Next:     playhistory.PlayRecord{PlayCount: 7, LastPlayed: 300},
	})
	if err != nil || n != 1 {
		t.Fatalf("Apply: n=%d err=%v", n, err)
	}
}

func TestApplyClassifiesDriverErrorsAsFatal(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE songs").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	_, err = tx.Apply(ctx, catalog.Update{
		Mode: playhistory.ModeFill,
		URL:  "file:///a.mp3",
		Next: playhistory.PlayRecord{PlayCount: 1},
	})
	if err == nil || !catalog.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestApplyRejectsInvalidUpdates(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Apply(ctx, catalog.Update{Mode: playhistory.ModeFill}); err == nil {
		t.Fatal("expected error for empty url")
	}
	_, err = tx.Apply(ctx, catalog.Update{
		Mode:     playhistory.ModeAdditive,
		URL:      "file:///a.mp3",
		Observed: playhistory.PlayRecord{PlayCount: 5},
		Next:     playhistory.PlayRecord{PlayCount: 4},
	})
	if err == nil {
		t.Fatal("expected error for decreasing counts")
	}
}
