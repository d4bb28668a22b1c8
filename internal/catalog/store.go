package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Options tune how a catalog is opened.
type Options struct {
	ReadOnly    bool
	BusyTimeout time.Duration
}

// Store is an open catalog database.
type Store struct {
	reader
	db       *sqlx.DB
	path     string
	readOnly bool
}

// Open connects to an existing catalog. A missing file is an error: the
// catalog is created by the player, never by this package.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, wrap("open", KindOpen, errors.New("catalog path is empty"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, wrap("open", KindOpen, fmt.Errorf("stat %s: %w", path, err))
	}
	if info.IsDir() {
		return nil, wrap("open", KindOpen, fmt.Errorf("%s is a directory", path))
	}

	db, err := sqlx.Open(driverName, dsn(path, opts.ReadOnly))
	if err != nil {
		return nil, wrap("open", KindOpen, fmt.Errorf("open sqlite db: %w", err))
	}
	// A single connection keeps the transaction and its reads on one handle.
	db.SetMaxOpenConns(1)

	timeout := opts.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", timeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, wrap("open", KindOpen, fmt.Errorf("apply pragma %q: %w", pragma, execErr))
		}
	}

	var songs int
	if err := db.GetContext(ctx, &songs, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'songs'`); err != nil {
		_ = db.Close()
		return nil, wrap("open", KindOpen, fmt.Errorf("inspect schema: %w", err))
	}
	if songs == 0 {
		_ = db.Close()
		return nil, wrap("open", KindOpen, fmt.Errorf("%s has no songs table", path))
	}

	return &Store{reader: reader{q: db}, db: db, path: path, readOnly: opts.ReadOnly}, nil
}

// NewWithDB wraps an existing connection. Used with mocked drivers.
func NewWithDB(db *sql.DB, path string) *Store {
	x := sqlx.NewDb(db, driverName)
	return &Store{reader: reader{q: x}, db: x, path: path}
}

func dsn(path string, readOnly bool) string {
	if !readOnly {
		return path
	}
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	return u.String()
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// ReadOnly reports whether the store was opened without write access.
func (s *Store) ReadOnly() bool {
	return s != nil && s.readOnly
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin starts the single transaction a reconcile run works in.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if s.readOnly {
		return nil, wrap("begin", KindOpen, ErrReadOnly)
	}
	var tx *sqlx.Tx
	err := retryOnBusy(ctx, func() error {
		var beginErr error
		tx, beginErr = s.db.BeginTxx(ctx, nil)
		return beginErr
	})
	if err != nil {
		return nil, wrap("begin", KindIO, err)
	}
	return &Tx{reader: reader{q: tx}, tx: tx}, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
