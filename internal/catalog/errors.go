package catalog

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no catalog row.
	ErrNotFound = errors.New("catalog: not found")
	// ErrPlaylistExists is returned when a playlist with the same name exists.
	ErrPlaylistExists = errors.New("catalog: playlist already exists")
	// ErrInvalidPlaylist is returned for a playlist that cannot be stored,
	// such as one with a blank name.
	ErrInvalidPlaylist = errors.New("catalog: invalid playlist")
	// ErrReadOnly is returned when a write is attempted on a read-only handle.
	ErrReadOnly = errors.New("catalog: opened read-only")
)

// Error wraps a catalog failure with a classification consumed by callers
// deciding whether a failure is fatal for the run.
type Error struct {
	Op   string
	Kind string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "catalog " + e.Op
	}
	return "catalog " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind implements the classifier used by the reconcile driver.
func (e *Error) ErrorKind() string { return e.Kind }

// Error kinds.
const (
	KindOpen      = "open"
	KindIO        = "io"
	KindNotFound  = "not_found"
	KindDuplicate = "duplicate"
	KindInvalid   = "invalid"
)

func wrap(op, kind string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsFatal reports whether err means the store can no longer be trusted for
// the rest of the run.
func IsFatal(err error) bool {
	var classified interface{ ErrorKind() string }
	if errors.As(err, &classified) {
		switch classified.ErrorKind() {
		case KindOpen, KindIO:
			return true
		}
		return false
	}
	return err != nil
}
