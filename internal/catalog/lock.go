package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 250 * time.Millisecond

// LockPath returns the advisory lock file used for catalogPath.
func LockPath(catalogPath string) string {
	return catalogPath + ".playsync.lock"
}

// Lock is an advisory lock held while a run writes to a catalog.
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the advisory lock for catalogPath, waiting until ctx is
// done. Only other playsync processes honour it; the player does not.
func AcquireLock(ctx context.Context, catalogPath string) (*Lock, error) {
	path := LockPath(catalogPath)
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("another playsync run holds %s: %w", path, err)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another playsync run holds %s", path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
