package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"playsync/internal/catalog"
	"playsync/internal/listenbrainz"
)

// ListenCounter reports how many listens a user has.
type ListenCounter interface {
	ListenCount(ctx context.Context, user string) (int64, error)
}

// CheckCatalogAccess verifies that path is a readable catalog with a songs
// table. With write set, the file and its directory must also be writable so
// the journal can be created.
func CheckCatalogAccess(ctx context.Context, name, path string, write bool) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	if r := checkRegularFile(name, path); !r.Passed {
		return r
	}
	mode := uint32(unix.R_OK)
	if write {
		mode |= unix.W_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	if write {
		dir := filepath.Dir(path)
		if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", dir, err)}
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	store, err := catalog.Open(checkCtx, path, catalog.Options{ReadOnly: true})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	n, err := store.CountSongs(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}

	access := "read ok"
	if write {
		access = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d songs, %s)", path, n, access)}
}

// CheckFileReadable verifies that path is a readable regular file.
func CheckFileReadable(name, path string) Result {
	if r := checkRegularFile(name, path); !r.Passed {
		return r
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

func checkRegularFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckListenBrainz verifies that the listen service is reachable and knows
// user. It makes a single attempt with a 10-second timeout.
func CheckListenBrainz(ctx context.Context, client ListenCounter, user string) Result {
	const name = "ListenBrainz"

	user = strings.TrimSpace(user)
	if user == "" {
		return Result{Name: name, Detail: "missing user"}
	}
	if client == nil {
		return Result{Name: name, Detail: "client not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	n, err := client.ListenCount(checkCtx, user)
	if err != nil {
		return Result{Name: name, Detail: summarizeListenError(user, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s has %d listens)", user, n)}
}

// summarizeListenError produces a human-readable summary for listen service failures.
func summarizeListenError(user string, err error) string {
	if errors.Is(err, listenbrainz.ErrUserNotFound) {
		return fmt.Sprintf("user %q not found", user)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
