package reconcile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"playsync/internal/library"
	"playsync/internal/logging"
	"playsync/internal/reconcile"
	"playsync/internal/testsupport"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strawberry.db")
	testsupport.CreateCatalog(t, path)
	return path
}

func writeOptions() reconcile.Options {
	return reconcile.Options{Write: true, ArtistTitleFallback: true}
}

func newRunner(t *testing.T, path string, opts reconcile.Options) *reconcile.Runner {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	store := testsupport.MustOpenCatalog(t, path)
	return reconcile.NewRunner(store, opts, logging.NewNop())
}

func loadLibrary(t *testing.T, fx testsupport.LibraryFixture) *library.Library {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Library.xml")
	testsupport.WriteLibrary(t, path, fx)
	lib, err := library.Load(path)
	if err != nil {
		t.Fatalf("library.Load: %v", err)
	}
	return lib
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func assertUnchanged(t *testing.T, path string, before []byte) {
	t.Helper()
	if !bytes.Equal(before, readFile(t, path)) {
		t.Fatalf("catalog file %s changed", path)
	}
}
