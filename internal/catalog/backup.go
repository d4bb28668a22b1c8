package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"playsync/internal/fileutil"
)

// Backup writes a verified copy of the catalog file into dir (the catalog's
// own directory when dir is empty) and returns the copy's path.
func (s *Store) Backup(dir string, now time.Time) (string, error) {
	return BackupFile(s.path, dir, now)
}

// BackupFile copies catalogPath to "<name>.<timestamp>.bak" inside dir.
func BackupFile(catalogPath, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = filepath.Dir(catalogPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(catalogPath), now.UTC().Format("20060102T150405Z"))
	dst := filepath.Join(dir, name)
	if err := fileutil.CopyFileVerified(catalogPath, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", catalogPath, err)
	}
	return dst, nil
}
