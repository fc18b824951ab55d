// Package downloads manages the flat directory of exported CSV files
// produced by browser sync attempts.
package downloads

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a flat directory of timestamped CSV files. The most recent
// file by modification time is the canonical result of the last sync.
type Store struct {
	dir string
}

// NewStore ensures the downloads directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating downloads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory browser downloads land in.
func (s *Store) Dir() string {
	return s.dir
}

// SaveAs moves a completed browser download into place under a
// deterministic timestamped name and returns the final path.
func (s *Store) SaveAs(tempPath string, at time.Time) (string, error) {
	info, err := os.Stat(tempPath)
	if err != nil {
		return "", fmt.Errorf("stat downloaded file: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("downloaded file is empty")
	}

	final := filepath.Join(s.dir, fmt.Sprintf("stripe_invoices_%s.csv", at.Format("20060102_150405")))
	if err := moveFile(tempPath, final); err != nil {
		return "", fmt.Errorf("moving download into place: %w", err)
	}
	return final, nil
}

// rename is swappable so tests can force the copy fallback.
var rename = os.Rename

// moveFile renames when it can and falls back to copy-then-remove, since
// browser downloads stage under the system temp dir which is often a
// different filesystem than the downloads dir.
func moveFile(src, dst string) error {
	if err := rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

// Latest returns the most recently modified CSV in the directory, or
// ok=false when none exists.
func (s *Store) Latest() (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}

	var (
		newest      string
		newestMtime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMtime) {
			newest = entry.Name()
			newestMtime = info.ModTime()
		}
	}
	if newest == "" {
		return "", false
	}
	return filepath.Join(s.dir, newest), true
}
