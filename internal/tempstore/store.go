package tempstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

// Store writes uploaded blobs into a scratch directory under
// collision-resistant names and removes them when the background job is
// done. Files are never meant to outlive one job execution; the sweeper only
// mops up after a crash.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save streams src to disk under <unix-timestamp>_<sanitized-name> and
// returns the full path.
func (s *Store) Save(originalName string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().Unix(), SanitizeName(originalName))
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

// Read returns the full contents of a stored file.
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove deletes a stored file. An already-missing file is not an error so
// the cleanup path can run unconditionally.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SanitizeName strips path components and anything outside a conservative
// character set from a client-supplied filename.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}

// StartSweeper periodically removes files older than ttl. Jobs delete their
// own files; the sweeper covers blobs orphaned between save and job
// completion by a crash or kill.
func (s *Store) StartSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go s.sweepLoop(ctx, ttl, interval)
}

func (s *Store) sweepLoop(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweepOnce(ttl); err != nil {
				log.Printf("temp sweep error: %v", err)
			}
		}
	}
}

func (s *Store) sweepOnce(ttl time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove stale temp file %s failed: %v", path, err)
		}
	}
	return nil
}
