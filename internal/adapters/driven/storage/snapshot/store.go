// Package snapshot persists provider snapshots as JSON files named
// <provider-slug>_<YYYYMMDD_HHMMSS>.json.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
)

// maxCollisionShift bounds how far Save moves a timestamp forward to
// find a free filename.
const maxCollisionShift = 60

// Ensure FileStore implements the interface.
var _ driven.SnapshotStore = (*FileStore)(nil)

// FileStore writes snapshots into a directory. Files are never overwritten.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: snapshot directory is empty", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes snapshot to a temporary file and links it into place.
// If the name is taken the timestamp is advanced one second at a time.
func (s *FileStore) Save(_ context.Context, snapshot domain.ProviderSnapshot) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot: %w", err)
	}

	at := snapshot.ScrapedAt
	for i := 0; i < maxCollisionShift; i++ {
		path := filepath.Join(s.dir, domain.SnapshotFilename(snapshot.Provider, at))
		err := os.Link(tmpPath, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("publishing snapshot: %w", err)
		}
		at = at.Add(time.Second)
	}
	return "", fmt.Errorf("publishing snapshot: no free filename for %s", snapshot.Provider)
}

// Latest loads the snapshot with the greatest timestamp for provider.
func (s *FileStore) Latest(_ context.Context, provider string) (*domain.ProviderSnapshot, error) {
	names, err := s.names(provider)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, domain.ErrNotFound
	}

	latest := names[len(names)-1]
	data, err := os.ReadFile(filepath.Join(s.dir, latest))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", latest, err)
	}

	var snap domain.ProviderSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", latest, err)
	}
	return &snap, nil
}

// List returns snapshot filenames for provider, oldest first.
func (s *FileStore) List(_ context.Context, provider string) ([]string, error) {
	return s.names(provider)
}

// Remove deletes every snapshot for provider.
func (s *FileStore) Remove(_ context.Context, provider string) (int, error) {
	names, err := s.names(provider)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("removing snapshot %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// names returns provider's snapshot filenames sorted ascending. Only names
// whose suffix parses as a snapshot timestamp are considered, so a slug that
// prefixes another provider's slug does not match its files.
func (s *FileStore) names(provider string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	prefix := domain.ProviderSlug(provider) + "_"
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		if _, err := time.Parse(domain.SnapshotTimeLayout, stamp); err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
