package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/logger"
)

// Name is the connector type identifier.
const Name = "feed"

const feedExt = ".json"

// DefaultDebounce coalesces bursts of write events for one file.
const DefaultDebounce = 250 * time.Millisecond

// Ensure Fetcher implements the interfaces.
var (
	_ driven.PlanFetcher = (*Fetcher)(nil)
	_ driven.PlanWatcher = (*Fetcher)(nil)
)

// Fetcher reads provider feeds from a directory.
type Fetcher struct {
	dir      string
	log      *logger.Logger
	debounce time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithDebounce sets how long Watch waits for a burst of events to settle.
func WithDebounce(d time.Duration) Option {
	return func(f *Fetcher) {
		f.debounce = d
	}
}

// New creates a feed fetcher rooted at dir.
func New(dir string, opts ...Option) (*Fetcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: feed directory is required", domain.ErrConfiguration)
	}
	f := &Fetcher{
		dir:      dir,
		log:      logger.Nop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("feed")
	return f, nil
}

// Name returns the connector type identifier.
func (f *Fetcher) Name() string {
	return Name
}

// Dir returns the watched directory.
func (f *Fetcher) Dir() string {
	return f.dir
}

// Fetch reads the newest feed file for provider. A missing directory or
// no matching file yields no records. Records without a provider inherit
// the requested one.
func (f *Fetcher) Fetch(ctx context.Context, provider string) ([]domain.PlanRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := f.newest(provider)
	if err != nil {
		return nil, err
	}
	if path == "" {
		f.log.Debug("no feed file for %s in %s", provider, f.dir)
		return []domain.PlanRecord{}, nil
	}

	records, bad, err := readFeed(path)
	if err != nil {
		return nil, err
	}
	if bad > 0 {
		f.log.Warn("skipped %d undecodable records in %s", bad, filepath.Base(path))
	}

	canonical := domain.CanonicalProvider(provider)
	for i := range records {
		if strings.TrimSpace(records[i].Provider) == "" {
			records[i].Provider = canonical
		}
	}
	f.log.Debug("read %d records for %s from %s", len(records), provider, filepath.Base(path))
	return records, nil
}

// Close is a no-op.
func (f *Fetcher) Close() error {
	return nil
}

// newest returns the most recently modified feed file for provider, or ""
// when there is none.
func (f *Fetcher) newest(provider string) (string, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read feed dir: %w", err)
	}

	slug := domain.ProviderSlug(domain.CanonicalProvider(provider))

	type candidate struct {
		name    string
		modTime time.Time
	}
	var matches []candidate
	for _, e := range entries {
		if e.IsDir() || !matchesSlug(e.Name(), slug) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matches = append(matches, candidate{name: e.Name(), modTime: info.ModTime()})
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].modTime.Equal(matches[j].modTime) {
			return matches[i].modTime.After(matches[j].modTime)
		}
		return matches[i].name > matches[j].name
	})
	return filepath.Join(f.dir, matches[0].name), nil
}

// matchesSlug reports whether name is a visible feed file for slug:
// <slug>.json or <slug>_<anything>.json.
func matchesSlug(name, slug string) bool {
	if slug == "" || isHidden(name) || !strings.HasSuffix(name, feedExt) {
		return false
	}
	base := strings.TrimSuffix(name, feedExt)
	return base == slug || strings.HasPrefix(base, slug+"_")
}

// providerFor maps a feed filename to a provider name. Known providers are
// returned in their display form; anything else is returned as its slug.
func providerFor(name string) (string, bool) {
	if isHidden(name) || !strings.HasSuffix(name, feedExt) {
		return "", false
	}
	for _, p := range domain.KnownProviders {
		if matchesSlug(name, domain.ProviderSlug(p)) {
			return p, true
		}
	}
	base := strings.TrimSuffix(name, feedExt)
	slug, _, _ := strings.Cut(base, "_")
	if slug == "" {
		return "", false
	}
	return slug, true
}

// isHidden reports whether a file name starts with a dot.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// feedDocument is the object form of a feed file.
type feedDocument struct {
	Plans []json.RawMessage `json:"plans"`
}

// readFeed decodes either a bare record array or an object with a plans
// array. Records are decoded one at a time; the number that failed is
// returned alongside the good ones.
func readFeed(path string) ([]domain.PlanRecord, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read feed %s: %w", filepath.Base(path), err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return []domain.PlanRecord{}, 0, nil
	}

	var raws []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &raws)
	} else {
		var doc feedDocument
		err = json.Unmarshal(data, &doc)
		raws = doc.Plans
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decode feed %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}

	records := make([]domain.PlanRecord, 0, len(raws))
	bad := 0
	for _, raw := range raws {
		var rec domain.PlanRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			bad++
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}
