package connectors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/planscout/internal/connectors/feed"
	"github.com/custodia-labs/planscout/internal/connectors/sample"
	"github.com/custodia-labs/planscout/internal/core/domain"
	"github.com/custodia-labs/planscout/internal/core/ports/driven"
	"github.com/custodia-labs/planscout/internal/logger"
)

// Ensure Factory implements the interface.
var _ driven.PlanFetcherFactory = (*Factory)(nil)

// Builder creates a fetcher.
type Builder func() (driven.PlanFetcher, error)

// Factory creates plan fetchers by connector type.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewFactory creates a factory with the built-in connectors registered.
func NewFactory(cfg domain.FeedSettings, log *logger.Logger) *Factory {
	f := &Factory{builders: make(map[string]Builder)}
	f.Register(feed.Name, func() (driven.PlanFetcher, error) {
		return feed.New(cfg.Dir, feed.WithLogger(log))
	})
	f.Register(sample.Name, func() (driven.PlanFetcher, error) {
		return sample.New(), nil
	})
	return f
}

// Register adds a builder for the given connector type, replacing any
// existing one.
func (f *Factory) Register(name string, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[name] = b
}

// Create returns a fetcher of the named type.
func (f *Factory) Create(name string) (driven.PlanFetcher, error) {
	f.mu.RLock()
	b, ok := f.builders[name]
	f.mu.RUnlock()
	if !ok {
		return nil, domain.NewError(domain.KindConfiguration, "connectors.create",
			fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, name))
	}

	fetcher, err := b()
	if err != nil {
		return nil, fmt.Errorf("create %s connector: %w", name, err)
	}
	return fetcher, nil
}

// Names returns the registered connector types, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.builders))
	for n := range f.builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
