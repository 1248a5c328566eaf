package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// Adapter pulls one reference corpus from a public source into the store.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "fda-gras-notices").
	ID() string
	// Corpus returns the corpus the adapter replaces.
	Corpus() refdata.Corpus
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	// It may be empty when no public machine-readable source exists.
	DefaultURL() string
	// License returns the license of the source data.
	License() string
	// Import fetches sourceURL (http(s) URL or local path), parses it and
	// replaces the corpus table in store in one transaction. It returns the
	// number of records written.
	Import(ctx context.Context, sourceURL string, store *refdata.Store) (int, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Run imports a through the URL recorded in sources, or override when set,
// and records the outcome in sources.
func Run(ctx context.Context, a Adapter, sources *SourceDB, store *refdata.Store, override string) (int, error) {
	url := override
	if url == "" {
		var err error
		if url, err = sources.GetURL(a.ID()); err != nil {
			return 0, err
		}
	}
	if url == "" {
		return 0, fmt.Errorf("%s: %w", a.ID(), ErrNoSourceURL)
	}

	n, err := a.Import(ctx, url, store)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if rerr := sources.RecordImport(a.ID(), n, msg); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return n, fmt.Errorf("%s: %w", a.ID(), err)
	}
	return n, nil
}
