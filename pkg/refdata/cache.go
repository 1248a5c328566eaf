package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultFetchTimeout   = 30 * time.Second
	DefaultFailureBackoff = 5 * time.Second
)

// CacheOptions tunes a Cache. Zero values select the defaults.
type CacheOptions struct {
	FetchTimeout   time.Duration
	FailureBackoff time.Duration
	Logger         *slog.Logger
}

// slot holds one corpus. good survives invalidation so a failed refetch can
// still serve the last known-good list.
type slot struct {
	good       any
	count      int
	loaded     bool
	loadedAt   time.Time
	gen        uint64
	version    uint64
	fetches    int
	lastErr    error
	retryAfter time.Time
}

// Cache is the process-wide, read-mostly store of the four corpora. Each
// corpus is fetched lazily, at most once concurrently, and kept until
// Invalidate.
type Cache struct {
	src     Source
	logger  *slog.Logger
	timeout time.Duration
	backoff time.Duration
	now     func() time.Time

	sf    singleflight.Group
	mu    sync.RWMutex
	slots map[Corpus]*slot
}

// NewCache creates an empty cache backed by src.
func NewCache(src Source, opts CacheOptions) (*Cache, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	c := &Cache{
		src:     src,
		logger:  opts.Logger,
		timeout: opts.FetchTimeout,
		backoff: opts.FailureBackoff,
		now:     time.Now,
		slots:   make(map[Corpus]*slot, len(AllCorpora)),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultFetchTimeout
	}
	if c.backoff <= 0 {
		c.backoff = DefaultFailureBackoff
	}
	for _, corpus := range AllCorpora {
		c.slots[corpus] = &slot{}
	}
	return c, nil
}

// Allergens returns the cached allergen taxonomy, fetching it on a miss.
func (c *Cache) Allergens(ctx context.Context) []AllergenDefinition {
	recs, _ := load(ctx, c, CorpusAllergens, c.src.FetchAllergens)
	return recs
}

// GRAS returns the cached GRAS corpus, fetching it on a miss.
func (c *Cache) GRAS(ctx context.Context) []GRASIngredientRecord {
	recs, _ := load(ctx, c, CorpusGRAS, c.src.FetchGRAS)
	return recs
}

// NDI returns the cached NDI notifications, fetching them on a miss.
func (c *Cache) NDI(ctx context.Context) []NDINotificationRecord {
	recs, _ := load(ctx, c, CorpusNDI, c.src.FetchNDI)
	return recs
}

// ODI returns the cached old dietary ingredients, fetching them on a miss.
func (c *Cache) ODI(ctx context.Context) []OldDietaryIngredientRecord {
	recs, _ := load(ctx, c, CorpusODI, c.src.FetchODI)
	return recs
}

// versioned pairs a corpus list with the slot version it was read at.
type versioned[T any] struct {
	recs    []T
	version uint64
}

// load never fails: a fetch error degrades to the last known-good list, or
// to an empty one.
func load[T any](ctx context.Context, c *Cache, corpus Corpus, fetch func(context.Context) ([]T, error)) ([]T, uint64) {
	c.mu.RLock()
	s := c.slots[corpus]
	if s.loaded || c.now().Before(s.retryAfter) {
		recs, _ := s.good.([]T)
		version := s.version
		c.mu.RUnlock()
		return recs, version
	}
	c.mu.RUnlock()

	v, _, _ := c.sf.Do(string(corpus), func() (any, error) {
		c.mu.RLock()
		gen := c.slots[corpus].gen
		c.mu.RUnlock()

		// The fetch is shared, so one caller's cancellation must not fail it
		// for the others.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		recs, err := safeFetch(fctx, fetch)

		c.mu.Lock()
		defer c.mu.Unlock()
		s := c.slots[corpus]
		s.fetches++
		if err != nil {
			s.lastErr = err
			s.retryAfter = c.now().Add(c.backoff)
			stale, _ := s.good.([]T)
			c.logger.Warn("reference data fetch failed",
				"corpus", corpus, "error", err, "stale", stale != nil, "records", len(stale))
			return versioned[T]{stale, s.version}, nil
		}
		if recs == nil {
			recs = []T{}
		}
		if s.gen != gen {
			// Invalidated mid-flight: the result only serves this flight's
			// callers and must not replace a newer load.
			c.logger.Debug("discarding reference data fetched before invalidation",
				"corpus", corpus, "records", len(recs))
			return versioned[T]{recs, s.version}, nil
		}
		s.good = recs
		s.count = len(recs)
		s.lastErr = nil
		s.retryAfter = time.Time{}
		s.version++
		s.loaded = true
		s.loadedAt = c.now()
		c.logger.Debug("reference data loaded", "corpus", corpus, "records", len(recs))
		return versioned[T]{recs, s.version}, nil
	})
	res, _ := v.(versioned[T])
	return res.recs, res.version
}

func safeFetch[T any](ctx context.Context, fetch func(context.Context) ([]T, error)) (recs []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// Invalidate drops the named corpora (all of them when none are given) so the
// next access refetches. Callers already holding a Snapshot keep using it.
func (c *Cache) Invalidate(corpora ...Corpus) {
	if len(corpora) == 0 {
		corpora = AllCorpora
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, corpus := range corpora {
		s, ok := c.slots[corpus]
		if !ok {
			continue
		}
		s.loaded = false
		s.gen++
		s.retryAfter = time.Time{}
		c.sf.Forget(string(corpus))
	}
	c.logger.Info("reference data invalidated", "corpora", corpora)
}

// Snapshot is an immutable view of all four corpora taken for one matching
// call.
type Snapshot struct {
	Allergens []AllergenDefinition
	GRAS      []GRASIngredientRecord
	NDI       []NDINotificationRecord
	ODI       []OldDietaryIngredientRecord
	// Versions identifies the loaded contents per corpus, in AllCorpora order.
	Versions [4]uint64
}

// Snapshot loads (if needed) and returns all four corpora. The corpora are
// fetched concurrently on a cold cache.
func (c *Cache) Snapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{}
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		snap.Allergens, snap.Versions[0] = load(ctx, c, CorpusAllergens, c.src.FetchAllergens)
	}()
	go func() {
		defer wg.Done()
		snap.GRAS, snap.Versions[1] = load(ctx, c, CorpusGRAS, c.src.FetchGRAS)
	}()
	go func() {
		defer wg.Done()
		snap.NDI, snap.Versions[2] = load(ctx, c, CorpusNDI, c.src.FetchNDI)
	}()
	go func() {
		defer wg.Done()
		snap.ODI, snap.Versions[3] = load(ctx, c, CorpusODI, c.src.FetchODI)
	}()
	wg.Wait()
	return snap
}

// CorpusStats describes the cache state of one corpus.
type CorpusStats struct {
	Corpus    Corpus    `json:"corpus"`
	Records   int       `json:"records"`
	Loaded    bool      `json:"loaded"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Fetches   int       `json:"fetches"`
	Version   uint64    `json:"version"`
	LastError string    `json:"last_error,omitempty"`
}

// Stats reports per-corpus cache state in AllCorpora order.
func (c *Cache) Stats() []CorpusStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CorpusStats, 0, len(AllCorpora))
	for _, corpus := range AllCorpora {
		s := c.slots[corpus]
		st := CorpusStats{
			Corpus:   corpus,
			Records:  s.count,
			Loaded:   s.loaded,
			LoadedAt: s.loadedAt,
			Fetches:  s.fetches,
			Version:  s.version,
		}
		if s.lastErr != nil {
			st.LastError = s.lastErr.Error()
		}
		out = append(out, st)
	}
	return out
}
