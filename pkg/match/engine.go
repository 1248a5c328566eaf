package match

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// Options tunes the matchers. Zero values select the defaults.
type Options struct {
	// MinFuzzyTermLength is the shortest allergen term (in runes) allowed to
	// fire a fuzzy match.
	MinFuzzyTermLength int
	// MinGRASSharedLength is the shortest shared token span for a GRAS fuzzy
	// match.
	MinGRASSharedLength int
	// MinNDIPartialLength is the shortest shared token span for an NDI
	// partial match.
	MinNDIPartialLength int
	// SuggestionMaxDistance bounds GRAS spelling suggestions; 0 disables them.
	SuggestionMaxDistance int
	Denylist              Denylist
	Normalizer            Normalizer
}

const (
	DefaultMinFuzzyTermLength    = 3
	DefaultMinGRASSharedLength   = 5
	DefaultMinNDIPartialLength   = 4
	DefaultSuggestionMaxDistance = 2
)

// DefaultOptions returns the defaults, including the builtin denylist and
// spelling suggestions.
func DefaultOptions() Options {
	return Options{SuggestionMaxDistance: DefaultSuggestionMaxDistance}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MinFuzzyTermLength <= 0 {
		o.MinFuzzyTermLength = DefaultMinFuzzyTermLength
	}
	if o.MinGRASSharedLength <= 0 {
		o.MinGRASSharedLength = DefaultMinGRASSharedLength
	}
	if o.MinNDIPartialLength <= 0 {
		o.MinNDIPartialLength = DefaultMinNDIPartialLength
	}
	if o.SuggestionMaxDistance < 0 {
		o.SuggestionMaxDistance = 0
	}
	if o.Denylist == nil {
		o.Denylist = NewDenylist(DefaultDenylistTerms)
	}
	if o.Normalizer == nil {
		o.Normalizer = Normalize
	}
	return o
}

// Matchers is the set of matchers built over one cache snapshot.
type Matchers struct {
	Allergens *AllergenMatcher
	GRAS      *GRASMatcher
	NDI       *NDIMatcher
	Snapshot  *refdata.Snapshot
}

// NewMatchers builds all three matchers over snap.
func NewMatchers(snap *refdata.Snapshot, opts Options) *Matchers {
	opts = opts.withDefaults()
	return &Matchers{
		Allergens: NewAllergenMatcher(snap.Allergens, opts),
		GRAS:      NewGRASMatcher(snap.GRAS, opts),
		NDI:       NewNDIMatcher(snap.NDI, snap.ODI, opts),
		Snapshot:  snap,
	}
}

// Engine builds matchers from the reference data cache, rebuilding only
// when a corpus changed.
type Engine struct {
	cache *refdata.Cache
	opts  Options

	mu      sync.Mutex
	current *Matchers
}

// NewEngine creates an engine over cache. normalizeCacheSize > 0 memoizes
// normalization of raw ingredient strings.
func NewEngine(cache *refdata.Cache, opts Options, normalizeCacheSize int) (*Engine, error) {
	opts = opts.withDefaults()
	if normalizeCacheSize > 0 {
		memo, err := lru.New[string, string](normalizeCacheSize)
		if err != nil {
			return nil, fmt.Errorf("normalize cache: %w", err)
		}
		base := opts.Normalizer
		opts.Normalizer = func(raw string) string {
			if key, ok := memo.Get(raw); ok {
				return key
			}
			key := base(raw)
			memo.Add(raw, key)
			return key
		}
	}
	return &Engine{cache: cache, opts: opts}, nil
}

// Matchers returns matchers over the current cache contents. The returned
// value is immutable and unaffected by later invalidation.
func (e *Engine) Matchers(ctx context.Context) *Matchers {
	snap := e.cache.Snapshot(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil && e.current.Snapshot.Versions == snap.Versions {
		return e.current
	}
	e.current = NewMatchers(snap, e.opts)
	return e.current
}

// Cache exposes the underlying reference data cache.
func (e *Engine) Cache() *refdata.Cache {
	return e.cache
}
