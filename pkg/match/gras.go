package match

import (
	"github.com/hazyhaar/labelcheck/pkg/refdata"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// GRASMatch is the GRAS decision for one ingredient. Tier is None when the
// ingredient was not found, which callers must treat as not GRAS.
type GRASMatch struct {
	Ingredient  string
	Normalized  string
	Record      *refdata.GRASIngredientRecord
	Tier        MatchTier
	Confidence  Confidence
	MatchedTerm string
	// Unverified is set when the check could not run for this ingredient.
	Unverified bool
}

// IsGRAS reports whether the ingredient matched a GRAS record.
func (g GRASMatch) IsGRAS() bool { return g.Tier.Matched() }

type grasTerm struct {
	key    string
	tokens []string
	rec    int
}

// GRASMatcher classifies ingredients against the GRAS corpus.
type GRASMatcher struct {
	records   []*refdata.GRASIngredientRecord
	names     map[string]int
	synonyms  map[string]int
	terms     []grasTerm
	normalize Normalizer
	minShared int
	maxDist   int
	dmp       *diffmatchpatch.DiffMatchPatch
}

// NewGRASMatcher indexes the active records. On duplicate keys the first
// record wins.
func NewGRASMatcher(recs []refdata.GRASIngredientRecord, opts Options) *GRASMatcher {
	opts = opts.withDefaults()
	m := &GRASMatcher{
		names:     make(map[string]int),
		synonyms:  make(map[string]int),
		normalize: opts.Normalizer,
		minShared: opts.MinGRASSharedLength,
		maxDist:   opts.SuggestionMaxDistance,
		dmp:       diffmatchpatch.New(),
	}
	for i := range recs {
		rec := &recs[i]
		if !rec.Active {
			continue
		}
		idx := len(m.records)
		m.records = append(m.records, rec)

		if key := Normalize(rec.Name); key != "" {
			putFirst(m.names, key, idx)
			putFirst(m.names, compact(key), idx)
			m.terms = append(m.terms, grasTerm{key: key, tokens: tokens(key), rec: idx})
		}
		for _, syn := range rec.Synonyms {
			key := Normalize(syn)
			if key == "" {
				continue
			}
			putFirst(m.synonyms, key, idx)
			putFirst(m.synonyms, compact(key), idx)
			m.terms = append(m.terms, grasTerm{key: key, tokens: tokens(key), rec: idx})
		}
	}
	return m
}

func putFirst(m map[string]int, key string, idx int) {
	if _, ok := m[key]; !ok {
		m[key] = idx
	}
}

// Check returns the GRAS decision for one ingredient: exact name, then
// synonym, then a bounded token-containment fuzzy match.
func (m *GRASMatcher) Check(ingredient string) GRASMatch {
	key := m.normalize(ingredient)
	res := GRASMatch{Ingredient: ingredient, Normalized: key, Tier: TierNone}
	if key == "" {
		return res
	}

	if idx, ok := lookup(m.names, key); ok {
		return m.hit(res, idx, TierExact, key)
	}
	if idx, ok := lookup(m.synonyms, key); ok {
		return m.hit(res, idx, TierSynonym, key)
	}

	// Fuzzy: either side must contain the other as whole tokens and the
	// shared span must be long and specific enough.
	toks := tokens(key)
	bestIdx, bestTerm := -1, ""
	for _, t := range m.terms {
		var shared []string
		switch {
		case containsTokens(toks, t.tokens):
			shared = t.tokens
		case containsTokens(t.tokens, toks):
			shared = toks
		default:
			continue
		}
		span := runeLen(joinTokens(shared))
		if span < m.minShared || !specific(shared) || span <= runeLen(bestTerm) {
			continue
		}
		bestIdx, bestTerm = t.rec, t.key
	}
	if bestIdx >= 0 {
		return m.hit(res, bestIdx, TierFuzzy, bestTerm)
	}
	return res
}

func lookup(m map[string]int, key string) (int, bool) {
	if idx, ok := m[key]; ok {
		return idx, true
	}
	idx, ok := m[compact(key)]
	return idx, ok
}

func (m *GRASMatcher) hit(res GRASMatch, idx int, tier MatchTier, term string) GRASMatch {
	res.Record = m.records[idx]
	res.Tier = tier
	res.Confidence = ConfidenceFor(tier)
	res.MatchedTerm = term
	return res
}

// Suggest returns the GRAS name closest to an unmatched ingredient within the
// configured edit distance, for spotting OCR misspellings. It never changes
// a GRAS decision.
func (m *GRASMatcher) Suggest(ingredient string) (string, bool) {
	key := m.normalize(ingredient)
	if runeLen(key) < m.minShared || m.maxDist <= 0 {
		return "", false
	}
	best, bestDist := "", m.maxDist+1
	for _, t := range m.terms {
		if d := runeLen(t.key) - runeLen(key); d > m.maxDist || -d > m.maxDist {
			continue
		}
		dist := m.dmp.DiffLevenshtein(m.dmp.DiffMain(key, t.key, false))
		if dist > 0 && dist < bestDist {
			best, bestDist = m.records[t.rec].Name, dist
		}
	}
	return best, best != ""
}
