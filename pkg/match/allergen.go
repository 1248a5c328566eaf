package match

import (
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// Normalizer turns a raw ingredient into its comparison key.
type Normalizer func(string) string

// AllergenMatch is one allergen an ingredient touches.
type AllergenMatch struct {
	Ingredient  string
	Normalized  string
	Allergen    *refdata.AllergenDefinition
	Tier        MatchTier
	Confidence  Confidence
	MatchedTerm string
}

type allergenTerm struct {
	key    string
	tokens []string
}

type allergenEntry struct {
	def      *refdata.AllergenDefinition
	names    map[string]bool // normalized and plural-insensitive own names
	derived  map[string]string
	fuzzable []allergenTerm
}

// AllergenMatcher classifies ingredients against the allergen taxonomy.
type AllergenMatcher struct {
	entries      []allergenEntry
	deny         Denylist
	denyTokens   [][]string
	normalize    Normalizer
	minFuzzyTerm int
}

// NewAllergenMatcher indexes the active definitions in defs. Inactive records
// are skipped.
func NewAllergenMatcher(defs []refdata.AllergenDefinition, opts Options) *AllergenMatcher {
	opts = opts.withDefaults()
	m := &AllergenMatcher{
		deny:         opts.Denylist,
		normalize:    opts.Normalizer,
		minFuzzyTerm: opts.MinFuzzyTermLength,
	}
	for key := range m.deny {
		m.denyTokens = append(m.denyTokens, singularTokens(key))
	}
	for i := range defs {
		def := &defs[i]
		if !def.Active {
			continue
		}
		e := allergenEntry{
			def:     def,
			names:   make(map[string]bool),
			derived: make(map[string]string),
		}
		for _, name := range []string{def.Name, def.CommonName} {
			key := Normalize(name)
			if key == "" {
				continue
			}
			e.names[key] = true
			e.names[tokenKey(key)] = true
			e.addFuzzy(key)
		}
		for _, list := range [][]string{def.Derivatives, def.ScientificNames} {
			for _, term := range list {
				key := Normalize(term)
				if key == "" {
					continue
				}
				e.derived[tokenKey(key)] = key
				e.addFuzzy(key)
			}
		}
		m.entries = append(m.entries, e)
	}
	return m
}

func (e *allergenEntry) addFuzzy(key string) {
	e.fuzzable = append(e.fuzzable, allergenTerm{key: key, tokens: singularTokens(key)})
}

// Match returns every allergen the ingredient touches, in corpus order, at
// most one result per allergen. No concern yields an empty slice.
func (m *AllergenMatcher) Match(ingredient string) []AllergenMatch {
	key := m.normalize(ingredient)
	if key == "" || m.deny.Contains(key) {
		return nil
	}
	tk := tokenKey(key)
	toks := tokens(tk)
	spans := denied(toks, m.denyTokens)

	var out []AllergenMatch
	for i := range m.entries {
		e := &m.entries[i]
		tier, term := m.classify(e, key, tk, toks, spans)
		if tier == TierNone {
			continue
		}
		out = append(out, AllergenMatch{
			Ingredient:  ingredient,
			Normalized:  key,
			Allergen:    e.def,
			Tier:        tier,
			Confidence:  ConfidenceFor(tier),
			MatchedTerm: term,
		})
	}
	return out
}

func (m *AllergenMatcher) classify(e *allergenEntry, key, tk string, toks []string, spans [][2]int) (MatchTier, string) {
	if e.names[key] || e.names[tk] {
		return TierExact, key
	}
	if term, ok := e.derived[tk]; ok {
		return TierDerivative, term
	}
	// Fuzzy: a whole-token occurrence of any allergen term inside a compound
	// phrase, outside every denied phrase. The longest such term is reported.
	best := ""
	for _, t := range e.fuzzable {
		if runeLen(t.key) < m.minFuzzyTerm || len(t.key) <= len(best) {
			continue
		}
		for _, i := range tokenIndexes(toks, t.tokens) {
			if !within(spans, i, i+len(t.tokens)) {
				best = t.key
				break
			}
		}
	}
	if best != "" {
		return TierFuzzy, best
	}
	return TierNone, ""
}

// within reports whether the token range [start, end) lies inside one span.
func within(spans [][2]int, start, end int) bool {
	for _, sp := range spans {
		if start >= sp[0] && end <= sp[1] {
			return true
		}
	}
	return false
}
