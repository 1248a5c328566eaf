package match

import (
	"fmt"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// NDIMatch classifies one dietary-supplement ingredient as NDI-notified,
// grandfathered as an old dietary ingredient, or requiring verification.
type NDIMatch struct {
	Ingredient     string
	Normalized     string
	Tier           MatchTier
	Confidence     Confidence
	HasNDI         bool
	RequiresNDI    bool
	Notification   *refdata.NDINotificationRecord
	OldIngredient  *refdata.OldDietaryIngredientRecord
	ComplianceNote string
	// Unverified is set when the check could not run for this ingredient.
	Unverified bool
}

type ndiEntry struct {
	rec     *refdata.NDINotificationRecord
	key     string
	compact string
	tokens  []string
}

// NDIMatcher classifies ingredients against NDI notifications and the old
// dietary ingredient list.
type NDIMatcher struct {
	entries    []ndiEntry
	odiNames   map[string]*refdata.OldDietaryIngredientRecord
	odiSyns    map[string]*refdata.OldDietaryIngredientRecord
	normalize  Normalizer
	minPartial int
}

// NewNDIMatcher indexes notifications and active old dietary ingredients.
func NewNDIMatcher(ndi []refdata.NDINotificationRecord, odi []refdata.OldDietaryIngredientRecord, opts Options) *NDIMatcher {
	opts = opts.withDefaults()
	m := &NDIMatcher{
		odiNames:   make(map[string]*refdata.OldDietaryIngredientRecord),
		odiSyns:    make(map[string]*refdata.OldDietaryIngredientRecord),
		normalize:  opts.Normalizer,
		minPartial: opts.MinNDIPartialLength,
	}
	for i := range ndi {
		key := Normalize(ndi[i].IngredientName)
		if key == "" {
			continue
		}
		m.entries = append(m.entries, ndiEntry{rec: &ndi[i], key: key, compact: compact(key), tokens: tokens(key)})
	}
	for i := range odi {
		rec := &odi[i]
		if !rec.Active {
			continue
		}
		if key := Normalize(rec.IngredientName); key != "" {
			if _, ok := m.odiNames[compact(key)]; !ok {
				m.odiNames[compact(key)] = rec
			}
		}
		for _, syn := range rec.Synonyms {
			if key := Normalize(syn); key != "" {
				if _, ok := m.odiSyns[compact(key)]; !ok {
					m.odiSyns[compact(key)] = rec
				}
			}
		}
	}
	return m
}

// Check runs NDI exact, NDI partial, ODI name/synonym and finally marks the
// ingredient as requiring verification.
func (m *NDIMatcher) Check(ingredient string) NDIMatch {
	key := m.normalize(ingredient)
	res := NDIMatch{Ingredient: ingredient, Normalized: key, Tier: TierNone}
	if key == "" {
		return res
	}
	ck := compact(key)

	for i := range m.entries {
		if m.entries[i].compact == ck {
			return m.notified(res, m.entries[i].rec, TierExact)
		}
	}
	if e := m.partial(tokens(key)); e != nil {
		return m.notified(res, e.rec, TierPartial)
	}

	if rec, ok := m.odiNames[ck]; ok {
		return grandfathered(res, rec, TierGrandfatheredExact)
	}
	if rec, ok := m.odiSyns[ck]; ok {
		return grandfathered(res, rec, TierGrandfatheredSynonym)
	}

	res.Tier = TierRequiresVerification
	res.Confidence = ConfidenceFor(res.Tier)
	res.RequiresNDI = true
	res.ComplianceNote = fmt.Sprintf("No NDI notification found for %s, and it is not recognized as an old dietary ingredient "+
		"marketed before October 15, 1994. If it is a new dietary ingredient, DSHEA (FD&C Act §413) requires notification "+
		"to FDA at least 75 days before marketing. The reference list is incomplete, so verify manually before treating "+
		"this as a violation.", ingredient)
	return res
}

// partial picks the notification sharing the longest whole-token span with
// the ingredient, in either direction. An ingredient that is a fragment of a
// notified name must start at that name's first token. Ties go to corpus
// order.
func (m *NDIMatcher) partial(toks []string) *ndiEntry {
	var best *ndiEntry
	bestSpan := 0
	for i := range m.entries {
		e := &m.entries[i]
		var shared []string
		switch {
		case containsTokens(e.tokens, toks):
			if len(toks) == 0 || toks[0] != e.tokens[0] {
				continue
			}
			shared = toks
		case containsTokens(toks, e.tokens):
			shared = e.tokens
		default:
			continue
		}
		span := runeLen(joinTokens(shared))
		if span < m.minPartial || !specific(shared) || span <= bestSpan {
			continue
		}
		best, bestSpan = e, span
	}
	return best
}

func (m *NDIMatcher) notified(res NDIMatch, rec *refdata.NDINotificationRecord, tier MatchTier) NDIMatch {
	res.Tier = tier
	res.Confidence = ConfidenceFor(tier)
	res.HasNDI = true
	res.Notification = rec
	if tier == TierExact {
		res.ComplianceNote = fmt.Sprintf("NDI notification #%s on file for %s%s.",
			rec.NotificationNumber, rec.IngredientName, notificationDetail(rec))
	} else {
		res.ComplianceNote = fmt.Sprintf("Possible match to NDI notification #%s for %s%s. Confirm the ingredient "+
			"identity and specification match the notified ingredient.",
			rec.NotificationNumber, rec.IngredientName, notificationDetail(rec))
	}
	return res
}

func notificationDetail(rec *refdata.NDINotificationRecord) string {
	s := ""
	if rec.Firm != "" {
		s += " (firm: " + rec.Firm + ")"
	}
	if rec.FDAResponseDate != "" {
		s += ", FDA response " + rec.FDAResponseDate
	}
	return s
}

func grandfathered(res NDIMatch, rec *refdata.OldDietaryIngredientRecord, tier MatchTier) NDIMatch {
	res.Tier = tier
	res.Confidence = ConfidenceFor(tier)
	res.OldIngredient = rec
	source := ""
	if rec.SourceOrganization != "" {
		source = " (listed by " + rec.SourceOrganization + ")"
	}
	res.ComplianceNote = fmt.Sprintf("%s was marketed before October 15, 1994 as %s%s and is grandfathered under DSHEA "+
		"as an old dietary ingredient. No NDI notification is required.", res.Ingredient, rec.IngredientName, source)
	return res
}
