package match

import "fmt"

// MatchTier is how an ingredient matched a reference record.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierExact
	TierDerivative
	TierSynonym
	TierFuzzy
	TierPartial
	TierGrandfatheredExact
	TierGrandfatheredSynonym
	TierRequiresVerification
)

var tierNames = [...]string{
	TierNone:                 "none",
	TierExact:                "exact",
	TierDerivative:           "derivative",
	TierSynonym:              "synonym",
	TierFuzzy:                "fuzzy",
	TierPartial:              "partial",
	TierGrandfatheredExact:   "grandfathered_exact",
	TierGrandfatheredSynonym: "grandfathered_synonym",
	TierRequiresVerification: "requires_verification",
}

func (t MatchTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return fmt.Sprintf("MatchTier(%d)", int(t))
	}
	return tierNames[t]
}

// Matched reports whether the tier represents a hit in some corpus.
func (t MatchTier) Matched() bool {
	return t != TierNone && t != TierRequiresVerification
}

func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MatchTier) UnmarshalText(b []byte) error {
	for i, name := range tierNames {
		if name == string(b) {
			*t = MatchTier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match tier %q", b)
}

// Confidence grades a match. It is derived from the tier only.
type Confidence int

const (
	ConfidenceNotApplicable Confidence = iota
	ConfidenceHigh
	ConfidenceMedium
	ConfidenceLow
)

var confidenceNames = [...]string{
	ConfidenceNotApplicable: "n/a",
	ConfidenceHigh:          "high",
	ConfidenceMedium:        "medium",
	ConfidenceLow:           "low",
}

func (c Confidence) String() string {
	if c < 0 || int(c) >= len(confidenceNames) {
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
	return confidenceNames[c]
}

func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(b []byte) error {
	for i, name := range confidenceNames {
		if name == string(b) {
			*c = Confidence(i)
			return nil
		}
	}
	return fmt.Errorf("unknown confidence %q", b)
}

// ConfidenceFor maps every tier to its confidence. Low is not produced by
// any current tier.
func ConfidenceFor(t MatchTier) Confidence {
	switch t {
	case TierExact, TierDerivative, TierSynonym, TierGrandfatheredExact, TierGrandfatheredSynonym:
		return ConfidenceHigh
	case TierFuzzy, TierPartial:
		return ConfidenceMedium
	default:
		return ConfidenceNotApplicable
	}
}
