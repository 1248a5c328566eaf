package match

import "testing"

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		tier MatchTier
		want Confidence
	}{
		{TierExact, ConfidenceHigh},
		{TierDerivative, ConfidenceHigh},
		{TierSynonym, ConfidenceHigh},
		{TierGrandfatheredExact, ConfidenceHigh},
		{TierGrandfatheredSynonym, ConfidenceHigh},
		{TierFuzzy, ConfidenceMedium},
		{TierPartial, ConfidenceMedium},
		{TierNone, ConfidenceNotApplicable},
		{TierRequiresVerification, ConfidenceNotApplicable},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.tier); got != tt.want {
			t.Errorf("ConfidenceFor(%s) = %s, want %s", tt.tier, got, tt.want)
		}
	}
}

func TestMatchTierText(t *testing.T) {
	for i := range tierNames {
		tier := MatchTier(i)
		b, err := tier.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", i, err)
		}
		var back MatchTier
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != tier {
			t.Errorf("text form %q decodes to %s, want %s", b, back, tier)
		}
	}
	var bad MatchTier
	if err := bad.UnmarshalText([]byte("approximate")); err == nil {
		t.Error("expected error for unknown tier")
	}
	if got := MatchTier(99).String(); got != "MatchTier(99)" {
		t.Errorf("String() = %q", got)
	}
}
