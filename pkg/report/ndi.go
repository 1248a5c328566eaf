package report

import (
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// NDIMatchType is "exact", "partial" or null in JSON.
type NDIMatchType string

const (
	NDIMatchNone    NDIMatchType = ""
	NDIMatchExact   NDIMatchType = "exact"
	NDIMatchPartial NDIMatchType = "partial"
)

func (t NDIMatchType) MarshalJSON() ([]byte, error) {
	if t == NDIMatchNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

func (t *NDIMatchType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = NDIMatchNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = NDIMatchType(s)
	return nil
}

// NDIResult is the NDI/ODI classification of one ingredient.
type NDIResult struct {
	Ingredient     string                              `json:"ingredient"`
	HasNDI         bool                                `json:"hasNDI"`
	MatchType      NDIMatchType                        `json:"matchType"`
	RequiresNDI    bool                                `json:"requiresNDI"`
	NDIMatch       *refdata.NDINotificationRecord      `json:"ndiMatch"`
	ODIMatch       *refdata.OldDietaryIngredientRecord `json:"odiMatch,omitempty"`
	Tier           match.MatchTier                     `json:"tier"`
	ComplianceNote string                              `json:"complianceNote"`
	Unverified     bool                                `json:"unverified,omitempty"`
}

// NDISummary counts the outcomes. WithoutNDI includes grandfathered ODIs.
type NDISummary struct {
	TotalChecked         int `json:"totalChecked"`
	WithNDI              int `json:"withNDI"`
	WithoutNDI           int `json:"withoutNDI"`
	RequiresNotification int `json:"requiresNotification"`
}

// NDIComplianceReport is informational: RequiresNotification flags
// ingredients absent from an incomplete reference list, not violations.
type NDIComplianceReport struct {
	Results []NDIResult `json:"results"`
	Summary NDISummary  `json:"summary"`
}

// NDIResultFor converts one matcher decision into a report row.
func NDIResultFor(m match.NDIMatch) NDIResult {
	r := NDIResult{
		Ingredient:     m.Ingredient,
		HasNDI:         m.HasNDI,
		RequiresNDI:    m.RequiresNDI,
		NDIMatch:       m.Notification,
		ODIMatch:       m.OldIngredient,
		Tier:           m.Tier,
		ComplianceNote: m.ComplianceNote,
		Unverified:     m.Unverified,
	}
	switch m.Tier {
	case match.TierExact:
		r.MatchType = NDIMatchExact
	case match.TierPartial:
		r.MatchType = NDIMatchPartial
	}
	return r
}

// AggregateNDI folds per-ingredient NDI decisions into a report. results[i]
// must be the decision for ingredients[i]; blank ingredients are skipped.
func AggregateNDI(ingredients []string, results []match.NDIMatch) (*NDIComplianceReport, error) {
	if len(results) != len(ingredients) {
		return nil, fmt.Errorf("ndi report: %w (%d results for %d ingredients)",
			ErrMisalignedResults, len(results), len(ingredients))
	}
	r := &NDIComplianceReport{Results: []NDIResult{}}
	for i, ing := range ingredients {
		if blank(ing) {
			continue
		}
		row := NDIResultFor(results[i])
		row.Ingredient = ing
		r.Results = append(r.Results, row)
		r.Summary.TotalChecked++
		if row.HasNDI {
			r.Summary.WithNDI++
		} else {
			r.Summary.WithoutNDI++
		}
		if row.RequiresNDI {
			r.Summary.RequiresNotification++
		}
	}
	return r, nil
}
