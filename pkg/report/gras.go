package report

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// GRASDetail is the GRAS decision for one ingredient.
type GRASDetail struct {
	Ingredient string                        `json:"ingredient"`
	IsGRAS     bool                          `json:"isGRAS"`
	MatchType  match.MatchTier               `json:"matchType"`
	Confidence match.Confidence              `json:"confidence"`
	GRASRecord *refdata.GRASIngredientRecord `json:"grasRecord"`
	Suggestion string                        `json:"suggestion,omitempty"`
	Unverified bool                          `json:"unverified,omitempty"`
}

// GRASComplianceReport is the GRAS report for an ingredient list.
type GRASComplianceReport struct {
	TotalIngredients   int          `json:"totalIngredients"`
	GRASCompliant      int          `json:"grasCompliant"`
	NonGRASIngredients []string     `json:"nonGRASIngredients"`
	GRASIngredients    []string     `json:"grasIngredients"`
	DetailedResults    []GRASDetail `json:"detailedResults"`
	OverallCompliant   bool         `json:"overallCompliant"`
	CriticalIssues     []string     `json:"criticalIssues"`
}

// Suggester proposes a GRAS name for an unmatched ingredient.
type Suggester func(ingredient string) (string, bool)

// AggregateGRAS folds per-ingredient GRAS decisions into a report. results[i]
// must be the decision for ingredients[i]; blank ingredients are skipped.
// suggest may be nil.
func AggregateGRAS(ingredients []string, results []match.GRASMatch, suggest Suggester) (*GRASComplianceReport, error) {
	if len(results) != len(ingredients) {
		return nil, fmt.Errorf("gras report: %w (%d results for %d ingredients)",
			ErrMisalignedResults, len(results), len(ingredients))
	}
	r := &GRASComplianceReport{
		NonGRASIngredients: []string{},
		GRASIngredients:    []string{},
		DetailedResults:    []GRASDetail{},
		CriticalIssues:     []string{},
	}
	for i, ing := range ingredients {
		if blank(ing) {
			continue
		}
		res := results[i]
		d := GRASDetail{
			Ingredient: ing,
			IsGRAS:     res.IsGRAS(),
			MatchType:  res.Tier,
			Confidence: res.Confidence,
			GRASRecord: res.Record,
			Unverified: res.Unverified,
		}
		r.TotalIngredients++
		if d.IsGRAS {
			r.GRASCompliant++
			r.GRASIngredients = append(r.GRASIngredients, ing)
		} else {
			r.NonGRASIngredients = append(r.NonGRASIngredients, ing)
			if d.Unverified {
				r.CriticalIssues = append(r.CriticalIssues, unverifiedIssue(ing))
			} else {
				if suggest != nil {
					d.Suggestion, _ = suggest(ing)
				}
				r.CriticalIssues = append(r.CriticalIssues, criticalIssue(ing, d.Suggestion))
			}
		}
		r.DetailedResults = append(r.DetailedResults, d)
	}
	r.OverallCompliant = len(r.NonGRASIngredients) == 0
	return r, nil
}

func criticalIssue(ingredient, suggestion string) string {
	msg := fmt.Sprintf("Non-GRAS ingredient detected: %s. This ingredient is NOT in the FDA GRAS database "+
		"(21 CFR 170.3, 170.30) and may require a food additive petition or a GRAS notice before use in "+
		"conventional food.", ingredient)
	if suggestion != "" {
		msg += fmt.Sprintf(" If this is a misreading of %q, re-check the label.", suggestion)
	}
	return msg
}

func unverifiedIssue(ingredient string) string {
	return fmt.Sprintf("GRAS status of %s could not be verified automatically. Treat it as non-GRAS until it is "+
		"checked manually against the FDA GRAS database (21 CFR 170.3, 170.30).", ingredient)
}

// GRASContext renders the report as the narrative block consumed by the
// label-analysis prompt.
func GRASContext(r *GRASComplianceReport) string {
	if r == nil || r.TotalIngredients == 0 {
		return "GRAS check: no ingredients provided."
	}
	if r.OverallCompliant {
		return fmt.Sprintf("✅ COMPLIANT — all %d ingredients found in GRAS database.", r.TotalIngredients)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 CRITICAL — GRAS Compliance Issue: %d of %d ingredients NOT found in the FDA GRAS database:\n",
		len(r.NonGRASIngredients), r.TotalIngredients)
	for _, ing := range r.NonGRASIngredients {
		fmt.Fprintf(&b, "  - %s\n", ing)
	}
	b.WriteString("Each listed ingredient needs a GRAS determination, a GRAS notice or a food additive approval " +
		"(21 CFR 170.3, 170.30) before the product can be marketed as a conventional food.")
	return b.String()
}
