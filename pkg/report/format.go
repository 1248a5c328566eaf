package report

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/labelcheck/pkg/match"
)

const (
	NoAllergensText = "No allergens detected"
	NoGRASText      = "No GRAS results"
	NoNDIText       = "No NDI results"
)

func marker(c match.Confidence) string {
	if c == match.ConfidenceHigh {
		return "✓"
	}
	return "?"
}

// FormatAllergens renders allergen hits as "✓ Milk (derivative match)" for
// high confidence and "? Crustacean Shellfish (fuzzy match)" otherwise,
// comma-joined.
func FormatAllergens(results []AllergenCheckResult) string {
	if len(results) == 0 {
		return NoAllergensText
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		name := r.Ingredient
		if r.Allergen != nil {
			name = r.Allergen.Name
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s match)", marker(r.Confidence), name, r.MatchType))
	}
	return strings.Join(parts, ", ")
}

// FormatAllergenSummary renders every hit of the summary, in ingredient order.
func FormatAllergenSummary(s *AllergenSummary) string {
	if s == nil {
		return NoAllergensText
	}
	var all []AllergenCheckResult
	for _, ia := range s.IngredientsWithAllergens {
		all = append(all, ia.Allergens...)
	}
	return FormatAllergens(all)
}

// FormatGRAS renders per-ingredient GRAS decisions, "✗" marking non-GRAS.
func FormatGRAS(r *GRASComplianceReport) string {
	if r == nil || len(r.DetailedResults) == 0 {
		return NoGRASText
	}
	parts := make([]string, 0, len(r.DetailedResults))
	for _, d := range r.DetailedResults {
		if !d.IsGRAS {
			parts = append(parts, fmt.Sprintf("✗ %s (not GRAS)", d.Ingredient))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s match)", marker(d.Confidence), d.Ingredient, d.MatchType))
	}
	return strings.Join(parts, ", ")
}

// FormatNDI renders per-ingredient NDI classifications.
func FormatNDI(r *NDIComplianceReport) string {
	if r == nil || len(r.Results) == 0 {
		return NoNDIText
	}
	parts := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		var s string
		switch {
		case res.HasNDI:
			s = fmt.Sprintf("%s %s (NDI #%s, %s match)", marker(match.ConfidenceFor(res.Tier)),
				res.Ingredient, res.NDIMatch.NotificationNumber, res.MatchType)
		case res.RequiresNDI:
			s = fmt.Sprintf("! %s (requires NDI verification)", res.Ingredient)
		default:
			s = fmt.Sprintf("✓ %s (old dietary ingredient)", res.Ingredient)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
