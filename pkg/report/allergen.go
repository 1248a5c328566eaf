package report

import (
	"fmt"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

// AllergenCheckResult is one allergen hit for one ingredient.
type AllergenCheckResult struct {
	Ingredient       string                      `json:"ingredient"`
	ContainsAllergen bool                        `json:"containsAllergen"`
	Allergen         *refdata.AllergenDefinition `json:"allergen"`
	MatchType        match.MatchTier             `json:"matchType"`
	Confidence       match.Confidence            `json:"confidence"`
	MatchedTerm      string                      `json:"matchedTerm,omitempty"`
}

// IngredientAllergens groups the hits of one ingredient.
type IngredientAllergens struct {
	Ingredient string                `json:"ingredient"`
	Allergens  []AllergenCheckResult `json:"allergens"`
}

// AllergenTotals are the counters of an AllergenSummary.
type AllergenTotals struct {
	TotalIngredients         int `json:"totalIngredients"`
	IngredientsWithAllergens int `json:"ingredientsWithAllergens"`
	UniqueAllergensDetected  int `json:"uniqueAllergensDetected"`
	HighConfidenceMatches    int `json:"highConfidenceMatches"`
	MediumConfidenceMatches  int `json:"mediumConfidenceMatches"`
}

// AllergenSummary is the allergen report for an ingredient list.
type AllergenSummary struct {
	AllergensDetected        []*refdata.AllergenDefinition `json:"allergensDetected"`
	IngredientsWithAllergens []IngredientAllergens         `json:"ingredientsWithAllergens"`
	Summary                  AllergenTotals                `json:"summary"`
	// Unverified lists ingredients whose allergen check could not run.
	Unverified []string `json:"unverified,omitempty"`
}

// AllergenResults converts matcher output into report rows.
func AllergenResults(matches []match.AllergenMatch) []AllergenCheckResult {
	out := make([]AllergenCheckResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, AllergenCheckResult{
			Ingredient:       m.Ingredient,
			ContainsAllergen: true,
			Allergen:         m.Allergen,
			MatchType:        m.Tier,
			Confidence:       m.Confidence,
			MatchedTerm:      m.MatchedTerm,
		})
	}
	return out
}

// AggregateAllergens folds per-ingredient allergen matches into a summary.
// results[i] must hold the matches for ingredients[i]. Blank ingredients are
// skipped. Allergens are listed in first-detected order and counted once
// each, however many ingredients carry them.
func AggregateAllergens(ingredients []string, results [][]match.AllergenMatch) (*AllergenSummary, error) {
	if len(results) != len(ingredients) {
		return nil, fmt.Errorf("allergen report: %w (%d results for %d ingredients)",
			ErrMisalignedResults, len(results), len(ingredients))
	}
	s := &AllergenSummary{
		AllergensDetected:        []*refdata.AllergenDefinition{},
		IngredientsWithAllergens: []IngredientAllergens{},
	}
	seen := make(map[string]bool)
	for i, ing := range ingredients {
		if blank(ing) {
			continue
		}
		s.Summary.TotalIngredients++
		if len(results[i]) == 0 {
			continue
		}
		rows := AllergenResults(results[i])
		s.IngredientsWithAllergens = append(s.IngredientsWithAllergens, IngredientAllergens{Ingredient: ing, Allergens: rows})
		s.Summary.IngredientsWithAllergens++
		for _, r := range rows {
			switch r.Confidence {
			case match.ConfidenceHigh:
				s.Summary.HighConfidenceMatches++
			case match.ConfidenceMedium:
				s.Summary.MediumConfidenceMatches++
			}
			if r.Allergen != nil && !seen[r.Allergen.Name] {
				seen[r.Allergen.Name] = true
				s.AllergensDetected = append(s.AllergensDetected, r.Allergen)
			}
		}
	}
	s.Summary.UniqueAllergensDetected = len(s.AllergensDetected)
	return s, nil
}
