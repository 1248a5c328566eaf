package match

import (
	"testing"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func TestAllergenMatch(t *testing.T) {
	m := builtinMatchers(t).Allergens

	tests := []struct {
		ingredient string
		allergen   string
		tier       MatchTier
		confidence Confidence
	}{
		{"Milk", "Milk", TierExact, ConfidenceHigh},
		{"Dairy", "Milk", TierExact, ConfidenceHigh},
		{"Eggs", "Eggs", TierExact, ConfidenceHigh},
		{"egg", "Eggs", TierExact, ConfidenceHigh},
		{"Peanuts", "Peanuts", TierExact, ConfidenceHigh},
		{"Whey", "Milk", TierDerivative, ConfidenceHigh},
		{"CASEIN", "Milk", TierDerivative, ConfidenceHigh},
		{"D-LACTOSE (FROM MILK) 5%", "Milk", TierDerivative, ConfidenceHigh},
		{"Soy Lecithin", "Soybeans", TierDerivative, ConfidenceHigh},
		{"Almonds", "Tree Nuts", TierDerivative, ConfidenceHigh},
		{"Triticum aestivum", "Wheat", TierDerivative, ConfidenceHigh},
		{"Shrimp Extract", "Crustacean Shellfish", TierFuzzy, ConfidenceMedium},
		{"Whey Protein", "Milk", TierFuzzy, ConfidenceMedium},
		{"Toasted Sesame Seeds", "Sesame", TierFuzzy, ConfidenceMedium},
	}
	for _, tt := range tests {
		got := m.Match(tt.ingredient)
		if len(got) != 1 {
			t.Errorf("Match(%q) returned %d matches, want 1: %+v", tt.ingredient, len(got), got)
			continue
		}
		g := got[0]
		if g.Allergen.Name != tt.allergen || g.Tier != tt.tier || g.Confidence != tt.confidence {
			t.Errorf("Match(%q) = %s/%s/%s, want %s/%s/%s", tt.ingredient,
				g.Allergen.Name, g.Tier, g.Confidence, tt.allergen, tt.tier, tt.confidence)
		}
		if g.Ingredient != tt.ingredient {
			t.Errorf("Match(%q).Ingredient = %q", tt.ingredient, g.Ingredient)
		}
	}
}

func TestAllergenNoMatch(t *testing.T) {
	m := builtinMatchers(t).Allergens
	for _, in := range []string{
		"Sugar", "Water", "Salt", "Royal Jelly", "Cream of Tartar", "Cocoa Butter",
		"Nutmeg", "Buckwheat", "Jelly", "", "   ", "(organic)",
		"Coconut Milk", "Oat Milk", "Rice Milk", "Cocoa Butter Powder", "Organic Coconut Milk Powder",
	} {
		if got := m.Match(in); len(got) != 0 {
			t.Errorf("Match(%q) = %+v, want no match", in, got)
		}
	}
}

func TestAllergenDenylistBeatsTaxonomy(t *testing.T) {
	defs := []refdata.AllergenDefinition{
		{Name: "Bee Products", Derivatives: []string{"jelly", "royal jelly", "propolis"}, Active: true},
	}
	m := NewAllergenMatcher(defs, DefaultOptions())
	if got := m.Match("Royal Jelly"); len(got) != 0 {
		t.Fatalf("denylisted term matched: %+v", got)
	}
	if got := m.Match("Propolis"); len(got) != 1 || got[0].Tier != TierDerivative {
		t.Fatalf("Match(Propolis) = %+v, want one derivative", got)
	}
}

func TestAllergenDenylistInsideLongerIngredient(t *testing.T) {
	m := builtinMatchers(t).Allergens
	tests := []struct {
		ingredient string
		want       string // allergen expected, "" for none
	}{
		{"Cocoa Butter Powder", ""},
		{"Oat Milk Blend", ""},
		{"Coconut Milk and Whey", "Milk"},
		{"Cocoa Butter and Butter", "Milk"},
		{"Milk Chocolate", "Milk"},
	}
	for _, tt := range tests {
		got := m.Match(tt.ingredient)
		if tt.want == "" {
			if len(got) != 0 {
				t.Errorf("Match(%q) = %+v, want no match", tt.ingredient, got)
			}
			continue
		}
		if len(got) != 1 || got[0].Allergen.Name != tt.want || got[0].Tier != TierFuzzy {
			t.Errorf("Match(%q) = %+v, want one fuzzy %s", tt.ingredient, got, tt.want)
		}
	}
}

func TestAllergenMultipleAllergens(t *testing.T) {
	m := builtinMatchers(t).Allergens
	got := m.Match("Peanut Butter")
	names := make(map[string]MatchTier)
	for _, g := range got {
		names[g.Allergen.Name] = g.Tier
	}
	if names["Peanuts"] != TierFuzzy {
		t.Errorf("Peanut Butter: Peanuts tier = %s, want fuzzy", names["Peanuts"])
	}
	if len(got) != len(names) {
		t.Errorf("Peanut Butter: duplicate allergen in %+v", got)
	}
}

func TestAllergenInactiveSkipped(t *testing.T) {
	defs := []refdata.AllergenDefinition{
		{Name: "Mustard", Derivatives: []string{"mustard seed"}, Active: false},
		{Name: "Celery", Active: true},
	}
	m := NewAllergenMatcher(defs, DefaultOptions())
	if got := m.Match("Mustard"); len(got) != 0 {
		t.Errorf("inactive allergen matched: %+v", got)
	}
	if got := m.Match("Celery"); len(got) != 1 {
		t.Errorf("Match(Celery) = %+v", got)
	}
}

func TestAllergenShortTermsNotFuzzy(t *testing.T) {
	defs := []refdata.AllergenDefinition{
		{Name: "Corn", Derivatives: []string{"zea"}, Active: true},
	}
	opts := DefaultOptions()
	opts.MinFuzzyTermLength = 4
	m := NewAllergenMatcher(defs, opts)
	if got := m.Match("Zea Mays Extract"); len(got) != 0 {
		t.Errorf("short term fired fuzzy: %+v", got)
	}
	if got := m.Match("Sweet Corn Kernels"); len(got) != 1 || got[0].Tier != TierFuzzy {
		t.Errorf("Match(Sweet Corn Kernels) = %+v, want fuzzy", got)
	}
}
