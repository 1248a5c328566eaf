package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/labelcheck/pkg/match"
)

func allergenMatches(t *testing.T, ings []string) [][]match.AllergenMatch {
	t.Helper()
	m := newTestEngine(t, match.DefaultOptions()).Matchers(context.Background())
	out := make([][]match.AllergenMatch, len(ings))
	for i, ing := range ings {
		out[i] = m.Allergens.Match(ing)
	}
	return out
}

func TestAggregateAllergensEmpty(t *testing.T) {
	s, err := AggregateAllergens(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Summary.TotalIngredients != 0 || s.Summary.UniqueAllergensDetected != 0 {
		t.Errorf("summary = %+v", s.Summary)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"allergensDetected":[]`, `"ingredientsWithAllergens":[]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s missing %s", data, want)
		}
	}
}

func TestAggregateAllergens(t *testing.T) {
	ings := []string{"Water", "Whey Protein", "Sugar", "Soy Lecithin", "Salt"}
	s, err := AggregateAllergens(ings, allergenMatches(t, ings))
	if err != nil {
		t.Fatal(err)
	}
	want := AllergenTotals{
		TotalIngredients:         5,
		IngredientsWithAllergens: 2,
		UniqueAllergensDetected:  2,
		HighConfidenceMatches:    1,
		MediumConfidenceMatches:  1,
	}
	if s.Summary != want {
		t.Errorf("summary = %+v, want %+v", s.Summary, want)
	}
	var names []string
	for _, a := range s.AllergensDetected {
		names = append(names, a.Name)
	}
	if strings.Join(names, ",") != "Milk,Soybeans" {
		t.Errorf("allergensDetected = %v", names)
	}
	if s.IngredientsWithAllergens[0].Ingredient != "Whey Protein" ||
		s.IngredientsWithAllergens[1].Ingredient != "Soy Lecithin" {
		t.Errorf("ingredientsWithAllergens order = %+v", s.IngredientsWithAllergens)
	}
}

func TestAggregateAllergensCountsEntitiesOnce(t *testing.T) {
	ings := []string{"Whey", "Casein", "Milk", "Butter"}
	s, err := AggregateAllergens(ings, allergenMatches(t, ings))
	if err != nil {
		t.Fatal(err)
	}
	if s.Summary.IngredientsWithAllergens != 4 || s.Summary.UniqueAllergensDetected != 1 {
		t.Errorf("summary = %+v, want 4 ingredients and 1 allergen", s.Summary)
	}
	if s.Summary.HighConfidenceMatches != 4 {
		t.Errorf("high = %d, want 4", s.Summary.HighConfidenceMatches)
	}
}

func TestAggregateAllergensSkipsBlank(t *testing.T) {
	ings := []string{"", "Milk", "  "}
	s, err := AggregateAllergens(ings, make([][]match.AllergenMatch, 3))
	if err != nil {
		t.Fatal(err)
	}
	if s.Summary.TotalIngredients != 1 {
		t.Errorf("total = %d, want 1", s.Summary.TotalIngredients)
	}
}

func TestAggregateMisaligned(t *testing.T) {
	ings := []string{"Milk", "Water"}
	if _, err := AggregateAllergens(ings, make([][]match.AllergenMatch, 1)); !errors.Is(err, ErrMisalignedResults) {
		t.Errorf("allergens err = %v", err)
	}
	if _, err := AggregateGRAS(ings, nil, nil); !errors.Is(err, ErrMisalignedResults) {
		t.Errorf("gras err = %v", err)
	}
	if _, err := AggregateNDI(ings, make([]match.NDIMatch, 3)); !errors.Is(err, ErrMisalignedResults) {
		t.Errorf("ndi err = %v", err)
	}
}

func TestAllergenResultJSON(t *testing.T) {
	rows := AllergenResults(allergenMatches(t, []string{"Shrimp Extract"})[0])
	data, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["matchType"] != "fuzzy" || got["confidence"] != "medium" || got["containsAllergen"] != true {
		t.Errorf("JSON = %s", data)
	}
	allergen, _ := got["allergen"].(map[string]any)
	if allergen["name"] != "Crustacean Shellfish" {
		t.Errorf("allergen = %v", got["allergen"])
	}
}
