package importer

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func init() {
	Register(&allergenTaxonomyAdapter{})
}

// allergenTaxonomyAdapter loads an allergen taxonomy in the same YAML layout
// as the builtin allergens.yaml (a top-level "allergens" list).
type allergenTaxonomyAdapter struct{}

func (a *allergenTaxonomyAdapter) ID() string             { return "allergen-taxonomy" }
func (a *allergenTaxonomyAdapter) Corpus() refdata.Corpus { return refdata.CorpusAllergens }
func (a *allergenTaxonomyAdapter) Description() string {
	return "Major food allergen taxonomy (YAML)"
}
func (a *allergenTaxonomyAdapter) DefaultURL() string { return "" }
func (a *allergenTaxonomyAdapter) License() string    { return "per source" }

func (a *allergenTaxonomyAdapter) Import(ctx context.Context, sourceURL string, store *refdata.Store) (int, error) {
	data, err := fetchSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	defs, err := parseAllergenTaxonomy(data)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if err := store.ReplaceAllergens(ctx, defs); err != nil {
		return 0, err
	}
	return len(defs), nil
}

func parseAllergenTaxonomy(data []byte) ([]refdata.AllergenDefinition, error) {
	var ds refdata.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, err
	}
	if len(ds.Allergens) == 0 {
		return nil, ErrNoRecords
	}
	seen := make(map[string]bool)
	for i, def := range ds.Allergens {
		if def.Name == "" {
			return nil, fmt.Errorf("allergen %d: missing name", i)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("allergen %q: duplicate", def.Name)
		}
		seen[def.Name] = true
	}
	return ds.Allergens, nil
}
