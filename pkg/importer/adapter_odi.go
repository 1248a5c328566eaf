package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func init() {
	Register(&odiListAdapter{charset: "windows-1252"})
}

// odiListAdapter loads an old dietary ingredient list kept as CSV with the
// columns "ingredient name", "synonyms" (";" or "|" separated), "source" and
// an optional "active". Industry lists are not published in a stable
// machine-readable form, so there is no default URL.
type odiListAdapter struct {
	charset string
}

func (a *odiListAdapter) ID() string             { return "odi-list" }
func (a *odiListAdapter) Corpus() refdata.Corpus { return refdata.CorpusODI }
func (a *odiListAdapter) Description() string {
	return "Old dietary ingredients marketed before 1994-10-15 (CSV)"
}
func (a *odiListAdapter) DefaultURL() string { return "" }
func (a *odiListAdapter) License() string    { return "per source organization" }

func (a *odiListAdapter) Import(ctx context.Context, sourceURL string, store *refdata.Store) (int, error) {
	raw, err := fetchSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	data, err := decodeText(raw, a.charset)
	if err != nil {
		return 0, err
	}
	recs, err := parseODIList(data)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if len(recs) == 0 {
		return 0, ErrNoRecords
	}
	if err := store.ReplaceODI(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func parseODIList(data []byte) ([]refdata.OldDietaryIngredientRecord, error) {
	t, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	name := t.column("ingredient name", "ingredient", "name")
	syns := t.column("synonyms", "other names", "also known as")
	source := t.column("source", "source organization", "organization")
	active := t.column("active")
	if name < 0 {
		return nil, fmt.Errorf("missing ingredient name column")
	}

	var out []refdata.OldDietaryIngredientRecord
	seen := make(map[string]bool)
	for _, row := range t.rows {
		n := collapseSpace(field(row, name))
		key := match.Normalize(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		rec := refdata.OldDietaryIngredientRecord{
			IngredientName:     n,
			Synonyms:           splitList(field(row, syns)),
			SourceOrganization: field(row, source),
			Active:             true,
		}
		if v := field(row, active); v != "" {
			b, ok := parseFlag(v)
			if !ok {
				return nil, fmt.Errorf("ingredient %q: invalid active value %q", n, v)
			}
			rec.Active = b
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseFlag(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "y", "yes", "true", "active":
		return true, true
	case "0", "n", "no", "false", "inactive":
		return false, true
	}
	return false, false
}
