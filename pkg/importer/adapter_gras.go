package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func init() {
	Register(&grasNoticesAdapter{charset: "windows-1252"})
}

// grasNoticesAdapter loads the FDA GRAS Notice Inventory CSV export. Notices
// are layered over the builtin affirmed substances (21 CFR 182/184), which
// the inventory does not list.
type grasNoticesAdapter struct {
	charset string
}

func (a *grasNoticesAdapter) ID() string             { return "fda-gras-notices" }
func (a *grasNoticesAdapter) Corpus() refdata.Corpus { return refdata.CorpusGRAS }
func (a *grasNoticesAdapter) Description() string {
	return "FDA GRAS Notice Inventory (CSV export)"
}
func (a *grasNoticesAdapter) DefaultURL() string {
	return "https://www.cfsanappsexternal.fda.gov/scripts/fdcc/?set=GRASNotices"
}
func (a *grasNoticesAdapter) License() string { return "US Government public domain" }

func (a *grasNoticesAdapter) Import(ctx context.Context, sourceURL string, store *refdata.Store) (int, error) {
	raw, err := fetchSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	data, err := decodeText(raw, a.charset)
	if err != nil {
		return 0, err
	}
	notices, err := parseGRASNotices(data)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if len(notices) == 0 {
		return 0, ErrNoRecords
	}

	base, err := refdata.Builtin()
	if err != nil {
		return 0, err
	}
	recs := mergeGRAS(base.Data.GRAS, notices)
	if err := store.ReplaceGRAS(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// parseGRASNotices reads the inventory columns "GRN No.", "Substance" and
// "FDA's Letter". Only notices closed with a "no questions" letter are
// active; the others are kept inactive for reference.
func parseGRASNotices(data []byte) ([]refdata.GRASIngredientRecord, error) {
	t, err := readCSV(data)
	if err != nil {
		return nil, err
	}
	grn := t.column("grn no", "grn number", "grn")
	substance := t.column("substance", "notified substance", "name")
	letter := t.column("fda s letter", "fda letter", "fda response", "response letter")
	if grn < 0 || substance < 0 {
		return nil, fmt.Errorf("missing GRN or substance column")
	}

	var out []refdata.GRASIngredientRecord
	seen := make(map[string]int)
	for _, row := range t.rows {
		name := collapseSpace(field(row, substance))
		key := match.Normalize(name)
		if key == "" {
			continue
		}
		status := letterStatus(field(row, letter))
		rec := refdata.GRASIngredientRecord{
			Name:         name,
			GRASStatus:   status,
			NoticeNumber: noticeNumber(field(row, grn)),
			Active:       status == "notified",
		}
		// A substance notified several times keeps its first accepted notice.
		if i, ok := seen[key]; ok {
			if !out[i].Active && rec.Active {
				out[i] = rec
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out, nil
}

func letterStatus(letter string) string {
	l := strings.ToLower(letter)
	switch {
	case strings.Contains(l, "no questions"):
		return "notified"
	case strings.Contains(l, "cease"):
		return "ceased"
	case strings.Contains(l, "basis"):
		return "insufficient_basis"
	default:
		return "pending"
	}
}

func noticeNumber(grn string) string {
	grn = strings.TrimSpace(grn)
	if grn == "" || strings.HasPrefix(strings.ToUpper(grn), "GRN") {
		return grn
	}
	return "GRN " + grn
}

// mergeGRAS appends notices whose normalized name is not already in base.
func mergeGRAS(base, notices []refdata.GRASIngredientRecord) []refdata.GRASIngredientRecord {
	out := make([]refdata.GRASIngredientRecord, 0, len(base)+len(notices))
	seen := make(map[string]bool)
	for _, list := range [][]refdata.GRASIngredientRecord{base, notices} {
		for _, rec := range list {
			key := match.Normalize(rec.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, rec)
		}
	}
	return out
}
