package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

const grasCSV = `GRN No.,Substance,Intended Use,Notifier,Date of closure,FDA's Letter
1099,Rebaudioside M,Sweetener,PureCircle,2023-05-01,FDA has no questions
1100,Mystery Extract,Flavor,Acme,2023-06-01,At notifier's request FDA ceased to evaluate
1101,Mystery Extract,Flavor,Acme,2023-09-01,FDA has no questions
1102,Sugar,Sweetener,Acme,2023-09-02,FDA has no questions
1103,Hopeful Fiber,Fiber,Acme,,
`

const ndiHTML = `<html><body>
<table><tr><td>navigation</td></tr></table>
<table>
 <thead><tr><th>Report Number</th><th>NDI Number</th><th>Ingredient Name</th><th>Firm</th><th>Submission Date</th><th>Date of FDA Response</th></tr></thead>
 <tbody>
  <tr><td>RPT-0001</td><td>NDI #1</td><td><a href="#">Astaxanthin</a></td><td>Cyanotech</td><td>1995-06-01</td><td>1995-08-15</td></tr>
  <tr><td>RPT-0024</td><td>24</td><td>Beta-glucan   from
   oat</td><td>Example Co</td><td></td><td></td></tr>
  <tr><td></td><td>24</td><td>Duplicate</td><td></td><td></td><td></td></tr>
  <tr><td></td><td></td><td>No number</td><td></td><td></td><td></td></tr>
 </tbody>
</table>
</body></html>`

const odiCSV = `Ingredient Name,Synonyms,Source,Active
Vitamin C,ascorbic acid; sodium ascorbate,CRN,yes
Biotin,,CRN,
vitamin  c,duplicate,UNPA,yes
Ephedra,ma huang,AHPA,no
`

const allergenYAML = `allergens:
  - name: Milk
    category: dairy
    common_name: Dairy
    derivatives: [whey, casein]
  - name: Sesame
    category: seed
    common_name: Sesame
    derivatives: [tahini]
    active: false
`

func tempStore(t *testing.T) *refdata.Store {
	t.Helper()
	st, err := refdata.OpenStore(filepath.Join(t.TempDir(), "labelcheck.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestParseGRASNotices(t *testing.T) {
	recs, err := parseGRASNotices([]byte(grasCSV))
	if err != nil {
		t.Fatalf("parseGRASNotices: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(recs), recs)
	}

	want := []refdata.GRASIngredientRecord{
		{Name: "Rebaudioside M", GRASStatus: "notified", NoticeNumber: "GRN 1099", Active: true},
		{Name: "Mystery Extract", GRASStatus: "notified", NoticeNumber: "GRN 1101", Active: true},
		{Name: "Sugar", GRASStatus: "notified", NoticeNumber: "GRN 1102", Active: true},
		{Name: "Hopeful Fiber", GRASStatus: "pending", NoticeNumber: "GRN 1103", Active: false},
	}
	for i, w := range want {
		got := recs[i]
		if got.Name != w.Name || got.GRASStatus != w.GRASStatus || got.NoticeNumber != w.NoticeNumber || got.Active != w.Active {
			t.Errorf("[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestParseGRASNotices_MissingColumns(t *testing.T) {
	if _, err := parseGRASNotices([]byte("Name,Use\nSugar,Sweetener\n")); err == nil {
		t.Fatal("expected error for missing GRN column")
	}
}

func TestLetterStatus(t *testing.T) {
	tests := map[string]string{
		"FDA has no questions":                    "notified",
		"FDA ceased to evaluate at the request":   "ceased",
		"Notice does not provide a basis for ...": "insufficient_basis",
		"": "pending",
	}
	for in, want := range tests {
		if got := letterStatus(in); got != want {
			t.Errorf("letterStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeGRASKeepsBuiltinFirst(t *testing.T) {
	base := []refdata.GRASIngredientRecord{{Name: "Sugar", GRASStatus: "affirmed", Active: true}}
	notices := []refdata.GRASIngredientRecord{
		{Name: "SUGAR", GRASStatus: "notified", Active: true},
		{Name: "Rebaudioside M", GRASStatus: "notified", Active: true},
	}
	got := mergeGRAS(base, notices)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %+v", got)
	}
	if got[0].GRASStatus != "affirmed" || got[1].Name != "Rebaudioside M" {
		t.Errorf("unexpected merge result: %+v", got)
	}
}

func TestParseNDITable(t *testing.T) {
	recs, err := parseNDITable([]byte(ndiHTML))
	if err != nil {
		t.Fatalf("parseNDITable: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(recs), recs)
	}
	first := recs[0]
	if first.NotificationNumber != "1" || first.IngredientName != "Astaxanthin" || first.Firm != "Cyanotech" ||
		first.ReportNumber != "RPT-0001" || first.SubmissionDate != "1995-06-01" || first.FDAResponseDate != "1995-08-15" {
		t.Errorf("first = %+v", first)
	}
	if recs[1].IngredientName != "Beta-glucan from oat" {
		t.Errorf("whitespace not collapsed: %q", recs[1].IngredientName)
	}
}

func TestParseNDITable_NoTable(t *testing.T) {
	if _, err := parseNDITable([]byte("<html><body><p>moved</p></body></html>")); err == nil {
		t.Fatal("expected error when no NDI table is present")
	}
}

func TestNotificationNumber(t *testing.T) {
	tests := map[string]string{"NDI #24": "24", "1": "1", "#1099": "1099", "n/a": ""}
	for in, want := range tests {
		if got := notificationNumber(in); got != want {
			t.Errorf("notificationNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseODIList(t *testing.T) {
	recs, err := parseODIList([]byte(odiCSV))
	if err != nil {
		t.Fatalf("parseODIList: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(recs), recs)
	}
	if recs[0].IngredientName != "Vitamin C" || len(recs[0].Synonyms) != 2 || recs[0].SourceOrganization != "CRN" {
		t.Errorf("vitamin c = %+v", recs[0])
	}
	if !recs[1].Active {
		t.Error("blank active column should default to active")
	}
	if recs[2].IngredientName != "Ephedra" || recs[2].Active {
		t.Errorf("ephedra = %+v", recs[2])
	}
}

func TestParseODIList_BadFlag(t *testing.T) {
	_, err := parseODIList([]byte("name,active\nBiotin,maybe\n"))
	if err == nil {
		t.Fatal("expected error for invalid active value")
	}
}

func TestParseAllergenTaxonomy(t *testing.T) {
	defs, err := parseAllergenTaxonomy([]byte(allergenYAML))
	if err != nil {
		t.Fatalf("parseAllergenTaxonomy: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if !defs[0].Active || defs[1].Active {
		t.Errorf("active flags = %v, %v", defs[0].Active, defs[1].Active)
	}

	if _, err := parseAllergenTaxonomy([]byte("allergens: []\n")); !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
	if _, err := parseAllergenTaxonomy([]byte("allergens:\n  - {name: Milk}\n  - {name: Milk}\n")); err == nil {
		t.Error("expected error for duplicate allergen")
	}
}

func TestAdaptersImportIntoStore(t *testing.T) {
	bodies := map[string]string{
		"/gras.csv":       grasCSV,
		"/ndi.html":       ndiHTML,
		"/odi.csv":        odiCSV,
		"/allergens.yaml": allergenYAML,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	st := tempStore(t)
	ctx := context.Background()
	tests := []struct {
		adapter string
		path    string
		corpus  refdata.Corpus
	}{
		{"fda-gras-notices", "/gras.csv", refdata.CorpusGRAS},
		{"fda-ndi-notifications", "/ndi.html", refdata.CorpusNDI},
		{"odi-list", "/odi.csv", refdata.CorpusODI},
		{"allergen-taxonomy", "/allergens.yaml", refdata.CorpusAllergens},
	}
	for _, tt := range tests {
		t.Run(tt.adapter, func(t *testing.T) {
			a, err := Get(tt.adapter)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if a.Corpus() != tt.corpus {
				t.Fatalf("corpus = %s, want %s", a.Corpus(), tt.corpus)
			}
			n, err := a.Import(ctx, srv.URL+tt.path, st)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			counts, err := st.Counts(ctx)
			if err != nil {
				t.Fatalf("Counts: %v", err)
			}
			if n == 0 || counts[tt.corpus] != n {
				t.Errorf("imported %d, store has %d", n, counts[tt.corpus])
			}
		})
	}

	// Builtin affirmed substances survive a notice import.
	gras, err := st.FetchGRAS(ctx)
	if err != nil {
		t.Fatalf("FetchGRAS: %v", err)
	}
	var sugar, reb bool
	for _, r := range gras {
		switch r.Name {
		case "Sugar":
			sugar = r.GRASStatus == "affirmed"
		case "Rebaudioside M":
			reb = r.Active
		}
	}
	if !sugar || !reb {
		t.Errorf("expected builtin Sugar (affirmed) and notified Rebaudioside M, got sugar=%v reb=%v", sugar, reb)
	}
}

func TestImportEmptySourceKeepsCorpus(t *testing.T) {
	st := tempStore(t)
	ctx := context.Background()
	seed := []refdata.OldDietaryIngredientRecord{{IngredientName: "Biotin", Active: true}}
	if err := st.ReplaceODI(ctx, seed); err != nil {
		t.Fatalf("ReplaceODI: %v", err)
	}

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("Ingredient Name,Source\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := Get("odi-list")
	if _, err := a.Import(ctx, path, st); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
	odi, _ := st.FetchODI(ctx)
	if len(odi) != 1 {
		t.Errorf("corpus should be untouched, got %d records", len(odi))
	}
}

func TestRun(t *testing.T) {
	sdb := tempSourceDB(t)
	st := tempStore(t)
	if err := sdb.Seed(All()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	a, err := Get("odi-list")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, err := Run(context.Background(), a, sdb, st, ""); !errors.Is(err, ErrNoSourceURL) {
		t.Fatalf("expected ErrNoSourceURL without a URL, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "odi.csv")
	if err := os.WriteFile(path, []byte(odiCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := Run(context.Background(), a, sdb, st, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d, want 3", n)
	}

	var src *Source
	sources, _ := sdb.ListSources()
	for i := range sources {
		if sources[i].AdapterID == "odi-list" {
			src = &sources[i]
		}
	}
	if src == nil || src.ImportCount == nil || *src.ImportCount != 3 || src.ImportError != nil {
		t.Fatalf("import not recorded: %+v", src)
	}
}

func TestGetUnknownAdapter(t *testing.T) {
	if _, err := Get("nope"); !errors.Is(err, ErrUnknownAdapter) {
		t.Fatalf("expected ErrUnknownAdapter, got %v", err)
	}
	if len(All()) != 4 {
		t.Errorf("expected 4 registered adapters, got %d", len(All()))
	}
}
