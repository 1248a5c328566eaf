package refdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	src, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	ds := src.Data
	if len(ds.Allergens) != 9 {
		t.Errorf("builtin allergens = %d, want 9", len(ds.Allergens))
	}
	if len(ds.GRAS) == 0 || len(ds.NDI) == 0 || len(ds.ODI) == 0 {
		t.Fatalf("builtin corpora missing: gras=%d ndi=%d odi=%d", len(ds.GRAS), len(ds.NDI), len(ds.ODI))
	}
	for _, a := range ds.Allergens {
		if !a.Active {
			t.Errorf("allergen %s not active by default", a.Name)
		}
	}
	for _, n := range ds.NDI {
		if n.NotificationNumber == "" || n.IngredientName == "" {
			t.Errorf("incomplete NDI record %+v", n)
		}
	}
}

func TestParseCorpus(t *testing.T) {
	for _, c := range AllCorpora {
		got, err := ParseCorpus(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCorpus(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCorpus("recipes"); !errors.Is(err, ErrUnknownCorpus) {
		t.Errorf("ParseCorpus(recipes) err = %v, want ErrUnknownCorpus", err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("gras.yaml", `gras:
  - name: Water
  - name: Retired Additive
    active: false
`)
	src := &DirSource{Dir: dir}
	ctx := context.Background()

	recs, err := src.FetchGRAS(ctx)
	if err != nil {
		t.Fatalf("FetchGRAS: %v", err)
	}
	if len(recs) != 2 || !recs[0].Active || recs[1].Active {
		t.Fatalf("FetchGRAS = %+v", recs)
	}

	if _, err := src.FetchNDI(ctx); err == nil {
		t.Error("FetchNDI with missing file: expected error")
	}

	write("gras.yaml", "gras:\n  - name: Salt\n")
	recs, err = src.FetchGRAS(ctx)
	if err != nil || len(recs) != 1 || recs[0].Name != "Salt" {
		t.Fatalf("FetchGRAS after edit = %+v, %v", recs, err)
	}

	write("odi.yaml", "odi: [unterminated")
	if _, err := src.FetchODI(ctx); err == nil {
		t.Error("FetchODI with bad yaml: expected error")
	}
}
