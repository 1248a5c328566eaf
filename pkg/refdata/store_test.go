package refdata

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenStore(filepath.Join(t.TempDir(), "refdata.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreRoundTrip(t *testing.T) {
	st := tempStore(t)
	ctx := context.Background()

	ds := &Dataset{
		Allergens: []AllergenDefinition{
			{Name: "Milk", Category: "dairy", CommonName: "Dairy", Derivatives: []string{"whey", "casein"},
				ScientificNames: []string{"bos taurus"}, Active: true},
			{Name: "Eggs", Derivatives: []string{"albumin"}, Active: false},
		},
		GRAS: []GRASIngredientRecord{
			{Name: "Water", GRASStatus: "affirmed", Active: true},
			{Name: "Lecithin", Synonyms: []string{"soy lecithin"}, NoticeNumber: "21 CFR 184.1400", Active: true},
		},
		NDI: []NDINotificationRecord{
			{NotificationNumber: "24", IngredientName: "Beta-glucan"},
			{NotificationNumber: "1", IngredientName: "Astaxanthin", Firm: "Algae Inc.", SubmissionDate: "1995-07-14"},
			{NotificationNumber: "112", IngredientName: "Hydroxytyrosol"},
		},
		ODI: []OldDietaryIngredientRecord{{IngredientName: "Ginseng", Synonyms: []string{"panax ginseng"}, SourceOrganization: "AHPA", Active: true}},
	}
	if err := st.ReplaceDataset(ctx, ds); err != nil {
		t.Fatalf("ReplaceDataset: %v", err)
	}

	allergens, err := st.FetchAllergens(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(allergens, ds.Allergens) {
		t.Errorf("allergens = %+v\nwant %+v", allergens, ds.Allergens)
	}
	gras, err := st.FetchGRAS(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gras, ds.GRAS) {
		t.Errorf("gras = %+v\nwant %+v", gras, ds.GRAS)
	}
	ndi, err := st.FetchNDI(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, n := range ndi {
		order = append(order, n.NotificationNumber)
	}
	if !reflect.DeepEqual(order, []string{"1", "24", "112"}) {
		t.Errorf("ndi order = %v, want numeric", order)
	}
	odi, err := st.FetchODI(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(odi, ds.ODI) {
		t.Errorf("odi = %+v\nwant %+v", odi, ds.ODI)
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[Corpus]int{CorpusAllergens: 2, CorpusGRAS: 2, CorpusNDI: 3, CorpusODI: 1}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("Counts = %v, want %v", counts, want)
	}
}

func TestStoreReplaceDropsOldRows(t *testing.T) {
	st := tempStore(t)
	ctx := context.Background()

	if err := st.ReplaceGRAS(ctx, []GRASIngredientRecord{{Name: "Water", Active: true}, {Name: "Salt", Active: true}}); err != nil {
		t.Fatal(err)
	}
	if err := st.ReplaceGRAS(ctx, []GRASIngredientRecord{{Name: "Sugar", Active: true}}); err != nil {
		t.Fatal(err)
	}
	got, err := st.FetchGRAS(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Sugar" {
		t.Errorf("FetchGRAS = %+v, want only Sugar", got)
	}
}

func TestStoreAsCacheSource(t *testing.T) {
	st := tempStore(t)
	ctx := context.Background()
	builtin, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}
	if err := st.ReplaceDataset(ctx, &builtin.Data); err != nil {
		t.Fatal(err)
	}
	c := newTestCache(t, st)
	snap := c.Snapshot(ctx)
	if len(snap.Allergens) != len(builtin.Data.Allergens) || snap.Allergens[0].Name != "Milk" {
		t.Errorf("snapshot allergens = %d, first %q", len(snap.Allergens), snap.Allergens[0].Name)
	}
	if len(snap.ODI) != len(builtin.Data.ODI) {
		t.Errorf("snapshot odi = %d, want %d", len(snap.ODI), len(builtin.Data.ODI))
	}
}
