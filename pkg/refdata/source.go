package refdata

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Source supplies the four reference corpora. Implementations may block on
// I/O and should honour ctx.
type Source interface {
	FetchAllergens(ctx context.Context) ([]AllergenDefinition, error)
	FetchGRAS(ctx context.Context) ([]GRASIngredientRecord, error)
	FetchNDI(ctx context.Context) ([]NDINotificationRecord, error)
	FetchODI(ctx context.Context) ([]OldDietaryIngredientRecord, error)
}

// StaticSource serves a fixed in-memory Dataset.
type StaticSource struct {
	Data Dataset
}

func (s *StaticSource) FetchAllergens(context.Context) ([]AllergenDefinition, error) {
	return s.Data.Allergens, nil
}

func (s *StaticSource) FetchGRAS(context.Context) ([]GRASIngredientRecord, error) {
	return s.Data.GRAS, nil
}

func (s *StaticSource) FetchNDI(context.Context) ([]NDINotificationRecord, error) {
	return s.Data.NDI, nil
}

func (s *StaticSource) FetchODI(context.Context) ([]OldDietaryIngredientRecord, error) {
	return s.Data.ODI, nil
}

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns a StaticSource over the corpora compiled into the binary.
func Builtin() (*StaticSource, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	ds, err := readDataset(sub)
	if err != nil {
		return nil, fmt.Errorf("builtin corpora: %w", err)
	}
	return &StaticSource{Data: *ds}, nil
}

// DirSource reads <corpus>.yaml files from a directory on every fetch, so an
// invalidation picks up edits made on disk.
type DirSource struct {
	Dir string
}

func (s *DirSource) FetchAllergens(context.Context) ([]AllergenDefinition, error) {
	var ds Dataset
	if err := s.read(CorpusAllergens, &ds); err != nil {
		return nil, err
	}
	return ds.Allergens, nil
}

func (s *DirSource) FetchGRAS(context.Context) ([]GRASIngredientRecord, error) {
	var ds Dataset
	if err := s.read(CorpusGRAS, &ds); err != nil {
		return nil, err
	}
	return ds.GRAS, nil
}

func (s *DirSource) FetchNDI(context.Context) ([]NDINotificationRecord, error) {
	var ds Dataset
	if err := s.read(CorpusNDI, &ds); err != nil {
		return nil, err
	}
	return ds.NDI, nil
}

func (s *DirSource) FetchODI(context.Context) ([]OldDietaryIngredientRecord, error) {
	var ds Dataset
	if err := s.read(CorpusODI, &ds); err != nil {
		return nil, err
	}
	return ds.ODI, nil
}

func (s *DirSource) read(c Corpus, ds *Dataset) error {
	path := filepath.Join(s.Dir, string(c)+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read corpus %s: %w", c, err)
	}
	if err := yaml.Unmarshal(data, ds); err != nil {
		return fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return nil
}

// readDataset merges every <corpus>.yaml present in fsys.
func readDataset(fsys fs.FS) (*Dataset, error) {
	ds := &Dataset{}
	for _, c := range AllCorpora {
		data, err := fs.ReadFile(fsys, string(c)+".yaml")
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", c, err)
		}
		if err := yaml.Unmarshal(data, ds); err != nil {
			return nil, fmt.Errorf("parse %s: %w", c, err)
		}
	}
	return ds, nil
}

// Records default to active when the YAML omits the flag.

func (a *AllergenDefinition) UnmarshalYAML(n *yaml.Node) error {
	type raw AllergenDefinition
	r := raw{Active: true}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*a = AllergenDefinition(r)
	return nil
}

func (g *GRASIngredientRecord) UnmarshalYAML(n *yaml.Node) error {
	type raw GRASIngredientRecord
	r := raw{Active: true}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*g = GRASIngredientRecord(r)
	return nil
}

func (o *OldDietaryIngredientRecord) UnmarshalYAML(n *yaml.Node) error {
	type raw OldDietaryIngredientRecord
	r := raw{Active: true}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*o = OldDietaryIngredientRecord(r)
	return nil
}
