package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
	"github.com/hazyhaar/labelcheck/pkg/report"
)

// app is the wired engine behind every command that evaluates ingredients.
type app struct {
	cache   *refdata.Cache
	engine  *match.Engine
	checker *report.Checker
	store   *refdata.Store
}

func newApp(ctx context.Context, cfg config, logger *slog.Logger) (*app, error) {
	a := &app{}
	src, err := a.openSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.cache, err = refdata.NewCache(src, refdata.CacheOptions{FetchTimeout: cfg.FetchTimeout, Logger: logger})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine, err = match.NewEngine(a.cache, cfg.matchOptions(), cfg.NormalizeCacheSize)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.checker = report.NewChecker(a.engine, report.CheckerOptions{
		Workers:        cfg.Workers,
		MaxIngredients: cfg.MaxBatch,
		Logger:         logger,
	})
	return a, nil
}

func (a *app) openSource(ctx context.Context, cfg config, logger *slog.Logger) (refdata.Source, error) {
	switch cfg.Source {
	case sourceDir:
		return &refdata.DirSource{Dir: cfg.DataDir}, nil
	case sourceSQLite:
		st, err := openStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := seedStore(ctx, st, logger); err != nil {
			st.Close()
			return nil, err
		}
		a.store = st
		return st, nil
	default:
		return refdata.Builtin()
	}
}

func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func openStore(path string) (*refdata.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return refdata.OpenStore(path)
}

// seedStore fills every empty corpus table from the builtin corpora.
func seedStore(ctx context.Context, st *refdata.Store, logger *slog.Logger) error {
	counts, err := st.Counts(ctx)
	if err != nil {
		return err
	}
	builtin, err := refdata.Builtin()
	if err != nil {
		return err
	}
	ds := builtin.Data
	for _, corpus := range refdata.AllCorpora {
		if counts[corpus] > 0 {
			continue
		}
		switch corpus {
		case refdata.CorpusAllergens:
			err = st.ReplaceAllergens(ctx, ds.Allergens)
		case refdata.CorpusGRAS:
			err = st.ReplaceGRAS(ctx, ds.GRAS)
		case refdata.CorpusNDI:
			err = st.ReplaceNDI(ctx, ds.NDI)
		case refdata.CorpusODI:
			err = st.ReplaceODI(ctx, ds.ODI)
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", corpus, err)
		}
		logger.Info("seeded corpus from builtin data", "corpus", corpus)
	}
	return nil
}
