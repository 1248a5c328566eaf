package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/labelcheck/pkg/match"
)

type matchingConfig struct {
	MinFuzzyTermLength    int `yaml:"min_fuzzy_term_length"`
	MinGRASSharedLength   int `yaml:"min_gras_shared_length"`
	MinNDIPartialLength   int `yaml:"min_ndi_partial_length"`
	SuggestionMaxDistance int `yaml:"suggestion_max_distance"`
}

type config struct {
	Addr               string         `yaml:"addr"`
	LogLevel           string         `yaml:"log_level"`
	Source             string         `yaml:"source"`
	DBPath             string         `yaml:"db_path"`
	DataDir            string         `yaml:"data_dir"`
	FetchTimeout       time.Duration  `yaml:"fetch_timeout"`
	MaxBatch           int            `yaml:"max_batch"`
	Workers            int            `yaml:"workers"`
	NormalizeCacheSize int            `yaml:"normalize_cache_size"`
	CheckInterval      time.Duration  `yaml:"check_interval"`
	Matching           matchingConfig `yaml:"matching"`
	Denylist           []string       `yaml:"denylist"`
}

const (
	sourceBuiltin = "builtin"
	sourceSQLite  = "sqlite"
	sourceDir     = "dir"
)

func defaultConfig() config {
	return config{
		Addr:               ":8430",
		LogLevel:           "info",
		Source:             sourceBuiltin,
		DBPath:             "data/labelcheck.db",
		DataDir:            "data/corpora",
		FetchTimeout:       30 * time.Second,
		MaxBatch:           200,
		Workers:            8,
		NormalizeCacheSize: 4096,
		CheckInterval:      24 * time.Hour,
		Matching: matchingConfig{
			MinFuzzyTermLength:    match.DefaultMinFuzzyTermLength,
			MinGRASSharedLength:   match.DefaultMinGRASSharedLength,
			MinNDIPartialLength:   match.DefaultMinNDIPartialLength,
			SuggestionMaxDistance: match.DefaultSuggestionMaxDistance,
		},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error;
// found reports whether one was read.
func loadConfig(path string) (cfg config, found bool, err error) {
	cfg = defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, cfg.validate()
}

func (c config) validate() error {
	switch c.Source {
	case sourceBuiltin, sourceSQLite, sourceDir:
	default:
		return fmt.Errorf("config: source must be builtin, sqlite or dir, got %q", c.Source)
	}
	if c.MaxBatch < 0 || c.Workers < 0 || c.NormalizeCacheSize < 0 {
		return fmt.Errorf("config: max_batch, workers and normalize_cache_size must not be negative")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("config: check_interval must be positive")
	}
	return nil
}

func (c config) matchOptions() match.Options {
	return match.Options{
		MinFuzzyTermLength:    c.Matching.MinFuzzyTermLength,
		MinGRASSharedLength:   c.Matching.MinGRASSharedLength,
		MinNDIPartialLength:   c.Matching.MinNDIPartialLength,
		SuggestionMaxDistance: c.Matching.SuggestionMaxDistance,
		Denylist:              match.NewDenylist(match.DefaultDenylistTerms, c.Denylist),
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
