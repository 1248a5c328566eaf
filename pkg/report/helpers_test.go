package report

import (
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/labelcheck/pkg/match"
	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func newTestEngine(t *testing.T, opts match.Options) *match.Engine {
	t.Helper()
	return newTestEngineMemo(t, opts, 64)
}

func newTestEngineMemo(t *testing.T, opts match.Options, memo int) *match.Engine {
	t.Helper()
	src, err := refdata.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	cache, err := refdata.NewCache(src, refdata.CacheOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	eng, err := match.NewEngine(cache, opts, memo)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
