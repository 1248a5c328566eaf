package match

import (
	"context"
	"testing"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func builtinMatchers(t *testing.T) *Matchers {
	t.Helper()
	src, err := refdata.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	cache, err := refdata.NewCache(src, refdata.CacheOptions{})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return NewMatchers(cache.Snapshot(context.Background()), DefaultOptions())
}
