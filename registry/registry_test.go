package registry

import (
	"errors"
	"testing"

	"github.com/hanpama/gqlfront/config"
	"github.com/hanpama/gqlfront/gqlerrors"
)

func testConfig() *config.Config {
	return &config.Config{URL: "http://example.invalid/graphql"}
}

func TestSetRejectsMissingName(t *testing.T) {
	r := NewQuery(testConfig())
	err := r.Set(Entry{Query: "getUser{name}"})
	var verr *gqlerrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, gqlerrors.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry sentinel, got %v", err)
	}
}

func TestSetRejectsMissingQuery(t *testing.T) {
	r := NewQuery(testConfig())
	if err := r.Set(Entry{Name: "getUser"}); err == nil {
		t.Fatal("expected error for missing query text")
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{Name: "a", Query: "a{x}"})
	mustSet(t, r, Entry{Name: "b", Query: "b{x}"})
	mustSet(t, r, Entry{Name: "a", Query: "a{y}"})

	if len(r.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r.entries))
	}
	if r.entries[0].Name != "a" || r.entries[0].Query != "a{y}" {
		t.Fatalf("entry not replaced at original position: %+v", r.entries[0])
	}
	if r.entries[1].Name != "b" {
		t.Fatalf("sibling entry moved: %+v", r.entries[1])
	}
}

func TestUnsetFirstEntry(t *testing.T) {
	// Position 0 must be treated as found.
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{Name: "first", Query: "first{x}"})
	mustSet(t, r, Entry{Name: "second", Query: "second{x}"})

	r.Unset("first")
	if len(r.entries) != 1 || r.entries[0].Name != "second" {
		t.Fatalf("first entry not removed: %+v", r.entries)
	}
}

func TestUnsetUnknownIsNoop(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{Name: "a", Query: "a{x}"})
	r.Unset("missing")
	if !r.HasQueries() {
		t.Fatal("existing entry should survive")
	}
}

func TestHasQueries(t *testing.T) {
	r := NewQuery(testConfig())
	if r.HasQueries() {
		t.Fatal("fresh registry should be empty")
	}
	mustSet(t, r, Entry{Name: "a", Query: "a{x}"})
	if !r.HasQueries() {
		t.Fatal("registered entry not reported")
	}
	r.Unset("a")
	if r.HasQueries() {
		t.Fatal("removed entry still reported")
	}
}

func TestCallbacksPersistAcrossReset(t *testing.T) {
	r := NewQuery(testConfig())
	called := false
	mustSet(t, r, Entry{Name: "a", Query: "a{x}", OnSuccess: func(any, *Registry) { called = true }})
	// Re-registering without callbacks keeps the earlier ones.
	mustSet(t, r, Entry{Name: "a", Query: "a{y}"})

	cb := r.success["a"]
	if cb == nil {
		t.Fatal("success callback dropped by later Set")
	}
	cb(nil, r)
	if !called {
		t.Fatal("stored callback is not the registered one")
	}
}

func TestCallbacksReplacedWhenSupplied(t *testing.T) {
	r := NewQuery(testConfig())
	got := ""
	mustSet(t, r, Entry{Name: "a", Query: "a{x}", OnError: func(any, *Registry) { got = "old" }})
	mustSet(t, r, Entry{Name: "a", Query: "a{x}", OnError: func(any, *Registry) { got = "new" }})

	r.failure["a"](nil, r)
	if got != "new" {
		t.Fatalf("expected replaced callback, got %q", got)
	}
}

func mustSet(t *testing.T, r *Registry, e Entry) {
	t.Helper()
	if err := r.Set(e); err != nil {
		t.Fatalf("Set(%s): %v", e.Name, err)
	}
}
