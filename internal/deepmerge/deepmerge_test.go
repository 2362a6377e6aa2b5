package deepmerge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtendNestedMaps(t *testing.T) {
	dst := map[string]any{"a": 1, "nested": map[string]any{"keep": true, "swap": "old"}}
	src := map[string]any{"b": 2, "nested": map[string]any{"swap": "new"}}

	got := Extend(dst, src)

	want := map[string]any{
		"a":      1,
		"b":      2,
		"nested": map[string]any{"keep": true, "swap": "new"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Extend mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendNilDst(t *testing.T) {
	got := Extend(nil, map[string]any{"a": 1})
	if got["a"] != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestExtendDoesNotMutateSrc(t *testing.T) {
	src := map[string]any{"nested": map[string]any{"a": 1}}
	dst := map[string]any{"nested": map[string]any{"b": 2}}
	Extend(dst, src)
	if len(src["nested"].(map[string]any)) != 1 {
		t.Fatalf("src mutated: %v", src)
	}
}

func TestStringsLaterWins(t *testing.T) {
	got := Strings(map[string]string{"a": "1", "b": "1"}, map[string]string{"b": "2"}, nil)
	want := map[string]string{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Strings mismatch (-want +got):\n%s", diff)
	}
}
