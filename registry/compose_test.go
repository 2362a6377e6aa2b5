package registry

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	language "github.com/hanpama/gqlfront/internal/language"
)

func TestComposeRenamesCollidingArguments(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{
		Name:  "getUser",
		Query: "getUser(id:$id){name}",
		Args:  map[string]ArgumentSpec{"id": {Type: "Int", Value: 1}},
	})
	mustSet(t, r, Entry{
		Name:  "getPost",
		Query: "getPost(id:$id){title}",
		Args:  map[string]ArgumentSpec{"id": {Type: "String", Value: "p1"}},
	})

	c := r.compose(nil)
	if !strings.Contains(c.document, "$getUser_id: Int") || !strings.Contains(c.document, "$getPost_id: String") {
		t.Fatalf("declarations not renamed: %s", c.document)
	}
	if strings.Contains(c.document, "$id") {
		t.Fatalf("short variable name leaked into document: %s", c.document)
	}
	wantVars := map[string]any{"getUser_id": 1, "getPost_id": "p1"}
	if diff := cmp.Diff(wantVars, c.variables); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
	if _, err := language.ParseQuery(c.document); err != nil {
		t.Fatalf("composed document does not parse: %v\n%s", err, c.document)
	}
}

func TestComposeIntCoercion(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{
		Name:  "getUser",
		Query: "getUser(id:$id){name}",
		Args:  map[string]ArgumentSpec{"id": {Type: "Int", Value: 1}},
	})

	c := r.compose(map[string]any{"id": "7"})
	if got := c.variables["getUser_id"]; got != 7 {
		t.Fatalf("expected coerced int 7, got %#v", got)
	}
	if !strings.Contains(c.document, "$getUser_id: Int") {
		t.Fatalf("declaration missing: %s", c.document)
	}
}

func TestComposeIntCoercionVariants(t *testing.T) {
	cases := []struct {
		in   any
		typ  string
		want any
	}{
		{in: float64(42), typ: "Int", want: 42},
		{in: " 3 ", typ: "Int!", want: 3},
		{in: int64(9), typ: "[Int]", want: 9},
		{in: "x", typ: "Int", want: "x"},
		{in: "42", typ: "String", want: "42"},
		{in: nil, typ: "Int", want: nil},
	}
	for _, tc := range cases {
		got := resolveArgument(ArgumentSpec{Type: tc.typ}, map[string]any{"v": tc.in}, "v")
		if got != tc.want {
			t.Errorf("resolveArgument(%#v, %s) = %#v, want %#v", tc.in, tc.typ, got, tc.want)
		}
	}
}

func TestComposeFreshFuncValuePerSend(t *testing.T) {
	r := NewQuery(testConfig())
	n := 0
	mustSet(t, r, Entry{
		Name:  "tick",
		Query: "tick(at:$at){ok}",
		Args:  map[string]ArgumentSpec{"at": {Type: "Int", Func: func() any { n++; return n }}},
	})

	first := r.compose(nil)
	second := r.compose(nil)
	if first.variables["tick_at"] != 1 || second.variables["tick_at"] != 2 {
		t.Fatalf("computed value not fresh per send: %v then %v", first.variables, second.variables)
	}
}

func TestComposeCallerVariableWinsOverFunc(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{
		Name:  "tick",
		Query: "tick(at:$at){ok}",
		Args:  map[string]ArgumentSpec{"at": {Type: "Int", Func: func() any { return 99 }}},
	})

	c := r.compose(map[string]any{"at": 5})
	if c.variables["tick_at"] != 5 {
		t.Fatalf("caller variable should win, got %v", c.variables["tick_at"])
	}
}

func TestComposeAnonymousWhenNoArguments(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{Name: "ping", Query: "ping{ok}"})

	c := r.compose(nil)
	if c.variables != nil {
		t.Fatalf("bare query should carry nil variables, got %v", c.variables)
	}
	if !strings.HasPrefix(c.document, "{") {
		t.Fatalf("bare query should be an anonymous selection set: %s", c.document)
	}
	if _, err := language.ParseQuery(c.document); err != nil {
		t.Fatalf("composed document does not parse: %v", err)
	}
}

func TestComposeMutationKeyword(t *testing.T) {
	r := NewMutation(testConfig())
	mustSet(t, r, Entry{Name: "ping", Query: "ping{ok}"})

	c := r.compose(nil)
	if !strings.HasPrefix(c.document, "mutation {") {
		t.Fatalf("mutation keyword missing: %s", c.document)
	}

	mustSet(t, r, Entry{Name: "save", Query: "save(v:$v){ok}", Args: map[string]ArgumentSpec{"v": {Type: "String", Value: "x"}}})
	c = r.compose(nil)
	if !strings.HasPrefix(c.document, "mutation Batch(") {
		t.Fatalf("named mutation signature missing: %s", c.document)
	}
}

func TestComposeConcatenatesInRegistrationOrder(t *testing.T) {
	r := NewQuery(testConfig())
	mustSet(t, r, Entry{Name: "a", Query: "a{x}"})
	mustSet(t, r, Entry{Name: "b", Query: "b{x}"})

	c := r.compose(nil)
	if c.document != "{ a{x} b{x} }" {
		t.Fatalf("unexpected document: %q", c.document)
	}
}

func TestComposePrependsRawDirectives(t *testing.T) {
	r := NewQuery(testConfig())
	r.AddRaw("fragment userFields on User { name }")
	mustSet(t, r, Entry{Name: "getUser", Query: "getUser{...userFields}"})

	c := r.compose(nil)
	if !strings.HasPrefix(c.document, "fragment userFields on User { name } {") {
		t.Fatalf("raw directive not prepended: %s", c.document)
	}
	if _, err := language.ParseQuery(c.document); err != nil {
		t.Fatalf("composed document does not parse: %v\n%s", err, c.document)
	}
}

func TestRewriteVariableWordBoundary(t *testing.T) {
	got := rewriteVariable("q(a:$id, b:$idSuffix)", "id", "q_id")
	want := "q(a:$q_id, b:$idSuffix)"
	if got != want {
		t.Fatalf("rewriteVariable = %q, want %q", got, want)
	}
}
