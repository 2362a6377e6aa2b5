package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// operationName is the name given to composed documents that declare
// variables. Bare documents stay anonymous.
const operationName = "Batch"

// intTypeRE matches the integer wire types, including list and non-null
// wrappers.
var intTypeRE = regexp.MustCompile(`^\[?Int!?\]?!?$`)

// composed is the ephemeral request built per Exec. Variables is nil when
// no entry declared any argument, which the wire layer encodes as a null
// variables payload.
type composed struct {
	document  string
	variables map[string]any
	names     []string
}

// compose merges all registered entries into one document. Every declared
// argument is renamed to "<query>_<arg>" so that two entries sharing an
// argument short name never collide in the merged variable declarations.
func (r *Registry) compose(vars map[string]any) composed {
	var decls []string
	var variables map[string]any
	parts := make([]string, 0, len(r.entries))
	names := make([]string, 0, len(r.entries))

	for _, e := range r.entries {
		names = append(names, e.Name)
		text := e.Query
		for _, arg := range sortedArgNames(e.Args) {
			spec := e.Args[arg]
			val := resolveArgument(spec, vars, arg)
			renamed := e.Name + "_" + arg
			if variables == nil {
				variables = map[string]any{}
			}
			variables[renamed] = val
			decls = append(decls, "$"+renamed+": "+spec.Type)
			text = rewriteVariable(text, arg, renamed)
		}
		parts = append(parts, text)
	}

	body := strings.Join(parts, " ")
	var doc string
	switch {
	case len(decls) > 0:
		doc = fmt.Sprintf("%s %s(%s) { %s }", r.op, operationName, strings.Join(decls, ", "), body)
	case r.op == "query":
		doc = "{ " + body + " }"
	default:
		doc = r.op + " { " + body + " }"
	}
	if len(r.raw) > 0 {
		doc = strings.Join(r.raw, " ") + " " + doc
	}
	return composed{document: doc, variables: variables, names: names}
}

// resolveArgument computes the concrete value for one declared argument:
// the caller-supplied variable wins, then the spec's computed value, then
// its static default. Integer-typed arguments are coerced.
func resolveArgument(spec ArgumentSpec, vars map[string]any, name string) any {
	val, ok := vars[name]
	if !ok {
		if spec.Func != nil {
			val = spec.Func()
		} else {
			val = spec.Value
		}
	}
	if intTypeRE.MatchString(spec.Type) {
		val = coerceInt(val)
	}
	return val
}

// coerceInt converts numeric values, including numeric strings, to int.
// Values that cannot be interpreted as integers pass through unchanged.
func coerceInt(v any) any {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return v
}

// rewriteVariable replaces every $arg occurrence in text with $renamed.
// The word boundary keeps $id from matching inside $idSuffix.
func rewriteVariable(text, arg, renamed string) string {
	re := regexp.MustCompile(`\$` + regexp.QuoteMeta(arg) + `\b`)
	return re.ReplaceAllString(text, "$$"+renamed)
}

func sortedArgNames(args map[string]ArgumentSpec) []string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
