// Package registry implements the query/mutation batching engine: named
// query registration, collision-safe merging into one composed document,
// and per-name dispatch of the response.
package registry

import (
	"github.com/hanpama/gqlfront/config"
	"github.com/hanpama/gqlfront/gqlerrors"
	"github.com/hanpama/gqlfront/transport"
)

// Callback handles a per-name success or error payload. The registry that
// dispatched the response is passed alongside so callbacks can re-register
// or inspect sibling entries.
type Callback func(payload any, r *Registry)

// ArgumentSpec declares one argument of a registered query. Func, when set,
// is invoked with no arguments immediately before composition so every send
// sees a fresh value; Value is the static default used only when no runtime
// variable overrides it.
type ArgumentSpec struct {
	Type  string
	Value any
	Func  func() any
}

// Entry is one named query registration.
type Entry struct {
	Name      string
	Query     string
	Args      map[string]ArgumentSpec
	OnSuccess Callback
	OnError   Callback
}

// ErrorMap accumulates per-name error payloads from one exec. The
// gqlerrors.ServerErrorKey entry, when present, is a gqlerrors.Fault.
type ErrorMap map[string]any

// DataMap holds the per-name data payloads from one exec.
type DataMap map[string]any

// Result is the settled outcome of one Exec call. Sent is false when the
// registry was empty and no request was issued.
type Result struct {
	Errors ErrorMap
	Data   DataMap
	Sent   bool
}

// Registry holds named query definitions and their callbacks. It is not
// safe for concurrent use; concurrent Exec calls race independently and
// callers needing serialization must add it externally.
type Registry struct {
	cfg *config.Config
	tp  *transport.Client

	op   string // operation keyword
	post bool   // POST instead of GET

	entries  []Entry
	success  map[string]Callback
	failure  map[string]Callback
	raw      []string
	validate bool
}

type Option func(*Registry)

// WithTransport replaces the default transport client.
func WithTransport(tp *transport.Client) Option { return func(r *Registry) { r.tp = tp } }

// WithValidation syntax-checks every composed document with the GraphQL
// parser before sending.
func WithValidation() Option { return func(r *Registry) { r.validate = true } }

// NewQuery creates a registry composing query operations, sent with GET.
func NewQuery(cfg *config.Config, opts ...Option) *Registry {
	return newRegistry(cfg, "query", false, opts)
}

// NewMutation creates a registry composing mutation operations, sent with
// POST. All merging, renaming, and dispatch behavior is shared with query
// registries.
func NewMutation(cfg *config.Config, opts ...Option) *Registry {
	return newRegistry(cfg, "mutation", true, opts)
}

func newRegistry(cfg *config.Config, op string, post bool, opts []Option) *Registry {
	r := &Registry{
		cfg:     cfg,
		op:      op,
		post:    post,
		success: map[string]Callback{},
		failure: map[string]Callback{},
	}
	for _, f := range opts {
		f(r)
	}
	if r.tp == nil {
		r.tp = transport.New()
	}
	return r
}

// Set registers or replaces the entry under its name. A replaced entry keeps
// its original position. Callbacks supplied here overwrite earlier ones for
// the same name; omitted callbacks persist from the earlier registration.
func (r *Registry) Set(e Entry) error {
	if e.Name == "" {
		return &gqlerrors.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if e.Query == "" {
		return &gqlerrors.ValidationError{Field: "query", Message: "must not be empty"}
	}
	if e.OnSuccess != nil {
		r.success[e.Name] = e.OnSuccess
	}
	if e.OnError != nil {
		r.failure[e.Name] = e.OnError
	}
	if i, ok := r.find(e.Name); ok {
		r.entries[i] = e
		return nil
	}
	r.entries = append(r.entries, e)
	return nil
}

// Unset removes the entry and its callbacks. Removing an unknown name is a
// no-op.
func (r *Registry) Unset(name string) {
	i, ok := r.find(name)
	if !ok {
		return
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.success, name)
	delete(r.failure, name)
}

// HasQueries reports whether at least one entry is registered.
func (r *Registry) HasQueries() bool { return len(r.entries) > 0 }

// AddRaw records a raw directive string prepended verbatim to every
// composed document, in registration order.
func (r *Registry) AddRaw(directive string) {
	r.raw = append(r.raw, directive)
}

// find reports the position of the named entry. Position 0 is a valid
// result; presence is signalled separately.
func (r *Registry) find(name string) (int, bool) {
	for i := range r.entries {
		if r.entries[i].Name == name {
			return i, true
		}
	}
	return 0, false
}
