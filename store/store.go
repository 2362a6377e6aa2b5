// Package store provides QueryState, a reactive state container bound to
// one named query. The snapshot is replaced wholesale on every successful
// fetch or reset and handed to subscribers as a defensive copy; local
// mutators work with or without notification so callers can batch several
// changes before one notify.
package store

import (
	"context"
	"fmt"

	"github.com/hanpama/gqlfront/config"
	"github.com/hanpama/gqlfront/internal/deepmerge"
	eventbus "github.com/hanpama/gqlfront/internal/eventbus"
	events "github.com/hanpama/gqlfront/internal/events"
	"github.com/hanpama/gqlfront/registry"
)

// Subscriber observes snapshot changes. previous is the snapshot that was
// current before the mutation cycle that triggered the notification.
type Subscriber func(state, previous map[string]any, s *QueryState)

// Subscription is the opaque handle returned by Subscribe and required by
// Unsubscribe.
type Subscription struct {
	id int
}

type subEntry struct {
	id   int
	name string
	fn   Subscriber
}

// QueryState owns one named query's argument definitions and a plain
// snapshot of the latest known server state. It is not safe for concurrent
// use; notification is synchronous and unbounded.
type QueryState struct {
	cfg *config.Config

	name  string
	query string
	args  map[string]registry.ArgumentSpec

	state    map[string]any
	oldState map[string]any

	prepare func(map[string]any) map[string]any
	regOpts []registry.Option

	subs   []subEntry
	nextID int
}

type Option func(*QueryState)

// WithPrepareState overrides the hook applied to every wholesale snapshot
// replacement. The default is identity.
func WithPrepareState(fn func(map[string]any) map[string]any) Option {
	return func(s *QueryState) { s.prepare = fn }
}

// WithRegistryOptions forwards options to the registries built by Query.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(s *QueryState) { s.regOpts = opts }
}

// New creates a QueryState for the named query. defaults seeds the initial
// snapshot and may be nil.
func New(cfg *config.Config, name, query string, args map[string]registry.ArgumentSpec, defaults map[string]any, opts ...Option) *QueryState {
	s := &QueryState{
		cfg:     cfg,
		name:    name,
		query:   query,
		args:    args,
		state:   copyState(defaults),
		prepare: func(m map[string]any) map[string]any { return m },
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Query fetches the server state through the single-shot query runner. On
// success the snapshot is replaced and subscribers are notified before
// onSuccess runs; failures matching this query are routed to onError.
func (s *QueryState) Query(ctx context.Context, onSuccess, onError registry.Callback) (*registry.Result, error) {
	entry := registry.Entry{
		Name:  s.name,
		Query: s.query,
		Args:  s.args,
		OnSuccess: func(payload any, r *registry.Registry) {
			if next, ok := payload.(map[string]any); ok {
				s.ResetSync(next)
			}
			if onSuccess != nil {
				onSuccess(payload, r)
			}
		},
		OnError: onError,
	}
	vars := map[string]any{}
	for arg := range s.args {
		if v, ok := s.state[arg]; ok {
			vars[arg] = v
		}
	}
	return registry.RunQuery(ctx, s.cfg, entry, vars, nil, s.regOpts...)
}

// Snapshot returns a shallow copy of the whole snapshot.
func (s *QueryState) Snapshot() map[string]any { return copyState(s.state) }

// Get returns one field of the snapshot, or nil when absent.
func (s *QueryState) Get(name string) any { return s.state[name] }

// Set deep-merges the patch into the snapshot without notifying.
func (s *QueryState) Set(patch map[string]any) {
	s.beginCycle()
	s.state = deepmerge.Extend(s.state, patch)
}

// SetSync merges the patch and notifies subscribers.
func (s *QueryState) SetSync(patch map[string]any) {
	s.Set(patch)
	s.notify(keys(patch))
}

// SetField sets one field without notifying.
func (s *QueryState) SetField(name string, value any) {
	s.beginCycle()
	s.state[name] = value
}

// SetFieldSync sets one field and notifies subscribers.
func (s *QueryState) SetFieldSync(name string, value any) {
	s.SetField(name, value)
	s.notify([]string{name})
}

// Unset removes one field without notifying. It reports whether the field
// existed.
func (s *QueryState) Unset(name string) bool {
	if _, ok := s.state[name]; !ok {
		return false
	}
	s.beginCycle()
	delete(s.state, name)
	return true
}

// UnsetSync removes one field and notifies only if it existed.
func (s *QueryState) UnsetSync(name string) bool {
	if !s.Unset(name) {
		return false
	}
	s.notify([]string{name})
	return true
}

// Reset replaces the snapshot wholesale, through the prepare hook, without
// notifying.
func (s *QueryState) Reset(next map[string]any) {
	s.oldState = s.state
	s.state = copyState(s.prepare(next))
}

// ResetSync replaces the snapshot and notifies subscribers.
func (s *QueryState) ResetSync(next map[string]any) {
	s.Reset(next)
	s.notify(keys(s.state))
}

// Subscribe registers fn under an explicit name and returns its handle.
// Subscribing the same name again replaces the earlier callback in place,
// so a name never has more than one active subscriber. The zero handle and
// false are returned for an empty name or nil callback.
func (s *QueryState) Subscribe(name string, fn Subscriber) (Subscription, bool) {
	if name == "" || fn == nil {
		return Subscription{}, false
	}
	s.nextID++
	sub := subEntry{id: s.nextID, name: name, fn: fn}
	for i := range s.subs {
		if s.subs[i].name == name {
			s.subs[i] = sub
			return Subscription{id: sub.id}, true
		}
	}
	s.subs = append(s.subs, sub)
	return Subscription{id: sub.id}, true
}

// Unsubscribe removes the subscription for the given handle. It reports
// whether anything was removed.
func (s *QueryState) Unsubscribe(sub Subscription) bool {
	if sub.id == 0 {
		return false
	}
	for i := range s.subs {
		if s.subs[i].id == sub.id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// GetArg returns the current effective value of one declared argument: the
// snapshot's value when present, else the spec's computed or static
// default, else nil.
func (s *QueryState) GetArg(name string) any {
	if v, ok := s.state[name]; ok {
		return v
	}
	spec, ok := s.args[name]
	if !ok {
		return nil
	}
	if spec.Func != nil {
		return spec.Func()
	}
	return spec.Value
}

// beginCycle captures the pre-mutation snapshot. oldState is only valid
// within one mutation/notification cycle.
func (s *QueryState) beginCycle() {
	s.oldState = copyState(s.state)
	if s.state == nil {
		s.state = map[string]any{}
	}
}

// notify invokes every subscriber synchronously, in subscription order,
// with a defensive copy of the snapshot. A panicking subscriber is
// isolated: the panic is reported through the event bus and the remaining
// subscribers are still notified.
func (s *QueryState) notify(fields []string) {
	ctx := context.Background()
	current := copyState(s.state)
	for _, sub := range s.subs {
		s.notifyOne(ctx, sub, current)
	}
	eventbus.Publish(ctx, events.StoreUpdate{Query: s.name, Fields: fields, Subscribers: len(s.subs)})
}

func (s *QueryState) notifyOne(ctx context.Context, sub subEntry, current map[string]any) {
	defer func() {
		if rec := recover(); rec != nil {
			eventbus.Publish(ctx, events.SubscriberPanic{Query: s.name, Subscriber: sub.name, Recovered: rec})
		}
	}()
	sub.fn(current, s.oldState, s)
}

func copyState(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// String implements fmt.Stringer for debug logging.
func (s *QueryState) String() string {
	return fmt.Sprintf("QueryState(%s, %d fields, %d subscribers)", s.name, len(s.state), len(s.subs))
}
