package registry

import (
	"context"

	"github.com/hanpama/gqlfront/config"
	"github.com/hanpama/gqlfront/gqlerrors"
)

// RunQuery registers a single entry on a fresh query registry, executes it,
// and routes a serverError or own-name failure to the entry's OnError. One
// query, one error channel: the caller never inspects the error map shape.
func RunQuery(ctx context.Context, cfg *config.Config, e Entry, vars map[string]any, headers map[string]string, opts ...Option) (*Result, error) {
	return runSingle(ctx, NewQuery(cfg, opts...), e, vars, headers)
}

// RunMutation is RunQuery for a mutation registry.
func RunMutation(ctx context.Context, cfg *config.Config, e Entry, vars map[string]any, headers map[string]string, opts ...Option) (*Result, error) {
	return runSingle(ctx, NewMutation(cfg, opts...), e, vars, headers)
}

func runSingle(ctx context.Context, r *Registry, e Entry, vars map[string]any, headers map[string]string) (*Result, error) {
	// The runner owns error routing; registering OnError as well would
	// invoke it twice for own-name failures.
	onError := e.OnError
	e.OnError = nil
	if err := r.Set(e); err != nil {
		return nil, err
	}
	res, err := r.Exec(ctx, vars, headers)
	if err != nil {
		return nil, err
	}
	if onError != nil {
		if payload, ok := res.Errors[gqlerrors.ServerErrorKey]; ok {
			onError(payload, r)
		} else if payload, ok := res.Errors[e.Name]; ok {
			onError(payload, r)
		}
	}
	return res, nil
}
