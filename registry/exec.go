package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlfront/gqlerrors"
	"github.com/hanpama/gqlfront/internal/deepmerge"
	eventbus "github.com/hanpama/gqlfront/internal/eventbus"
	events "github.com/hanpama/gqlfront/internal/events"
	language "github.com/hanpama/gqlfront/internal/language"
	reqid "github.com/hanpama/gqlfront/internal/reqid"
	"github.com/hanpama/gqlfront/transport"
)

// wirePayload is the JSON envelope sent to the endpoint. A nil Variables
// map marshals to null, which tells the server no variable negotiation is
// needed at all.
type wirePayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// wireResponse is the envelope expected back. Error carries per-query
// failures keyed by name; Errors carries top-level failures.
type wireResponse struct {
	Data   map[string]any `json:"data"`
	Error  map[string]any `json:"error"`
	Errors gqlerror.List  `json:"errors"`
}

// Exec composes all registered entries into one document, issues exactly
// one transport call, and dispatches the response to the per-name
// callbacks. Server-reported failures come back through the Result's error
// map; the returned error is reserved for configuration and validation
// failures raised before any network activity.
func (r *Registry) Exec(ctx context.Context, vars map[string]any, headers map[string]string) (*Result, error) {
	return r.execute(ctx, vars, func(ctx context.Context, c composed) (*transport.Response, error) {
		payload := wirePayload{Query: c.document, Variables: c.variables}
		merged := deepmerge.Strings(r.cfg.Headers, headers)
		if r.post {
			return r.tp.Post(ctx, r.cfg.URL, payload, merged)
		}
		return r.tp.Get(ctx, r.cfg.URL, payload, merged)
	})
}

// ExecUpload behaves like Exec but ships the composed operation as a
// multipart form with the given files attached. Composition rules are
// identical; only the envelope differs.
func (r *Registry) ExecUpload(ctx context.Context, fieldName string, files []transport.File, vars map[string]any, headers map[string]string) (*Result, error) {
	return r.execute(ctx, vars, func(ctx context.Context, c composed) (*transport.Response, error) {
		form := transport.Form{Query: c.document, Variables: c.variables, FieldName: fieldName, Files: files}
		return r.tp.Upload(ctx, r.cfg.URL, form, deepmerge.Strings(r.cfg.Headers, headers))
	})
}

func (r *Registry) execute(ctx context.Context, vars map[string]any, send func(context.Context, composed) (*transport.Response, error)) (*Result, error) {
	if !r.HasQueries() {
		return &Result{Errors: ErrorMap{}, Data: DataMap{}}, nil
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	c := r.compose(vars)
	if r.validate {
		if _, err := language.ParseQuery(c.document); err != nil {
			return nil, &gqlerrors.ValidationError{Field: "query", Message: err.Error()}
		}
	}

	ctx, _ = reqid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{OperationType: r.op, Document: c.document, QueryNames: c.names})

	res, err := send(ctx, c)
	result := r.dispatch(res, err)

	eventbus.Publish(ctx, events.GraphQLFinish{
		OperationType: r.op,
		QueryNames:    c.names,
		Errors:        result.faults(),
		Duration:      time.Since(start),
	})
	return result, nil
}

// dispatch classifies the settled transport result and fans payloads out to
// the registered callbacks as a post-processing step over the typed Result.
func (r *Registry) dispatch(res *transport.Response, err error) *Result {
	result := &Result{Errors: ErrorMap{}, Data: DataMap{}, Sent: true}

	if err != nil {
		result.Errors[gqlerrors.ServerErrorKey] = gqlerrors.ServerFault(err.Error())
		return result
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) > 0 && body[0] == '[' {
		// A bare list is a transport-carried error list.
		var list gqlerror.List
		if jerr := json.Unmarshal(body, &list); jerr != nil {
			result.Errors[gqlerrors.ServerErrorKey] = gqlerrors.ServerFault(jerr.Error())
			return result
		}
		if len(list) > 0 {
			result.Errors[gqlerrors.ServerErrorKey] = gqlerrors.ServerFault(list[len(list)-1].Message)
		}
		return result
	}

	var wire wireResponse
	if jerr := json.Unmarshal(body, &wire); jerr != nil {
		result.Errors[gqlerrors.ServerErrorKey] = gqlerrors.ServerFault(jerr.Error())
		return result
	}

	if len(wire.Errors) > 0 {
		// Last wins: the most specific message a multi-error transport
		// reports is the one surfaced.
		result.Errors[gqlerrors.ServerErrorKey] = gqlerrors.ServerFault(wire.Errors[len(wire.Errors)-1].Message)
		return result
	}

	for name, payload := range wire.Error {
		result.Errors[name] = payload
		if cb := r.failure[name]; cb != nil {
			cb(payload, r)
		}
	}
	for name, payload := range wire.Data {
		result.Data[name] = payload
		if cb := r.success[name]; cb != nil {
			cb(payload, r)
		}
	}
	return result
}

// faults flattens the error map for event reporting.
func (res *Result) faults() []error {
	if len(res.Errors) == 0 {
		return nil
	}
	out := make([]error, 0, len(res.Errors))
	for name, payload := range res.Errors {
		if f, ok := payload.(gqlerrors.Fault); ok {
			out = append(out, f)
			continue
		}
		out = append(out, gqlerrors.Fault{Message: stringify(payload), Code: name})
	}
	return out
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "unprintable error payload"
	}
	return string(b)
}
