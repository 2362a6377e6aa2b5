package logging

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	eventbus "github.com/hanpama/gqlfront/internal/eventbus"
	events "github.com/hanpama/gqlfront/internal/events"
	reqid "github.com/hanpama/gqlfront/internal/reqid"
)

// Setup builds the process logger at the requested level. Unknown levels
// fall back to info.
func Setup(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// Attach subscribes log emitters for client events. The returned function
// detaches them.
func Attach(log zerolog.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			rid, _ := reqid.FromContext(ctx)
			ev := log.Debug()
			if len(e.Errors) > 0 {
				ev = log.Warn().Errs("errors", e.Errors)
			}
			ev.Str("rid", rid).
				Str("operation", e.OperationType).
				Strs("queries", e.QueryNames).
				Dur("duration", e.Duration).
				Msg("graphql operation finished")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			ev := log.Debug()
			if e.Err != nil {
				ev = log.Warn().Err(e.Err)
			}
			ev.Str("rid", rid).
				Str("method", e.Method).
				Str("url", e.URL).
				Int("status", e.Status).
				Dur("duration", e.Duration).
				Msg("transport call finished")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.StoreUpdate) {
			log.Debug().
				Str("query", e.Query).
				Strs("fields", e.Fields).
				Int("subscribers", e.Subscribers).
				Msg("store snapshot updated")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.SubscriberPanic) {
			log.Error().
				Str("query", e.Query).
				Str("subscriber", e.Subscriber).
				Any("recovered", e.Recovered).
				Msg("subscriber panicked during notification")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
