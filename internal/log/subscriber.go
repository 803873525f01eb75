package log

import (
	"context"

	"github.com/go-logr/logr"

	eventbus "github.com/hanpama/catstronauts/internal/eventbus"
	events "github.com/hanpama/catstronauts/internal/events"
	reqid "github.com/hanpama/catstronauts/internal/reqid"
)

// Subscribe logs finished HTTP requests, GraphQL operations and upstream
// calls from the global event bus. Successes go to V(1), failures to Error.
// The logger in the event context wins over logger when present.
func Subscribe(logger logr.Logger) (unsubscribe func()) {
	loggerFor := func(ctx context.Context) logr.Logger {
		l, err := logr.FromContext(ctx)
		if err != nil {
			l = logger
		}
		if rid, ok := reqid.FromContext(ctx); ok {
			l = l.WithValues("rid", rid)
		}
		return l
	}

	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			l := loggerFor(ctx).WithValues("method", e.Request.Method, "path", e.Request.URL.Path, "status", e.Status, "duration", e.Duration)
			if e.Status >= 500 {
				l.Error(nil, "http request failed")
				return
			}
			l.V(1).Info("http request")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			l := loggerFor(ctx).WithValues("operation", e.OperationName, "type", e.OperationType, "duration", e.Duration)
			if len(e.Errors) > 0 {
				l.Error(e.Errors[0], "graphql operation returned errors", "errors", len(e.Errors))
				return
			}
			l.V(1).Info("graphql operation")
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.UpstreamFinish) {
			l := loggerFor(ctx).WithValues("backend", e.Backend, "operation", e.Operation, "target", e.Target, "duration", e.Duration)
			if e.Status != 0 {
				l = l.WithValues("status", e.Status)
			}
			if e.Err != nil {
				l.Error(e.Err, "upstream call failed")
				return
			}
			l.V(1).Info("upstream call")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
