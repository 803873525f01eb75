// Package datasources carries the per-request data access objects in a
// context.Context.
package datasources

import (
	"context"
	"errors"
	"reflect"

	trackapi "github.com/hanpama/catstronauts/internal/trackapi"
)

// ErrMissingTrackAPI is returned by New when no TrackAPI is given.
var ErrMissingTrackAPI = errors.New("datasources: track API is required")

// DataSources is the capability bag resolvers read from the request context.
type DataSources struct {
	TrackAPI trackapi.TrackAPI
}

// New fails with ErrMissingTrackAPI when trackAPI is nil, including a nil
// pointer wrapped in the interface.
func New(trackAPI trackapi.TrackAPI) (*DataSources, error) {
	if isNil(trackAPI) {
		return nil, ErrMissingTrackAPI
	}
	return &DataSources{TrackAPI: trackAPI}, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying ds.
func NewContext(ctx context.Context, ds *DataSources) context.Context {
	return context.WithValue(ctx, contextKey{}, ds)
}

func FromContext(ctx context.Context) (*DataSources, bool) {
	ds, ok := ctx.Value(contextKey{}).(*DataSources)
	return ds, ok && ds != nil
}

// MustFromContext is like FromContext but panics when ctx carries no data
// sources.
func MustFromContext(ctx context.Context) *DataSources {
	ds, ok := FromContext(ctx)
	if !ok {
		panic("datasources: no data sources in context; wrap the request context with datasources.NewContext")
	}
	return ds
}
