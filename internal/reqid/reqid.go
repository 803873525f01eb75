// Package reqid carries the request id through a context.
package reqid

import (
	"context"
	"math/rand/v2"
)

type key struct{}

// NewContext returns a copy of parent carrying a new random, non-zero
// request ID. It also returns the ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int64N(1<<63-1) + 1
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
