// Package trackapi is the data access layer for tracks and their authors.
package trackapi

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	eventbus "github.com/hanpama/catstronauts/internal/eventbus"
	events "github.com/hanpama/catstronauts/internal/events"
)

// TrackAPI fetches catalogue records. A nil record with a nil error means
// the record does not exist.
type TrackAPI interface {
	// GetTracksForHome returns the tracks shown on the homepage grid, in
	// display order.
	GetTracksForHome(ctx context.Context) ([]*Track, error)
	GetAuthor(ctx context.Context, authorID string) (*Author, error)
}

// Track is a group of modules that teaches about a specific topic.
type Track struct {
	ID           string `json:"id" bson:"_id" yaml:"id"`
	Title        string `json:"title" bson:"title" yaml:"title"`
	AuthorID     string `json:"authorId" bson:"authorId" yaml:"authorId"`
	Thumbnail    string `json:"thumbnail,omitempty" bson:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Length       *int   `json:"length,omitempty" bson:"length,omitempty" yaml:"length,omitempty"`
	ModulesCount *int   `json:"modulesCount,omitempty" bson:"modulesCount,omitempty" yaml:"modulesCount,omitempty"`
}

// Author wrote a complete track or a module.
type Author struct {
	ID    string `json:"id" bson:"_id" yaml:"id"`
	Name  string `json:"name" bson:"name" yaml:"name"`
	Photo string `json:"photo,omitempty" bson:"photo,omitempty" yaml:"photo,omitempty"`
}

// ErrNotFound matches a *StatusError for a 404 response.
var ErrNotFound = errors.New("trackapi: not found")

// StatusError is returned when the REST API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
	// Body holds the first bytes of the response body.
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trackapi: GET %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

var callSeq atomic.Uint64

// observe publishes UpstreamStart and returns a func that publishes the
// matching UpstreamFinish.
func observe(ctx context.Context, backend, operation, target string) func(status int, err error) {
	id := callSeq.Add(1)
	start := time.Now()
	eventbus.Publish(ctx, events.UpstreamStart{ID: id, Backend: backend, Operation: operation, Target: target})
	return func(status int, err error) {
		eventbus.Publish(ctx, events.UpstreamFinish{
			ID:        id,
			Backend:   backend,
			Operation: operation,
			Target:    target,
			Status:    status,
			Err:       err,
			Duration:  time.Since(start),
		})
	}
}
