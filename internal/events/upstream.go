package events

import "time"

// UpstreamStart is emitted before a data source call. ID is unique per call
// and is repeated on the matching UpstreamFinish.
type UpstreamStart struct {
	ID        uint64
	Backend   string
	Operation string
	Target    string
}

// UpstreamFinish is emitted after a data source call completes. Status is the
// HTTP status for REST calls and zero otherwise.
type UpstreamFinish struct {
	ID        uint64
	Backend   string
	Operation string
	Target    string
	Status    int
	Err       error
	Duration  time.Duration
}
