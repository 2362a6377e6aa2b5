package events

import "time"

// HTTPStart is emitted when a transport request is issued.
// Context carries the request ID.
type HTTPStart struct {
	Method string
	URL    string
	Upload bool
}

// HTTPFinish is emitted after the transport call settles.
type HTTPFinish struct {
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}
