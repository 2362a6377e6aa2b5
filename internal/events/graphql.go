package events

import "time"

// GraphQLStart is emitted before a composed operation is sent.
type GraphQLStart struct {
	OperationType string
	Document      string
	QueryNames    []string
}

// GraphQLFinish is emitted after the response has been dispatched.
type GraphQLFinish struct {
	OperationType string
	QueryNames    []string
	Errors        []error
	Duration      time.Duration
}
