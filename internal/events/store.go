package events

import "time"

// StoreCallStart is emitted before a record store operation.
type StoreCallStart struct {
	Backend    string
	Op         string
	Collection string
	ID         string
}

// StoreCallFinish is emitted after a record store operation completes.
type StoreCallFinish struct {
	Backend    string
	Op         string
	Collection string
	ID         string
	Err        error
	Duration   time.Duration
}
