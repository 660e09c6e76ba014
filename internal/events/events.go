// Package events declares the values published on the eventbus. Every event
// is published with the context of the request it belongs to, so
// subscribers can correlate them through reqid.
package events

import (
	"net/http"
	"time"

	"google.golang.org/grpc/codes"
)

// HTTPStart is published when the GraphQL endpoint receives a request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is published once the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is published before one operation of a request executes.
// Batched requests publish one pair per operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	// Errors holds the field and request errors of the response.
	Errors   []error
	Duration time.Duration
}

// GRPCClientStart is published before a call to the record service.
type GRPCClientStart struct {
	Service    string
	Method     string
	Collection string
	Target     string
}

type GRPCClientFinish struct {
	Service    string
	Method     string
	Collection string
	Target     string
	Code       codes.Code
	Err        error
	Duration   time.Duration
}
