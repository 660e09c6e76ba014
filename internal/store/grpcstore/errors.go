package grpcstore

import "github.com/pkg/errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints for a service.
	ErrNoEndpoints = errors.New("grpcstore: no endpoints available")
	// ErrClosed is returned by calls on a closed Client.
	ErrClosed = errors.New("grpcstore: client closed")
)
