package grpcstore

import (
	"context"
	"sync"
)

// EndpointProvider lists reachable endpoints (host:port) for a fully-qualified
// gRPC service name such as "usergraph.RecordService".
// Implementations must be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints is a provider backed by a fixed map of service name to
// endpoints.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	cp := make(map[string][]string, len(m))
	for k, v := range m {
		cp[k] = append([]string(nil), v...)
	}
	return &StaticEndpoints{data: cp}
}

// SingleEndpoint serves the record service from one address.
func SingleEndpoint(addr string) *StaticEndpoints {
	return NewStaticEndpoints(map[string][]string{ServiceName: {addr}})
}

func (s *StaticEndpoints) Endpoints(ctx context.Context, service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[service]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	return append([]string(nil), arr...), nil
}
