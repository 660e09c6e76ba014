// Package reqid carries a per-request identifier through contexts, HTTP
// headers and gRPC metadata.
package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the HTTP header (and lowercased gRPC metadata key) holding the ID.
const Header = "X-Request-Id"

// maxLen bounds IDs accepted from clients.
const maxLen = 128

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with a new random request ID stored.
// It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}

// FromRequest stores the ID sent by the client in the request context, or a
// fresh one when the header is missing or too long.
func FromRequest(r *http.Request) (context.Context, string) {
	if id := r.Header.Get(Header); id != "" && len(id) <= maxLen {
		return WithID(r.Context(), id), id
	}
	return NewContext(r.Context())
}
