// Package store defines the record store the GraphQL resolvers read from and
// write to, along with decorators shared by every backend.
//
// Records are JSON-shaped: numbers are float64, nested values are
// map[string]any and []any. Every backend returns records in that form so
// that resolvers behave the same whichever store is configured.
package store

import (
	"context"
	"io"
	"reflect"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Collections served by the usergraph schema.
const (
	Users     = "users"
	Companies = "companies"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned by Create when the record id is already taken.
	ErrExists = errors.New("record already exists")
)

// Record is a single stored entity. The "id" key holds its string identifier.
type Record map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter selects records whose fields equal the given values. An empty
// filter matches everything.
type Filter map[string]any

// Store is the downstream collaborator behind the GraphQL resolvers.
// Implementations must be safe for concurrent use.
type Store interface {
	// Find returns the record with id, or ErrNotFound.
	Find(ctx context.Context, collection, id string) (Record, error)
	// List returns the records matching filter in insertion order.
	List(ctx context.Context, collection string, filter Filter) ([]Record, error)
	// Create stores rec, assigning an id when it has none, and returns the
	// stored record.
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	// Update merges patch into the record with id and returns the result.
	Update(ctx context.Context, collection, id string, patch Record) (Record, error)
	// Delete removes the record with id and returns that id.
	Delete(ctx context.Context, collection, id string) (string, error)
}

// Close releases s when it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewID returns a fresh record identifier.
func NewID() string { return uuid.NewString() }

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Normalize converts r to its JSON-shaped form.
func Normalize(r Record) (Record, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "normalize record")
	}
	return Decode(b)
}

// Encode serializes r as JSON.
func Encode(r Record) ([]byte, error) {
	b, err := json.Marshal(r)
	return b, errors.Wrap(err, "encode record")
}

// Decode parses a JSON object into a Record.
func Decode(b []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	return r, nil
}

// Matches reports whether r satisfies filter.
func Matches(r Record, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	nf, err := Normalize(Record(filter))
	if err != nil {
		return false
	}
	for k, want := range nf {
		if !reflect.DeepEqual(r[k], want) {
			return false
		}
	}
	return true
}

// Prepare normalizes rec for Create and assigns an id when missing.
func Prepare(rec Record) (Record, error) {
	out, err := Normalize(rec)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = Record{}
	}
	if out.ID() == "" {
		out["id"] = NewID()
	}
	return out, nil
}

// Merge returns a copy of r with patch applied. The id is never changed.
func Merge(r, patch Record) (Record, error) {
	np, err := Normalize(patch)
	if err != nil {
		return nil, err
	}
	out := r.Clone()
	for k, v := range np {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out, nil
}
