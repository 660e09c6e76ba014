// Package memstore is an in-memory store.Store keeping records in insertion
// order.
package memstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/hanpama/usergraph/internal/store"
)

type collection struct {
	order []string
	byID  map[string]store.Record
}

// Store is an in-memory record store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Seeded returns a store holding the sample users and companies.
func Seeded() *Store {
	s := New()
	for name, recs := range SeedData() {
		for _, r := range recs {
			if _, err := s.Create(context.Background(), name, r); err != nil {
				panic(err)
			}
		}
	}
	return s
}

// SeedData returns the sample users and companies.
func SeedData() map[string][]store.Record {
	return map[string][]store.Record{
		store.Users: {
			{"id": "23", "firstName": "Bill", "age": 20, "companyId": "1"},
			{"id": "40", "firstName": "Alex", "age": 40, "companyId": "2"},
			{"id": "41", "firstName": "Nick", "age": 40, "companyId": "2"},
		},
		store.Companies: {
			{"id": "1", "name": "Apple", "description": "iphone"},
			{"id": "2", "name": "Google", "description": "search"},
		},
	}
}

func (s *Store) coll(name string) *collection {
	c := s.collections[name]
	if c == nil {
		c = &collection{byID: make(map[string]store.Record)}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Find(ctx context.Context, name, id string) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[name]
	if c == nil || c.byID[id] == nil {
		return nil, errors.Wrapf(store.ErrNotFound, "%s/%s", name, id)
	}
	return c.byID[id].Clone(), nil
}

func (s *Store) List(ctx context.Context, name string, filter store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []store.Record{}
	c := s.collections[name]
	if c == nil {
		return out, nil
	}
	for _, id := range c.order {
		if r := c.byID[id]; store.Matches(r, filter) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, name string, rec store.Record) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := store.Prepare(rec)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	if _, ok := c.byID[r.ID()]; ok {
		return nil, errors.Wrapf(store.ErrExists, "%s/%s", name, r.ID())
	}
	c.byID[r.ID()] = r
	c.order = append(c.order, r.ID())
	return r.Clone(), nil
}

func (s *Store) Update(ctx context.Context, name, id string, patch store.Record) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[name]
	if c == nil || c.byID[id] == nil {
		return nil, errors.Wrapf(store.ErrNotFound, "%s/%s", name, id)
	}
	r, err := store.Merge(c.byID[id], patch)
	if err != nil {
		return nil, err
	}
	c.byID[id] = r
	return r.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, name, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[name]
	if c == nil || c.byID[id] == nil {
		return "", errors.Wrapf(store.ErrNotFound, "%s/%s", name, id)
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return id, nil
}
