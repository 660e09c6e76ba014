package store

import (
	"context"
	"time"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
)

// Instrument wraps s so that every call publishes StoreCallStart and
// StoreCallFinish events tagged with backend.
func Instrument(s Store, backend string) Store {
	return &instrumented{next: s, backend: backend}
}

type instrumented struct {
	next    Store
	backend string
}

func (i *instrumented) observe(ctx context.Context, op, collection, id string) func(error) {
	start := time.Now()
	eventbus.Publish(ctx, events.StoreCallStart{Backend: i.backend, Op: op, Collection: collection, ID: id})
	return func(err error) {
		eventbus.Publish(ctx, events.StoreCallFinish{
			Backend:    i.backend,
			Op:         op,
			Collection: collection,
			ID:         id,
			Err:        err,
			Duration:   time.Since(start),
		})
	}
}

func (i *instrumented) Find(ctx context.Context, collection, id string) (Record, error) {
	done := i.observe(ctx, "find", collection, id)
	rec, err := i.next.Find(ctx, collection, id)
	done(err)
	return rec, err
}

func (i *instrumented) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	done := i.observe(ctx, "list", collection, "")
	recs, err := i.next.List(ctx, collection, filter)
	done(err)
	return recs, err
}

func (i *instrumented) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	done := i.observe(ctx, "create", collection, rec.ID())
	out, err := i.next.Create(ctx, collection, rec)
	done(err)
	return out, err
}

func (i *instrumented) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	done := i.observe(ctx, "update", collection, id)
	out, err := i.next.Update(ctx, collection, id, patch)
	done(err)
	return out, err
}

func (i *instrumented) Delete(ctx context.Context, collection, id string) (string, error) {
	done := i.observe(ctx, "delete", collection, id)
	out, err := i.next.Delete(ctx, collection, id)
	done(err)
	return out, err
}

func (i *instrumented) Close() error { return Close(i.next) }
