// Package badgerstore keeps records in an embedded Badger database.
//
// Layout, per collection c:
//
//	r/c/<id>   -> 8-byte insertion sequence followed by the JSON record
//	o/c/<seq>  -> id, giving List its insertion order
package badgerstore

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/store"
)

const maxConflictRetries = 5

// Store is a store.Store on top of Badger.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ store.Store = (*Store)(nil)

// Options configures Open.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *zap.Logger
}

// Open opens (or creates) the database.
func Open(o Options) (*Store, error) {
	bo := badger.DefaultOptions(o.Dir)
	if o.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	}
	if o.Logger != nil {
		bo = bo.WithLogger(badgerLogger{o.Logger.Sugar()})
	} else {
		bo = bo.WithLogger(nil)
	}
	db, err := badger.Open(bo)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	seq, err := db.GetSequence([]byte("!seq"), 128)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "badger sequence")
	}
	return &Store{db: db, seq: seq}, nil
}

func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return errors.Wrap(err, "release sequence")
	}
	return errors.Wrap(s.db.Close(), "close badger")
}

func recordKey(collection, id string) []byte { return []byte("r/" + collection + "/" + id) }

func orderPrefix(collection string) []byte { return []byte("o/" + collection + "/") }

func orderKey(collection string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(orderPrefix(collection), seq)
}

func encodeValue(seq uint64, rec store.Record) ([]byte, error) {
	b, err := store.Encode(rec)
	if err != nil {
		return nil, err
	}
	return append(binary.BigEndian.AppendUint64(nil, seq), b...), nil
}

func decodeValue(v []byte) (uint64, store.Record, error) {
	if len(v) < 8 {
		return 0, nil, errors.New("corrupt record value")
	}
	rec, err := store.Decode(v[8:])
	return binary.BigEndian.Uint64(v[:8]), rec, err
}

func getRecord(txn *badger.Txn, collection, id string) (uint64, store.Record, error) {
	item, err := txn.Get(recordKey(collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil, errors.Wrapf(store.ErrNotFound, "%s/%s", collection, id)
	}
	if err != nil {
		return 0, nil, errors.Wrapf(err, "get %s/%s", collection, id)
	}
	var (
		seq uint64
		rec store.Record
	)
	err = item.Value(func(v []byte) error {
		var derr error
		seq, rec, derr = decodeValue(v)
		return derr
	})
	return seq, rec, err
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && i < maxConflictRetries {
			continue
		}
		return err
	}
}

func (s *Store) Find(ctx context.Context, collection, id string) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec store.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		_, rec, err = getRecord(txn, collection, id)
		return err
	})
	return rec, err
}

func (s *Store) List(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []store.Record{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: orderPrefix(collection)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			_, rec, err := getRecord(txn, collection, string(id))
			if err != nil {
				return err
			}
			if store.Matches(rec, filter) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	r, err := store.Prepare(rec)
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(collection, r.ID()))
		if err == nil {
			return errors.Wrapf(store.ErrExists, "%s/%s", collection, r.ID())
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		seq, err := s.seq.Next()
		if err != nil {
			return errors.Wrap(err, "next sequence")
		}
		v, err := encodeValue(seq, r)
		if err != nil {
			return err
		}
		if err := txn.Set(recordKey(collection, r.ID()), v); err != nil {
			return err
		}
		return txn.Set(orderKey(collection, seq), []byte(r.ID()))
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Record) (store.Record, error) {
	var out store.Record
	err := s.update(ctx, func(txn *badger.Txn) error {
		seq, rec, err := getRecord(txn, collection, id)
		if err != nil {
			return err
		}
		if out, err = store.Merge(rec, patch); err != nil {
			return err
		}
		v, err := encodeValue(seq, out)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(collection, id), v)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (string, error) {
	err := s.update(ctx, func(txn *badger.Txn) error {
		seq, _, err := getRecord(txn, collection, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(recordKey(collection, id)); err != nil {
			return err
		}
		return txn.Delete(orderKey(collection, seq))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// badgerLogger routes Badger's log output to zap.
type badgerLogger struct{ *zap.SugaredLogger }

func (l badgerLogger) Warningf(format string, args ...any) { l.Warnf(format, args...) }
