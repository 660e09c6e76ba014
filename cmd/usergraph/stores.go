package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/badgerstore"
	"github.com/hanpama/usergraph/internal/store/grpcstore"
	"github.com/hanpama/usergraph/internal/store/httpstore"
	"github.com/hanpama/usergraph/internal/store/memstore"
)

const (
	backendMemory = "memory"
	backendHTTP   = "http"
	backendBadger = "badger"
	backendGRPC   = "grpc"
)

func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("store.backend", backendMemory, "record store: memory, http, badger or grpc")
	fs.String("store.url", "http://localhost:3000", "base URL of the REST record service (http)")
	fs.String("store.dir", "./data", "database directory (badger)")
	fs.StringSlice("store.grpc-addr", []string{"localhost:50051"}, "record service endpoints (grpc). Repeatable")
	fs.Int("store.grpc-max-conns", 2, "max connections per endpoint (grpc)")
	fs.Duration("store.rpc-timeout", 3*time.Second, "per-call timeout (grpc)")
	fs.Bool("store.seed", true, "load the sample users and companies into an empty store (memory, badger)")
	fs.Int64("store.cache-size", 0, "cache up to this many records read by id; 0 disables the cache")
}

// openStore builds the configured backend, wrapped with instrumentation and
// the optional read-through cache. The returned store must be closed with
// store.Close.
func openStore(ctx context.Context, v *viper.Viper, logger *zap.Logger) (store.Store, error) {
	backend := v.GetString("store.backend")
	var s store.Store
	switch backend {
	case backendMemory:
		if v.GetBool("store.seed") {
			s = memstore.Seeded()
		} else {
			s = memstore.New()
		}
	case backendHTTP:
		c, err := httpstore.New(v.GetString("store.url"))
		if err != nil {
			return nil, err
		}
		s = c
	case backendBadger:
		db, err := badgerstore.Open(badgerstore.Options{Dir: v.GetString("store.dir"), Logger: logger})
		if err != nil {
			return nil, err
		}
		if v.GetBool("store.seed") {
			if err := seed(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		s = db
	case backendGRPC:
		addrs := v.GetStringSlice("store.grpc-addr")
		if len(addrs) == 0 {
			return nil, errors.New("store.grpc-addr is required for the grpc backend")
		}
		s = grpcstore.NewClient(
			grpcstore.WithProvider(grpcstore.NewStaticEndpoints(map[string][]string{grpcstore.ServiceName: addrs})),
			grpcstore.WithMaxConnsPerEndpoint(v.GetInt("store.grpc-max-conns")),
			grpcstore.WithRPCTimeout(v.GetDuration("store.rpc-timeout")),
		)
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}

	s = store.Instrument(s, backend)
	if n := v.GetInt64("store.cache-size"); n > 0 {
		c, err := store.NewCache(s, n)
		if err != nil {
			_ = store.Close(s)
			return nil, err
		}
		s = c
	}
	logger.Info("record store ready", zap.String("backend", backend), zap.Int64("cache_size", v.GetInt64("store.cache-size")))
	return s, nil
}

// seed loads the sample records into every collection that is still empty.
func seed(ctx context.Context, s store.Store) error {
	for _, coll := range []string{store.Companies, store.Users} {
		existing, err := s.List(ctx, coll, nil)
		if err != nil {
			return errors.Wrapf(err, "seed %s", coll)
		}
		if len(existing) > 0 {
			continue
		}
		for _, rec := range memstore.SeedData()[coll] {
			if _, err := s.Create(ctx, coll, rec); err != nil {
				return errors.Wrapf(err, "seed %s", coll)
			}
		}
	}
	return nil
}
