// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/usergraph/internal/store"
)

// Run exercises s against the store contract. open must return an empty
// store; it is called once per subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	seed := func(t *testing.T, s store.Store) {
		t.Helper()
		for _, r := range []store.Record{
			{"id": "23", "firstName": "Bill", "age": 20, "companyId": "1"},
			{"id": "40", "firstName": "Alex", "age": 40, "companyId": "2"},
			{"id": "41", "firstName": "Nick", "age": 40, "companyId": "2"},
		} {
			_, err := s.Create(ctx, store.Users, r)
			require.NoError(t, err)
		}
	}

	t.Run("find", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Find(ctx, store.Users, "23")
		require.NoError(t, err)
		// Pattern: Result comparison
		want := store.Record{"id": "23", "firstName": "Bill", "age": float64(20), "companyId": "1"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("find missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Find(ctx, store.Users, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		all, err := s.List(ctx, store.Users, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"23", "40", "41"}, ids(all))

		byCompany, err := s.List(ctx, store.Users, store.Filter{"companyId": "2"})
		require.NoError(t, err)
		require.Equal(t, []string{"40", "41"}, ids(byCompany))

		byAge, err := s.List(ctx, store.Users, store.Filter{"age": 20})
		require.NoError(t, err)
		require.Equal(t, []string{"23"}, ids(byAge))

		empty, err := s.List(ctx, store.Companies, nil)
		require.NoError(t, err)
		require.Empty(t, empty)
	})

	t.Run("create assigns id", func(t *testing.T) {
		s := open(t)
		created, err := s.Create(ctx, store.Users, store.Record{"firstName": "Ann", "age": 30})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID())
		require.Equal(t, float64(30), created["age"])

		found, err := s.Find(ctx, store.Users, created.ID())
		require.NoError(t, err)
		require.Equal(t, created, found)
	})

	t.Run("create duplicate", func(t *testing.T) {
		s := open(t)
		seed(t, s)
		_, err := s.Create(ctx, store.Users, store.Record{"id": "23", "firstName": "Other"})
		require.ErrorIs(t, err, store.ErrExists)
	})

	t.Run("update merges patch", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		got, err := s.Update(ctx, store.Users, "40", store.Record{"age": 41, "id": "ignored"})
		require.NoError(t, err)
		want := store.Record{"id": "40", "firstName": "Alex", "age": float64(41), "companyId": "2"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("record mismatch (-want +got):\n%s", diff)
		}

		found, err := s.Find(ctx, store.Users, "40")
		require.NoError(t, err)
		require.Equal(t, want, found)
	})

	t.Run("update missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Update(ctx, store.Users, "missing", store.Record{"age": 1})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		seed(t, s)

		id, err := s.Delete(ctx, store.Users, "40")
		require.NoError(t, err)
		require.Equal(t, "40", id)

		_, err = s.Find(ctx, store.Users, "40")
		require.ErrorIs(t, err, store.ErrNotFound)

		rest, err := s.List(ctx, store.Users, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"23", "41"}, ids(rest))

		_, err = s.Delete(ctx, store.Users, "40")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Find(cctx, store.Users, "23")
		require.Error(t, err)
		_, err = s.Create(cctx, store.Users, store.Record{"firstName": "Ann"})
		require.Error(t, err)
	})
}

func ids(recs []store.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}
