package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestSeeded(t *testing.T) {
	s := Seeded()
	users, err := s.List(context.Background(), store.Users, store.Filter{"companyId": "2"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Alex", users[0]["firstName"])

	apple, err := s.Find(context.Background(), store.Companies, "1")
	require.NoError(t, err)
	require.Equal(t, "iphone", apple["description"])
}

func TestFindReturnsCopy(t *testing.T) {
	s := Seeded()
	r, err := s.Find(context.Background(), store.Users, "23")
	require.NoError(t, err)
	r["firstName"] = "changed"

	again, err := s.Find(context.Background(), store.Users, "23")
	require.NoError(t, err)
	require.Equal(t, "Bill", again["firstName"])
}
