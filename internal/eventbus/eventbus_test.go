package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	defer Use(nil)

	var got []string
	unA := Subscribe(func(ctx context.Context, e ping) { got = append(got, "a") })
	unB := Subscribe(func(ctx context.Context, e ping) { got = append(got, "b") })
	defer unB()
	Subscribe(func(ctx context.Context, e pong) { got = append(got, "pong") })

	Publish(context.Background(), ping{1})
	require.Equal(t, []string{"a", "b"}, got)

	unA()
	got = nil
	Publish(context.Background(), ping{2})
	Publish(context.Background(), pong{})
	require.Equal(t, []string{"b", "pong"}, got)
}

func TestNoGlobalBus(t *testing.T) {
	Use(nil)
	called := false
	unsubscribe := Subscribe(func(ctx context.Context, e ping) { called = true })
	Publish(context.Background(), ping{})
	unsubscribe()
	require.False(t, called)
}
