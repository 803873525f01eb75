package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{ N int }

func TestBusDispatchesByType(t *testing.T) {
	b := New()
	var pings, pongs []int
	SubscribeTo(b, func(_ context.Context, e ping) { pings = append(pings, e.N) })
	SubscribeTo(b, func(_ context.Context, e pong) { pongs = append(pongs, e.N) })

	PublishTo(context.Background(), b, ping{1})
	PublishTo(context.Background(), b, pong{2})
	PublishTo(context.Background(), b, ping{3})

	require.Equal(t, []int{1, 3}, pings)
	require.Equal(t, []int{2}, pongs)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	b := New()
	var got []string
	unsubA := SubscribeTo(b, func(_ context.Context, e ping) { got = append(got, "a") })
	SubscribeTo(b, func(_ context.Context, e ping) { got = append(got, "b") })

	unsubA()
	unsubA()
	PublishTo(context.Background(), b, ping{})

	require.Equal(t, []string{"b"}, got)
}

func TestGlobalBus(t *testing.T) {
	Use(nil)
	Publish(context.Background(), ping{})
	unsub := Subscribe(func(context.Context, ping) { t.Fatal("no bus installed") })
	unsub()

	b := New()
	Use(b)
	t.Cleanup(func() { Use(nil) })

	var n int
	Subscribe(func(_ context.Context, e ping) { n += e.N })
	Publish(context.Background(), ping{N: 5})
	require.Equal(t, 5, n)
}
