package relay

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBroker(t *testing.T) *Broker {
	t.Helper()
	b, err := Listen("127.0.0.1:0", zerolog.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, b.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- b.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, b.Close())
		require.NoError(t, <-served)
	})
	return b
}

func TestBrokerPublishSubscribe(t *testing.T) {
	b := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := Dial(ctx, b.Addr(), "listener", zerolog.Nop())
	require.NoError(t, err)
	defer sub.Close()
	pub, err := Dial(ctx, b.Addr(), "", zerolog.Nop())
	require.NoError(t, err)
	defer pub.Close()
	assert.NotEmpty(t, pub.ID())

	msgs, err := sub.Subscribe(ctx, "suhu/secure")
	require.NoError(t, err)
	require.Equal(t, 1, b.Subscribers("suhu/secure"))

	sent, err := pub.Publish(ctx, "suhu/secure", "PwrIYw==")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)

	select {
	case m := <-msgs:
		assert.Equal(t, sent, m)
	case <-ctx.Done():
		t.Fatal("no delivery")
	}

	// Other topics are not forwarded.
	_, err = pub.Publish(ctx, "elsewhere", "x")
	require.NoError(t, err)
	select {
	case m := <-msgs:
		t.Fatalf("unexpected delivery: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBrokerLargePayload(t *testing.T) {
	b := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, b.Addr(), "loop", zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	msgs, err := c.Subscribe(ctx, "bulk")
	require.NoError(t, err)

	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = "ABCD"[i%4]
	}
	_, err = c.Publish(ctx, "bulk", string(payload))
	require.NoError(t, err)

	m := <-msgs
	assert.Equal(t, string(payload), m.Payload)
}

func TestBrokerDropsClosedClients(t *testing.T) {
	b := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, b.Addr(), "gone", zerolog.Nop())
	require.NoError(t, err)
	_, err = c.Subscribe(ctx, "t")
	require.NoError(t, err)
	require.Equal(t, 1, b.Subscribers("t"))

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return b.Subscribers("t") == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err = c.Publish(ctx, "t", "x")
	assert.Error(t, err)
}

func TestClientRejectsEmptyTopic(t *testing.T) {
	b := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, b.Addr(), "x", zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Publish(ctx, "", "x")
	assert.ErrorIs(t, err, ErrEmptyTopic)
	_, err = c.Subscribe(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyTopic)
}

func TestRejectedSubscribeLeavesNoLocalSubscription(t *testing.T) {
	b := startBroker(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, b.Addr(), "x", zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.Subscribe(ctx, "suhu/#")
	require.ErrorIs(t, err, ErrRejected)
	assert.Nil(t, ch)
	assert.Zero(t, c.hub.Subscribers("suhu/#"))
	assert.Zero(t, b.Subscribers("suhu/#"))

	// The connection survives the rejection.
	ch, err = c.Subscribe(ctx, "suhu")
	require.NoError(t, err)
	_, err = c.Publish(ctx, "suhu", "x")
	require.NoError(t, err)
	select {
	case m := <-ch:
		assert.Equal(t, "x", m.Payload)
	case <-ctx.Done():
		t.Fatal("no delivery after rejected subscribe")
	}
}
