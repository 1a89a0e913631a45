// Package memory is an in-process relay transport.
// It is useful for tests, examples and single-process deployments.
package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/TheusHen/lwcfb/lwcfb/relay"
)

// Bus delivers published messages to subscribers in the same process.
type Bus struct {
	hub *relay.Hub
}

var _ relay.Transport = (*Bus)(nil)

func New() *Bus {
	return &Bus{hub: relay.NewHub(relay.DefaultBuffer)}
}

func (b *Bus) Publish(ctx context.Context, topic, payload string) (relay.Message, error) {
	if topic == "" {
		return relay.Message{}, relay.ErrEmptyTopic
	}
	m := relay.Message{ID: uuid.NewString(), Topic: topic, Payload: payload}
	if _, err := b.hub.Deliver(ctx, m); err != nil {
		return relay.Message{}, err
	}
	return m, nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan relay.Message, error) {
	return b.hub.Subscribe(ctx, topic)
}

// Subscribers reports the number of live subscriptions on topic.
func (b *Bus) Subscribers(topic string) int { return b.hub.Subscribers(topic) }

func (b *Bus) Close() error {
	b.hub.Close()
	return nil
}
