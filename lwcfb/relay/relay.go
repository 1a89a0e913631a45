// Package relay carries encoded readings between producers and listeners by topic.
//
// Payloads are opaque strings. The relay never sees keys, and nothing here authenticates
// or deduplicates messages.
package relay

import (
	"context"
	"errors"
)

var (
	ErrClosed     = errors.New("relay: closed")
	ErrEmptyTopic = errors.New("relay: empty topic")
	ErrRejected   = errors.New("relay: rejected by broker")
)

// Message is one published payload.
type Message struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

type Publisher interface {
	// Publish sends payload to every current subscriber of topic and returns the
	// message as sent, with its assigned ID.
	Publish(ctx context.Context, topic, payload string) (Message, error)
}

type Subscriber interface {
	// Subscribe returns a channel of messages for topic. The channel is closed when
	// ctx is done or the transport is closed.
	Subscribe(ctx context.Context, topic string) (<-chan Message, error)
}

// Transport is a Publisher and Subscriber that owns a connection or bus.
type Transport interface {
	Publisher
	Subscriber
	Close() error
}
