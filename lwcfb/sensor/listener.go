package sensor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/TheusHen/lwcfb/lwcfb/relay"
	"github.com/TheusHen/lwcfb/lwcfb/session"
)

// Reading is one successfully decoded message.
type Reading struct {
	ID      string
	Topic   string
	Encoded string
	Value   string
}

// Listener decodes every message on a topic. Each message is handled on its own; a
// message that fails to decode is logged and skipped.
type Listener struct {
	session *session.Session
	sub     relay.Subscriber
	topic   string
	logger  zerolog.Logger

	// OnReading, if set, is called for each decoded reading.
	OnReading func(Reading)
	// OnError, if set, is called for each message that fails to decode.
	OnError func(relay.Message, error)
}

func NewListener(s *session.Session, sub relay.Subscriber, topic string, logger zerolog.Logger) *Listener {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Listener{
		session: s,
		sub:     sub,
		topic:   topic,
		logger:  logger.With().Str("component", "listener").Str("topic", topic).Logger(),
	}
}

func (l *Listener) Topic() string { return l.topic }

// Run subscribes and consumes until ctx is done or the subscription ends.
func (l *Listener) Run(ctx context.Context) error {
	ch, err := l.sub.Subscribe(ctx, l.topic)
	if err != nil {
		return err
	}
	return l.Consume(ctx, ch)
}

// Consume handles messages from an existing subscription. It returns nil when ctx is
// done and relay.ErrClosed if the channel closes first.
func (l *Listener) Consume(ctx context.Context, ch <-chan relay.Message) error {
	l.logger.Info().Msg("waiting for readings")
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return relay.ErrClosed
			}
			l.handle(m)
		}
	}
}

func (l *Listener) handle(m relay.Message) {
	log := l.logger.With().Str("id", m.ID).Str("encoded", m.Payload).Logger()
	value, err := l.session.Decode(m.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("decode failed")
		if l.OnError != nil {
			l.OnError(m, err)
		}
		return
	}
	log.Info().Str("reading", value).Msg("reading decrypted")
	if l.OnReading != nil {
		l.OnReading(Reading{ID: m.ID, Topic: m.Topic, Encoded: m.Payload, Value: value})
	}
}
