package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/TheusHen/lwcfb/lwcfb/relay"
	"github.com/TheusHen/lwcfb/lwcfb/session"
)

// DefaultTopic carries encoded temperature readings.
const DefaultTopic = "suhu/secure"

var ErrPublish = errors.New("sensor: publish failed")

// Submission is what a Producer sent for one reading.
type Submission struct {
	ID      string `json:"id"`
	Reading string `json:"reading"`
	Encoded string `json:"encoded"`
	Topic   string `json:"topic"`
}

type Producer struct {
	session *session.Session
	pub     relay.Publisher
	topic   string
	logger  zerolog.Logger
}

func NewProducer(s *session.Session, pub relay.Publisher, topic string, logger zerolog.Logger) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{
		session: s,
		pub:     pub,
		topic:   topic,
		logger:  logger.With().Str("component", "producer").Str("topic", topic).Logger(),
	}
}

func (p *Producer) Topic() string { return p.topic }

// Submit canonicalizes raw, encodes it and publishes the result. Invalid input is
// reported as *InvalidInputError and never reaches the cipher.
func (p *Producer) Submit(ctx context.Context, raw string) (Submission, error) {
	reading, err := ParseReading(raw)
	if err != nil {
		return Submission{}, err
	}
	encoded := p.session.Encode(reading)
	p.logger.Info().Str("reading", reading).Str("encoded", encoded).Msg("reading encrypted")

	m, err := p.pub.Publish(ctx, p.topic, encoded)
	if err != nil {
		p.logger.Error().Err(err).Msg("publish failed")
		return Submission{}, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return Submission{ID: m.ID, Reading: reading, Encoded: encoded, Topic: p.topic}, nil
}
