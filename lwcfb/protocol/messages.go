package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingClientID = errors.New("protocol: connect missing client_id")
	ErrMissingTopic    = errors.New("protocol: missing topic")
	ErrMissingID       = errors.New("protocol: missing message id")
	ErrInvalidTopic    = errors.New("protocol: topic contains a wildcard")
)

// validTopic rejects the empty topic and the MQTT wildcards '+' and '#'.
// Topics match exactly, so a wildcard would never receive anything.
func validTopic(topic string) error {
	if topic == "" {
		return ErrMissingTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return ErrInvalidTopic
	}
	return nil
}

// Connect opens a relay session on the control stream.
type Connect struct {
	ClientID     string `json:"client_id"`
	TimestampSec int64  `json:"timestamp_sec"`
}

func NewConnect(clientID string) Connect {
	return Connect{ClientID: clientID, TimestampSec: time.Now().Unix()}
}

func (c Connect) Validate() error {
	if c.ClientID == "" {
		return ErrMissingClientID
	}
	return nil
}

// Subscribe registers interest in a topic. ID correlates the broker's Ack.
type Subscribe struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
}

func (s Subscribe) Validate() error {
	if s.ID == "" {
		return ErrMissingID
	}
	return validTopic(s.Topic)
}

// Publish carries one opaque payload for a topic.
type Publish struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

func (p Publish) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	return validTopic(p.Topic)
}

// Deliver is a Publish forwarded by the broker to a subscriber.
type Deliver struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
	From    string `json:"from,omitempty"`
}

// Ack answers Connect, Subscribe and Publish. Error is empty on success.
type Ack struct {
	ID         string `json:"id,omitempty"`
	Error      string `json:"error,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
}

// Encode marshals v as the payload of a frame of type t.
func Encode(t MessageType, v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Payload: b}, nil
}

// Decode unmarshals a frame payload into a value of type T.
func Decode[T any](f Frame) (T, error) {
	var v T
	if err := json.Unmarshal(f.Payload, &v); err != nil {
		return v, err
	}
	return v, nil
}
