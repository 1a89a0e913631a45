package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	q "github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/TheusHen/lwcfb/lwcfb/protocol"
	"github.com/TheusHen/lwcfb/lwcfb/transport/quic"
)

// Client is a QUIC relay transport connected to a Broker.
type Client struct {
	id      string
	conn    q.Connection
	control q.Stream
	logger  zerolog.Logger

	wmu sync.Mutex

	pmu     sync.Mutex
	pending map[string]chan protocol.Ack

	hub *Hub

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

var _ Transport = (*Client)(nil)

// Dial connects to the broker at addr. An empty clientID is replaced by a random one.
func Dial(ctx context.Context, addr, clientID string, logger zerolog.Logger) (*Client, error) {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	conn, err := quic.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	control, err := handshakeClient(ctx, conn, clientID)
	if err != nil {
		_ = conn.CloseWithError(CodeProtocol, "handshake failed")
		return nil, err
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:      clientID,
		conn:    conn,
		control: control,
		logger:  logger.With().Str("component", "relay-client").Str("client_id", clientID).Logger(),
		pending: map[string]chan protocol.Ack{},
		hub:     NewHub(DefaultBuffer),
		ctx:     cctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) ID() string { return c.id }

func (c *Client) send(f protocol.Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return protocol.WriteFrame(c.control, f)
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.hub.Close()
	for {
		frame, err := protocol.ReadFrame(c.control)
		if err != nil {
			c.err = err
			if c.ctx.Err() == nil && !isClosedConn(err) {
				c.logger.Warn().Err(err).Msg("relay connection lost")
			}
			return
		}
		switch frame.Type {
		case protocol.MessageTypeAck:
			ack, err := protocol.Decode[protocol.Ack](frame)
			if err != nil {
				c.logger.Debug().Err(err).Msg("bad ack")
				continue
			}
			c.pmu.Lock()
			ch, ok := c.pending[ack.ID]
			delete(c.pending, ack.ID)
			c.pmu.Unlock()
			if ok {
				ch <- ack
			}
		case protocol.MessageTypeDeliver:
			d, err := protocol.Decode[protocol.Deliver](frame)
			if err != nil {
				c.logger.Debug().Err(err).Msg("bad deliver")
				continue
			}
			if _, err := c.hub.Deliver(c.ctx, Message{ID: d.ID, Topic: d.Topic, Payload: d.Payload}); err != nil {
				return
			}
		default:
			c.logger.Debug().Stringer("type", frame.Type).Msg("ignoring frame")
		}
	}
}

// request sends f and waits for the broker's Ack carrying id.
func (c *Client) request(ctx context.Context, id string, f protocol.Frame) (protocol.Ack, error) {
	ch := make(chan protocol.Ack, 1)
	c.pmu.Lock()
	c.pending[id] = ch
	c.pmu.Unlock()
	release := func() {
		c.pmu.Lock()
		delete(c.pending, id)
		c.pmu.Unlock()
	}

	if err := c.send(f); err != nil {
		release()
		return protocol.Ack{}, err
	}
	select {
	case ack := <-ch:
		if ack.Error != "" {
			return ack, fmt.Errorf("%w: %s", ErrRejected, ack.Error)
		}
		return ack, nil
	case <-ctx.Done():
		release()
		return protocol.Ack{}, ctx.Err()
	case <-c.done:
		release()
		return protocol.Ack{}, ErrClosed
	}
}

// Publish sends payload to topic and waits until the broker has forwarded it.
func (c *Client) Publish(ctx context.Context, topic, payload string) (Message, error) {
	if topic == "" {
		return Message{}, ErrEmptyTopic
	}
	m := Message{ID: uuid.NewString(), Topic: topic, Payload: payload}
	f, err := protocol.Encode(protocol.MessageTypePublish, protocol.Publish{ID: m.ID, Topic: topic, Payload: payload})
	if err != nil {
		return Message{}, err
	}
	ack, err := c.request(ctx, m.ID, f)
	if err != nil {
		return Message{}, err
	}
	c.logger.Debug().Str("topic", topic).Int("recipients", ack.Recipients).Msg("published")
	return m, nil
}

// Subscribe registers topic with the broker. Messages published before the broker
// acknowledges the subscription are not delivered.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	s, err := c.hub.subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	f, err := protocol.Encode(protocol.MessageTypeSubscribe, protocol.Subscribe{ID: id, Topic: topic})
	if err == nil {
		_, err = c.request(ctx, id, f)
	}
	if err != nil {
		c.hub.remove(s)
		return nil, err
	}
	return s.ch, nil
}

// Err reports why the connection ended, once it has.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close says goodbye to the broker and tears down the connection.
func (c *Client) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	c.cancel()
	if f, err := protocol.Encode(protocol.MessageTypeClose, struct{}{}); err == nil {
		_ = c.send(f)
	}
	err := c.conn.CloseWithError(CodeNormal, "")
	<-c.done
	return err
}
