package relay

import (
	"context"
	"errors"
	"io"
	"sync"

	q "github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/TheusHen/lwcfb/lwcfb/protocol"
	"github.com/TheusHen/lwcfb/lwcfb/transport/quic"
)

// Application error codes sent when the broker closes a connection.
const (
	CodeNormal   q.ApplicationErrorCode = 0
	CodeProtocol q.ApplicationErrorCode = 1
)

// peer is one connected client. Writes to its control stream are serialized.
type peer struct {
	id      string
	control q.Stream
	wmu     sync.Mutex
}

func (p *peer) send(f protocol.Frame) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return protocol.WriteFrame(p.control, f)
}

func (p *peer) ack(id string, recipients int, err error) error {
	a := protocol.Ack{ID: id, Recipients: recipients}
	if err != nil {
		a.Error = err.Error()
	}
	f, ferr := protocol.Encode(protocol.MessageTypeAck, a)
	if ferr != nil {
		return ferr
	}
	return p.send(f)
}

// Broker is a QUIC relay: clients subscribe to topics and every PUBLISH is forwarded
// as DELIVER to the current subscribers of its topic, the publisher included.
type Broker struct {
	ln     *quic.Listener
	logger zerolog.Logger

	mu     sync.RWMutex
	topics map[string]map[*peer]struct{}
	conns  map[q.Connection]struct{}
	closed bool

	wg sync.WaitGroup
}

// Listen starts a broker on addr. Call Serve to accept clients.
func Listen(addr string, logger zerolog.Logger) (*Broker, error) {
	ln, err := quic.Listen(addr)
	if err != nil {
		return nil, err
	}
	return &Broker{
		ln:     ln,
		logger: logger.With().Str("component", "broker").Logger(),
		topics: map[string]map[*peer]struct{}{},
		conns:  map[q.Connection]struct{}{},
	}, nil
}

func (b *Broker) Addr() string { return b.ln.AddrString() }

// Serve accepts connections until ctx is done or the broker is closed.
func (b *Broker) Serve(ctx context.Context) error {
	b.logger.Info().Str("addr", b.Addr()).Msg("relay broker listening")
	for {
		conn, err := b.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || b.isClosed() {
				return nil
			}
			return err
		}
		if !b.track(conn) {
			_ = conn.CloseWithError(CodeNormal, "broker closed")
			return nil
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.untrack(conn)
			b.handle(ctx, conn)
		}()
	}
}

func (b *Broker) track(conn q.Connection) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.conns[conn] = struct{}{}
	return true
}

func (b *Broker) untrack(conn q.Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
}

func (b *Broker) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *Broker) handle(ctx context.Context, conn q.Connection) {
	log := b.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	control, hello, err := handshakeServer(ctx, conn)
	if err != nil {
		log.Warn().Err(err).Msg("handshake failed")
		_ = conn.CloseWithError(CodeProtocol, "handshake failed")
		return
	}
	p := &peer{id: hello.ClientID, control: control}
	log = log.With().Str("client_id", p.id).Logger()
	log.Info().Msg("client connected")

	defer func() {
		b.drop(p)
		_ = conn.CloseWithError(CodeNormal, "")
		log.Info().Msg("client disconnected")
	}()

	for {
		frame, err := protocol.ReadFrame(control)
		if err != nil {
			if !isClosedConn(err) {
				log.Debug().Err(err).Msg("read frame")
			}
			return
		}
		switch frame.Type {
		case protocol.MessageTypeSubscribe:
			sub, err := protocol.Decode[protocol.Subscribe](frame)
			if err == nil {
				err = sub.Validate()
			}
			if err == nil {
				b.subscribe(p, sub.Topic)
				log.Debug().Str("topic", sub.Topic).Msg("subscribed")
			}
			if err := p.ack(sub.ID, 0, err); err != nil {
				return
			}
		case protocol.MessageTypePublish:
			pub, err := protocol.Decode[protocol.Publish](frame)
			if err == nil {
				err = pub.Validate()
			}
			n := 0
			if err == nil {
				n = b.fanOut(p, pub)
			}
			if err := p.ack(pub.ID, n, err); err != nil {
				return
			}
		case protocol.MessageTypeClose:
			return
		default:
			log.Warn().Stringer("type", frame.Type).Msg("unexpected frame")
			_ = conn.CloseWithError(CodeProtocol, "unexpected frame")
			return
		}
	}
}

func (b *Broker) subscribe(p *peer, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.topics[topic]
	if !ok {
		set = map[*peer]struct{}{}
		b.topics[topic] = set
	}
	set[p] = struct{}{}
}

func (b *Broker) drop(p *peer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, set := range b.topics {
		delete(set, p)
		if len(set) == 0 {
			delete(b.topics, topic)
		}
	}
}

func (b *Broker) fanOut(from *peer, pub protocol.Publish) int {
	b.mu.RLock()
	targets := make([]*peer, 0, len(b.topics[pub.Topic]))
	for p := range b.topics[pub.Topic] {
		targets = append(targets, p)
	}
	b.mu.RUnlock()

	frame, err := protocol.Encode(protocol.MessageTypeDeliver, protocol.Deliver{
		ID:      pub.ID,
		Topic:   pub.Topic,
		Payload: pub.Payload,
		From:    from.id,
	})
	if err != nil {
		return 0
	}
	n := 0
	for _, p := range targets {
		if err := p.send(frame); err != nil {
			b.logger.Debug().Err(err).Str("client_id", p.id).Msg("deliver failed")
			continue
		}
		n++
	}
	return n
}

// Subscribers reports how many clients are subscribed to topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close stops accepting, disconnects every client and waits for their handlers.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	conns := make([]q.Connection, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	err := b.ln.Close()
	for _, c := range conns {
		_ = c.CloseWithError(CodeNormal, "broker closed")
	}
	b.wg.Wait()
	return err
}

func isClosedConn(err error) bool {
	var appErr *q.ApplicationError
	var idleErr *q.IdleTimeoutError
	return errors.As(err, &appErr) || errors.As(err, &idleErr) || errors.Is(err, io.EOF)
}
