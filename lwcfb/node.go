package lwcfb

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TheusHen/lwcfb/lwcfb/config"
	"github.com/TheusHen/lwcfb/lwcfb/relay"
	"github.com/TheusHen/lwcfb/lwcfb/relay/memory"
	"github.com/TheusHen/lwcfb/lwcfb/sensor"
	"github.com/TheusHen/lwcfb/lwcfb/session"
)

var (
	ErrNotStarted     = errors.New("node is not started")
	ErrAlreadyStarted = errors.New("node is already started")
)

// Node is a high-level helper that combines one session, one transport and one topic.
// It stays small so applications can wire producers and listeners differently.
type Node struct {
	Session   *session.Session
	Transport relay.Transport
	Topic     string

	logger zerolog.Logger

	once     sync.Once
	listener *sensor.Listener

	mu      sync.Mutex
	started bool
	done    chan struct{}
	err     error
}

func NewNode(s *session.Session, t relay.Transport, topic string, logger zerolog.Logger) *Node {
	if topic == "" {
		topic = sensor.DefaultTopic
	}
	return &Node{Session: s, Transport: t, Topic: topic, logger: logger}
}

// Producer returns a new producer publishing on the node's topic.
func (n *Node) Producer() *sensor.Producer {
	return sensor.NewProducer(n.Session, n.Transport, n.Topic, n.logger)
}

// Listener returns the node's listener. Hooks must be set before Start.
func (n *Node) Listener() *sensor.Listener {
	n.once.Do(func() {
		n.listener = sensor.NewListener(n.Session, n.Transport, n.Topic, n.logger)
	})
	return n.listener
}

// Start subscribes and then consumes in the background, so anything published after
// Start returns reaches the listener.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return ErrAlreadyStarted
	}
	l := n.Listener()
	ch, err := n.Transport.Subscribe(ctx, n.Topic)
	if err != nil {
		return err
	}
	n.started = true
	n.done = make(chan struct{})
	go func() {
		defer close(n.done)
		n.err = l.Consume(ctx, ch)
	}()
	return nil
}

// Wait blocks until the listener stops and returns its error.
func (n *Node) Wait() error {
	n.mu.Lock()
	started, done := n.started, n.done
	n.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	<-done
	return n.err
}

func (n *Node) Close() error {
	if n.Transport == nil {
		return nil
	}
	return n.Transport.Close()
}

// OpenTransport connects to the broker in cfg.Relay.Addr, or returns an in-process
// bus when no address is configured.
func OpenTransport(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (relay.Transport, error) {
	if cfg.Relay.Addr == "" {
		return memory.New(), nil
	}
	return relay.Dial(ctx, cfg.Relay.Addr, cfg.Relay.ClientID, logger)
}

// NewNodeFromConfig builds the session and transport described by cfg.
func NewNodeFromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Node, error) {
	s, err := cfg.Session()
	if err != nil {
		return nil, err
	}
	t, err := OpenTransport(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewNode(s, t, cfg.Relay.Topic, logger), nil
}
