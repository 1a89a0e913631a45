package relay

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 64

type subscription struct {
	topic string
	ch    chan Message
	done  chan struct{}
	once  sync.Once
}

func (s *subscription) stop() { s.once.Do(func() { close(s.done) }) }

// Hub fans messages out to local topic subscriptions. Delivery blocks on a full
// subscription channel until the subscriber reads, unsubscribes, or ctx ends.
type Hub struct {
	buffer int

	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer < 0 {
		buffer = 0
	}
	return &Hub{
		buffer: buffer,
		topics: map[string]map[*subscription]struct{}{},
		done:   make(chan struct{}),
	}
}

func (h *Hub) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	s, err := h.subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	return s.ch, nil
}

func (h *Hub) subscribe(ctx context.Context, topic string) (*subscription, error) {
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	s := &subscription{
		topic: topic,
		ch:    make(chan Message, h.buffer),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	set, ok := h.topics[topic]
	if !ok {
		set = map[*subscription]struct{}{}
		h.topics[topic] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
		}
		h.remove(s)
	}()
	return s, nil
}

func (h *Hub) remove(s *subscription) {
	// Unblock any Deliver waiting on this subscription before taking the write lock.
	s.stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.topics[s.topic]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.topics, s.topic)
	}
	close(s.ch)
}

// Deliver hands m to every subscription of m.Topic and reports how many received it.
func (h *Hub) Deliver(ctx context.Context, m Message) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, ErrClosed
	}
	n := 0
	for s := range h.topics[m.Topic] {
		select {
		case <-s.done:
			continue
		default:
		}
		select {
		case s.ch <- m:
			n++
		case <-s.done:
		case <-ctx.Done():
			return n, ctx.Err()
		}
	}
	return n, nil
}

// Subscribers reports the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription. Their channels close shortly after.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
	})
}
