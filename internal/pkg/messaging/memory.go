package messaging

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryConfig configures the in-process broker.
type MemoryConfig struct {
	// Buffer is the per group queue size. Publish blocks when a queue is full.
	Buffer int
}

type memGroup struct {
	ch   chan *message
	refs int
}

// Memory is an in-process broker. Every consumer group on a topic receives
// each message once; consumers sharing a group split the stream.
type Memory struct {
	buffer int
	anon   atomic.Int64

	mu     sync.Mutex
	topics map[string]map[string]*memGroup
	done   chan struct{}
	closed bool
}

// NewMemory returns an empty in-process broker.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}

	return &Memory{
		buffer: cfg.Buffer,
		topics: make(map[string]map[string]*memGroup),
		done:   make(chan struct{}),
	}
}

// Close stops all consumers. Queued messages are dropped.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish enqueues msg for every group subscribed to topic. Messages
// published while nobody is subscribed are dropped.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	groups := make([]*memGroup, 0, len(m.topics[topic]))
	for _, g := range m.topics[topic] {
		groups = append(groups, g)
	}
	m.mu.Unlock()

	now := time.Now()
	for _, g := range groups {
		headers := make(map[string]string, len(msg.Headers))
		for k, v := range msg.Headers {
			headers[k] = v
		}

		select {
		case g.ch <- &message{body: msg.Body, key: msg.Key, headers: headers, topic: topic, ts: now}:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}
	return nil
}

func (m *Memory) join(topic, group string) (*memGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	groups, ok := m.topics[topic]
	if !ok {
		groups = make(map[string]*memGroup)
		m.topics[topic] = groups
	}

	g, ok := groups[group]
	if !ok {
		g = &memGroup{ch: make(chan *message, m.buffer)}
		groups[group] = g
	}
	g.refs++
	return g, nil
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.topics[topic][group]
	if !ok {
		return
	}
	g.refs--
	if g.refs <= 0 {
		delete(m.topics[topic], group)
	}
}

// Consume blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = "_anon." + strconv.FormatInt(m.anon.Add(1), 10)
	}

	g, err := m.join(topic, group)
	if err != nil {
		return err
	}
	defer m.leave(topic, group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-g.ch:
					herr := callHandlerWithRecover(ctx, DriverMemory, handler, msg)
					settle(ctx, msg, co.autoAck, herr)
				}
			}
		})
	}
	wg.Wait()

	select {
	case <-m.done:
		return ErrClosed
	default:
		return ctx.Err()
	}
}
