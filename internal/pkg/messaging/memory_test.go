package messaging

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSubscribed(t *testing.T, m *Memory, topic string, groups int) {
	t.Helper()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.topics[topic]) == groups
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_PublishConsume(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	go func() {
		_ = m.Consume(ctx, "contact", func(_ context.Context, msg Message) error {
			got <- msg
			return nil
		}, WithGroup("notifier"))
	}()
	waitSubscribed(t, m, "contact", 1)

	require.NoError(t, m.Publish(ctx, "contact", OutgoingMessage{
		Key:     []byte("k"),
		Body:    []byte(`{"id":1}`),
		Headers: map[string]string{"cID": "abc"},
	}))

	select {
	case msg := <-got:
		assert.Equal(t, `{"id":1}`, string(msg.Body()))
		assert.Equal(t, "k", string(msg.Key()))
		assert.Equal(t, "abc", msg.Header("cID"))
		assert.Equal(t, "contact", msg.Topic())
		assert.NoError(t, msg.Ack(ctx))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemory_GroupsShareStream(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inGroup, other atomic.Int32
	var wg sync.WaitGroup
	wg.Add(6)

	count := func(c *atomic.Int32) Handler {
		return func(context.Context, Message) error {
			c.Add(1)
			wg.Done()
			return nil
		}
	}

	go func() { _ = m.Consume(ctx, "t", count(&inGroup), WithGroup("g")) }()
	go func() { _ = m.Consume(ctx, "t", count(&inGroup), WithGroup("g")) }()
	go func() { _ = m.Consume(ctx, "t", count(&other)) }()
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		g := m.topics["t"]["g"]
		return len(m.topics["t"]) == 2 && g != nil && g.refs == 2
	}, time.Second, 5*time.Millisecond)

	for range 3 {
		require.NoError(t, m.Publish(ctx, "t", OutgoingMessage{Body: []byte("x")}))
	}
	wg.Wait()

	assert.EqualValues(t, 3, inGroup.Load())
	assert.EqualValues(t, 3, other.Load())
}

func TestMemory_PanicAndClose(t *testing.T) {
	m := NewMemory(MemoryConfig{Buffer: 1})

	ctx := context.Background()
	done := make(chan error, 1)
	handled := make(chan struct{}, 1)
	go func() {
		done <- m.Consume(ctx, "t", func(context.Context, Message) error {
			handled <- struct{}{}
			panic("boom")
		})
	}()
	waitSubscribed(t, m, "t", 1)

	require.NoError(t, m.Publish(ctx, "t", OutgoingMessage{Body: []byte("x")}))
	<-handled

	require.NoError(t, m.Close())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.ErrorIs(t, m.Publish(ctx, "t", OutgoingMessage{}), ErrClosed)
	assert.ErrorIs(t, m.Consume(ctx, "t", func(context.Context, Message) error { return nil }), ErrClosed)
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	ctx := context.Background()

	assert.ErrorIs(t, m.Publish(ctx, "", OutgoingMessage{}), ErrTopicRequired)
	assert.ErrorIs(t, m.Consume(ctx, "", nil), ErrTopicRequired)
	assert.ErrorIs(t, m.Consume(ctx, "t", nil), ErrHandlerRequired)
}

func TestNewFromDriver(t *testing.T) {
	msg, err := NewFromDriver("", FactoryOptions{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, msg)

	_, err = NewFromDriver("rabbit", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	_, err = NewFromDriver(DriverNATS, FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.ErrorIs(t, k.Consume(context.Background(), "t", func(context.Context, Message) error { return nil }), ErrKafkaGroupRequired)
	require.NoError(t, k.Close())
	assert.ErrorIs(t, k.Publish(context.Background(), "t", OutgoingMessage{}), ErrClosed)
}
