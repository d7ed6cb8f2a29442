package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

type mockKafkaReader struct {
	fetchFunc func(ctx context.Context) (kafka.Message, error)

	mu        sync.Mutex
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.committed...)
}

// queueReader serves msgs once each, then blocks.
func queueReader(msgs ...kafka.Message) *mockKafkaReader {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &mockKafkaReader{fetchFunc: func(ctx context.Context) (kafka.Message, error) {
		select {
		case m := <-ch:
			return m, nil
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		}
	}}
}

type mockPublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
	err  error
}

func (p *mockPublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func newTestConsumer(r ReaderInterface, retry RetryConfig, dlq Publisher) *Consumer {
	cfg := ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g", Topics: []string{"in"}, Retry: retry}
	applyConsumerDefaults(&cfg)
	cfg.Retry.RetryBackoff = time.Millisecond
	cfg.Retry.MaxRetryBackoff = 2 * time.Millisecond
	return &Consumer{
		reader:     r,
		config:     cfg,
		logger:     logging.NewNopLogger(),
		handlers:   make(map[string]MessageHandler),
		deadLetter: dlq,
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b"}, GroupID: "g", Topics: []string{"t"}}
	assert.NoError(t, ValidateConsumerConfig(valid))

	for name, mutate := range map[string]func(*ConsumerConfig){
		"brokers": func(c *ConsumerConfig) { c.Brokers = nil },
		"group":   func(c *ConsumerConfig) { c.GroupID = "" },
		"topics":  func(c *ConsumerConfig) { c.Topics = nil },
		"offset":  func(c *ConsumerConfig) { c.StartOffset = "middle" },
		"retries": func(c *ConsumerConfig) { c.Retry.MaxRetries = -1 },
	} {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, ValidateConsumerConfig(cfg), name)
	}
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := queueReader(kafka.Message{Topic: "in", Offset: 7, Value: []byte("v"),
		Headers: []kafka.Header{{Key: "k", Value: []byte("h")}}})
	c := newTestConsumer(reader, RetryConfig{}, nil)

	got := make(chan *Message, 1)
	c.Subscribe("in", func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	select {
	case msg := <-got:
		assert.Equal(t, int64(7), msg.Offset)
		assert.Equal(t, "h", msg.Headers["k"])
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.Equal(t, int64(1), c.Stats().Consumed)
}

func TestConsumer_UnhandledTopicIsCommitted(t *testing.T) {
	reader := queueReader(kafka.Message{Topic: "other", Offset: 1})
	c := newTestConsumer(reader, RetryConfig{}, nil)
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return len(reader.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{MaxRetries: 3}, nil)
	calls := 0
	outcome, err := c.processMessage(context.Background(), &Message{Topic: "in"}, func(context.Context, *Message) error {
		calls++
		if calls < 3 {
			return stderrors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(2), c.Stats().Retried)
}

func TestProcessMessage_DeadLettersAfterRetries(t *testing.T) {
	dlq := &mockPublisher{}
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{MaxRetries: 2, DeadLetterTopic: "dlq"}, dlq)
	calls := 0
	msg := &Message{Topic: "in", Partition: 2, Offset: 41, Key: []byte("r"), Value: []byte("v"),
		Headers: map[string]string{"event_type": "x"}}

	outcome, err := c.processMessage(context.Background(), msg, func(context.Context, *Message) error {
		calls++
		return errors.New(errors.ErrCodeDBQueryError, "insert failed")
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeadLettered, outcome)
	assert.Equal(t, 3, calls)

	require.Len(t, dlq.msgs, 1)
	dl := dlq.msgs[0]
	assert.Equal(t, "dlq", dl.Topic)
	assert.Equal(t, []byte("v"), dl.Value)
	assert.Equal(t, "in", dl.Headers[HeaderOriginalTopic])
	assert.Equal(t, "2/41", dl.Headers[HeaderOriginalOffset])
	assert.Equal(t, "DB_002", dl.Headers[HeaderErrorCode])
	assert.Equal(t, "x", dl.Headers["event_type"])
	_, mutated := msg.Headers[HeaderOriginalTopic]
	assert.False(t, mutated)
}

func TestProcessMessage_DropsWithoutDeadLetter(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{}, nil)
	outcome, err := c.processMessage(context.Background(), &Message{Topic: "in"}, func(context.Context, *Message) error {
		return stderrors.New("boom")
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
}

func TestProcessMessage_DeadLetterFailureDrops(t *testing.T) {
	dlq := &mockPublisher{err: stderrors.New("dlq down")}
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{DeadLetterTopic: "dlq"}, dlq)
	outcome, err := c.processMessage(context.Background(), &Message{Topic: "in"}, func(context.Context, *Message) error {
		return stderrors.New("boom")
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
}

func TestProcessMessage_CancelledDuringBackoffIsNotSettled(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{MaxRetries: 5}, nil)
	c.config.Retry.RetryBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.processMessage(ctx, &Message{Topic: "in"}, func(context.Context, *Message) error {
		return stderrors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumer_CloseWithoutStart(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, RetryConfig{}, nil)
	assert.NoError(t, c.Close())
}

//Personal.AI order the ending
