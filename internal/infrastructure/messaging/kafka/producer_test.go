package kafka

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	cfg := ProducerConfig{Brokers: []string{"localhost:9092"}}
	applyProducerDefaults(&cfg)
	return &Producer{writer: w, config: cfg, logger: logging.NewNopLogger()}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestNewProducer_RejectsUnknownSASL(t *testing.T) {
	_, err := NewProducer(ProducerConfig{
		Brokers:  []string{"b:9092"},
		Security: SecurityConfig{SASLMechanism: "GSSAPI"},
	}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestNewProducer_Configured(t *testing.T) {
	p, err := NewProducer(ProducerConfig{
		Brokers:          []string{"b:9092"},
		CompressionCodec: "snappy",
		Security:         SecurityConfig{SASLMechanism: "PLAIN", SASLUsername: "u", SASLPassword: "p"},
	}, nil)
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 4, w.MaxAttempts)
	assert.Equal(t, kafka.Snappy, w.Compression)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	require.NoError(t, p.Close())
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		captured = append(captured, msgs...)
		return nil
	}})

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   "t",
		Key:     []byte("r-1"),
		Value:   []byte(`{"a":1}`),
		Headers: map[string]string{"h": "v"},
	})
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "t", captured[0].Topic)
	assert.Equal(t, []byte("r-1"), captured[0].Key)
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("v")}}, captured[0].Headers)
	assert.False(t, captured[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Stats().MessagesSent)
	assert.Equal(t, int64(7), p.Stats().BytesSent)
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("x")}), errors.ErrCodeValidation))
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), errors.ErrCodeValidation))

	big := make([]byte, p.config.MaxMessageBytes+1)
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: big}), errors.ErrCodeValidation))
}

func TestPublish_WriteError(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return stderrors.New("broker down")
	}})
	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMQPublishFailed))
	assert.Equal(t, int64(1), p.Stats().MessagesFailed)
}

func TestPublishEvent_SetsKeyAndHeaders(t *testing.T) {
	var captured kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		captured = msgs[0]
		return nil
	}})
	env, err := NewEventEnvelope(EventRecommendationIssued, "worker", RecommendationIssuedPayload{ReportID: "r-9"})
	require.NoError(t, err)

	require.NoError(t, p.PublishEvent(context.Background(), TopicRecommendationIssued, "r-9", env))
	assert.Equal(t, TopicRecommendationIssued, captured.Topic)
	assert.Equal(t, []byte("r-9"), captured.Key)

	headers := map[string]string{}
	for _, h := range captured.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventRecommendationIssued, headers[HeaderEventType])
	assert.Equal(t, SchemaVersion, headers[HeaderSchemaVersion])
}

func TestProducer_Close(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("x")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMQClosed))
}

func TestRequiredAcksAndCompression(t *testing.T) {
	assert.Equal(t, kafka.RequireNone, requiredAcks("none"))
	assert.Equal(t, kafka.RequireOne, requiredAcks("one"))
	assert.Equal(t, kafka.RequireAll, requiredAcks(""))
	assert.Equal(t, kafka.Gzip, compression("gzip"))
	assert.Equal(t, kafka.Zstd, compression("zstd"))
	assert.Equal(t, kafka.Compression(0), compression(""))
}

//Personal.AI order the ending
