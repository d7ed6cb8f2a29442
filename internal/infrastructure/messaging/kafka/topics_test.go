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

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	created    []kafka.TopicConfig
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func TestEventEnvelope_RoundTripThroughMessage(t *testing.T) {
	payload := SentenceSubmittedPayload{ReportID: "r-1", SentenceIndex: 3, Text: "solid nodule 5 mm"}
	env, err := NewEventEnvelope(EventSentenceSubmitted, "ris", payload)
	require.NoError(t, err)
	env.TraceID = "trace-1"

	pm, err := env.ToMessage(TopicSentenceSubmitted)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", pm.Headers[HeaderTraceID])

	decoded, err := MessageToEventEnvelope(&Message{Topic: pm.Topic, Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	var got SentenceSubmittedPayload
	require.NoError(t, decoded.DecodePayload(&got))
	assert.Equal(t, payload, got)
}

func TestMessageToEventEnvelope_Errors(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = MessageToEventEnvelope(&Message{Value: []byte("{")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{EventID: "e", Payload: []byte("null")}
	var p SentenceSubmittedPayload
	assert.True(t, errors.IsCode(env.DecodePayload(&p), errors.ErrCodeValidation))
}

func TestTopicManager_CreateTopic(t *testing.T) {
	conn := &mockKafkaConn{}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}

	require.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 1000}))
	require.Len(t, conn.created, 1)
	assert.Equal(t, []kafka.ConfigEntry{{ConfigName: "retention.ms", ConfigValue: "1000"}}, conn.created[0].ConfigEntries)

	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1}))
}

func TestTopicManager_ExistingTopicIsNotAnError(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(...kafka.TopicConfig) error { return kafka.TopicAlreadyExists }}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	conn.createFunc = func(...kafka.TopicConfig) error { return stderrors.New("controller moved") }
	conn.readFunc = func(...string) ([]kafka.Partition, error) { return []kafka.Partition{{Topic: "t"}}, nil }
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	conn.readFunc = nil
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestClassificationTopics(t *testing.T) {
	topics := ClassificationTopics(TopicSentenceSubmitted, TopicRecommendationIssued, TopicClassificationRejected, TopicDeadLetter)
	require.Len(t, topics, 4)
	assert.Equal(t, TopicDeadLetter, topics[3].Name)

	m := &TopicManager{conn: &mockKafkaConn{}, logger: logging.NewNopLogger()}
	assert.NoError(t, m.EnsureTopics(context.Background(), topics))

	assert.Len(t, ClassificationTopics("a", "b", "c", ""), 3)
}

//Personal.AI order the ending
