// Package worker turns report sentences streamed over Kafka into issued
// recommendations or rejections.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// ServiceName is the envelope source of events the worker emits.
const ServiceName = "nodule-worker"

// Classifier is the part of followup.Service the worker needs.
type Classifier interface {
	Classify(ctx context.Context, text string) (*followup.Classification, error)
}

// EventPublisher publishes outcome envelopes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// Topics names the outcome topics.
type Topics struct {
	Issued   string
	Rejected string
}

// SentenceHandler classifies one submitted sentence per message.
//
// Sentences that cannot be classified are published as rejections and the
// handler returns nil so the offset is committed.  Malformed envelopes and
// publish failures are returned, which hands the message to the consumer's
// retry and dead-letter policy.
type SentenceHandler struct {
	classifier Classifier
	publisher  EventPublisher
	topics     Topics
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	now        func() time.Time
}

// NewSentenceHandler creates a SentenceHandler.  Empty topic names fall back
// to the defaults; logger and metrics may be nil.
func NewSentenceHandler(classifier Classifier, publisher EventPublisher, topics Topics, logger logging.Logger, metrics *prometheus.AppMetrics) *SentenceHandler {
	if topics.Issued == "" {
		topics.Issued = kafka.TopicRecommendationIssued
	}
	if topics.Rejected == "" {
		topics.Rejected = kafka.TopicClassificationRejected
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SentenceHandler{
		classifier: classifier,
		publisher:  publisher,
		topics:     topics,
		logger:     logger.Named("worker"),
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle implements kafka.MessageHandler.
func (h *SentenceHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventSentenceSubmitted {
		return errors.New(errors.ErrCodeValidation, "unexpected event type").WithDetail(env.EventType)
	}
	var in kafka.SentenceSubmittedPayload
	if err := env.DecodePayload(&in); err != nil {
		return err
	}

	traceID := env.TraceID
	if traceID == "" {
		traceID = env.EventID
	}
	ctx = followup.ContextWithRequestID(ctx, traceID)
	// Outcomes of one report share a partition.
	key := in.ReportID
	if key == "" {
		key = traceID
	}

	out, err := h.classifier.Classify(ctx, in.Text)
	if err != nil {
		if !isRejection(err) {
			return err
		}
		return h.reject(ctx, key, traceID, in, err)
	}

	payload := kafka.RecommendationIssuedPayload{
		ReportID:      in.ReportID,
		SentenceIndex: in.SentenceIndex,
		Result:        out.Result,
		IssuedAt:      h.now(),
	}
	if out.ID != uuid.Nil {
		payload.ClassificationID = out.ID.String()
	}
	if err := h.publish(ctx, h.topics.Issued, kafka.EventRecommendationIssued, key, traceID, payload); err != nil {
		return err
	}
	h.logger.Debug("recommendation issued",
		logging.String("report_id", in.ReportID),
		logging.Int("sentence_index", in.SentenceIndex),
		logging.Int("category", int(out.Result.Category)))
	return nil
}

func (h *SentenceHandler) reject(ctx context.Context, key, traceID string, in kafka.SentenceSubmittedPayload, cause error) error {
	payload := kafka.ClassificationRejectedPayload{
		ReportID:      in.ReportID,
		SentenceIndex: in.SentenceIndex,
		Code:          string(errors.GetCode(cause)),
		Message:       errors.GetMessage(cause),
		RejectedAt:    h.now(),
	}
	if err := h.publish(ctx, h.topics.Rejected, kafka.EventClassificationRejected, key, traceID, payload); err != nil {
		return err
	}
	h.logger.Debug("sentence rejected",
		logging.String("report_id", in.ReportID),
		logging.Int("sentence_index", in.SentenceIndex),
		logging.String("code", payload.Code))
	return nil
}

func (h *SentenceHandler) publish(ctx context.Context, topic, eventType, key, traceID string, payload interface{}) error {
	env, err := kafka.NewEventEnvelope(eventType, ServiceName, payload)
	if err != nil {
		return err
	}
	env.TraceID = traceID
	if err := h.publisher.PublishEvent(ctx, topic, key, env); err != nil {
		prometheus.RecordError(h.metrics, "worker", string(errors.GetCode(err)))
		return err
	}
	return nil
}

// isRejection reports whether err is a property of the sentence itself, so a
// retry would fail the same way.
func isRejection(err error) bool {
	if errors.IsClassificationFailure(err) {
		return true
	}
	return errors.IsCode(err, errors.ErrCodeBadRequest)
}

//Personal.AI order the ending
