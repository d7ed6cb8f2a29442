package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Outcomes recorded per consumed message.
const (
	OutcomeProcessed    = "processed"
	OutcomeDeadLettered = "dead_lettered"
	OutcomeDropped      = "dropped"
	OutcomeUnhandled    = "unhandled"
)

// Headers added to dead-lettered messages.
const (
	HeaderOriginalTopic  = "original_topic"
	HeaderErrorMessage   = "error_message"
	HeaderErrorCode      = "error_code"
	HeaderOriginalOffset = "original_offset"
)

// RetryConfig defines how failed handlers are retried before the message is
// dead-lettered.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	StartOffset       string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxWait           time.Duration
	Security          SecurityConfig
	Retry             RetryConfig
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a consumer group and dispatches to per-topic handlers.
// Offsets are committed explicitly after a message is handled, dead-lettered
// or dropped.
type Consumer struct {
	reader  ReaderInterface
	config  ConsumerConfig
	logger  logging.Logger
	metrics *prometheus.AppMetrics

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter Publisher
	closers    []func() error

	consumed     atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
}

// ConsumerStats counts consumed messages.
type ConsumerStats struct {
	Consumed     int64
	Retried      int64
	DeadLettered int64
}

func applyConsumerDefaults(cfg *ConsumerConfig) {
	if cfg.StartOffset == "" {
		cfg.StartOffset = "earliest"
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 3 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}
	if cfg.Retry.RetryBackoff == 0 {
		cfg.Retry.RetryBackoff = time.Second
	}
	if cfg.Retry.MaxRetryBackoff == 0 {
		cfg.Retry.MaxRetryBackoff = 30 * time.Second
	}
}

// NewConsumer creates a Consumer.  When a dead-letter topic is configured a
// dedicated producer is created for it.  metrics may be nil.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger, metrics *prometheus.AppMetrics) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	applyConsumerDefaults(&cfg)

	mech, err := cfg.Security.saslMechanism()
	if err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       cfg.Topics,
		MaxWait:           cfg.MaxWait,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       kafka.FirstOffset,
		Dialer: &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mech,
			TLS:           tlsCfg,
		},
	}
	if cfg.StartOffset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(readerCfg)

	c := &Consumer{
		reader:   reader,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		handlers: make(map[string]MessageHandler),
	}

	if cfg.Retry.DeadLetterTopic != "" {
		dlq, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers, Security: cfg.Security}, logger)
		if err != nil {
			_ = reader.Close()
			return nil, err
		}
		c.deadLetter = dlq
		c.closers = append(c.closers, dlq.Close)
	}
	return c, nil
}

// Subscribe registers handler for topic, replacing any previous handler.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop in the background.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.Strings("topics", c.config.Topics))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch message failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.consumed.Add(1)

		if done := c.handle(ctx, m); !done {
			return
		}
	}
}

// handle processes one fetched message and commits it.  It returns false when
// the context was cancelled before the message was settled; the offset is
// then left uncommitted so the message is redelivered.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	start := time.Now()
	msg := fromKafkaMessage(m)

	c.mu.RLock()
	handler, ok := c.handlers[m.Topic]
	c.mu.RUnlock()

	var outcome string
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		outcome = OutcomeUnhandled
	} else {
		var err error
		outcome, err = c.processMessage(ctx, msg, handler)
		if err != nil {
			return false
		}
	}

	prometheus.RecordMessage(c.metrics, m.Topic, outcome, time.Since(start))
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Error("commit failed",
			logging.String("topic", m.Topic),
			logging.Int64("offset", m.Offset),
			logging.Err(err))
	}
	return true
}

// processMessage runs handler with exponential backoff retries.  Once retries
// are exhausted the message goes to the dead-letter topic, or is dropped when
// none is configured.  The only returned error is context cancellation.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) (string, error) {
	err := handler(ctx, msg)
	if err == nil {
		return OutcomeProcessed, nil
	}

	backoff := c.config.Retry.RetryBackoff
	for i := 0; i < c.config.Retry.MaxRetries; i++ {
		c.retried.Add(1)
		c.logger.Warn("handler failed, retrying",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Int("attempt", i+1),
			logging.Err(err))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}

		if err = handler(ctx, msg); err == nil {
			return OutcomeProcessed, nil
		}

		backoff *= 2
		if backoff > c.config.Retry.MaxRetryBackoff {
			backoff = c.config.Retry.MaxRetryBackoff
		}
	}

	c.logger.Error("message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))
	prometheus.RecordError(c.metrics, "kafka_consumer", string(errors.GetCode(err)))

	if c.deadLetter == nil || c.config.Retry.DeadLetterTopic == "" {
		return OutcomeDropped, nil
	}

	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderOriginalOffset] = formatOffset(msg.Partition, msg.Offset)
	headers[HeaderErrorMessage] = err.Error()
	headers[HeaderErrorCode] = string(errors.GetCode(err))

	dlMsg := &ProducerMessage{
		Topic:   c.config.Retry.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if dlErr := c.deadLetter.Publish(ctx, dlMsg); dlErr != nil {
		c.logger.Error("failed to send to dead letter topic", logging.Err(dlErr))
		return OutcomeDropped, nil
	}
	c.deadLettered.Add(1)
	return OutcomeDeadLettered, nil
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

// Close stops the loop, waits for the in-flight message and releases the
// reader and dead-letter producer.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var firstErr error
	if err := c.reader.Close(); err != nil {
		firstErr = err
	}
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return firstErr
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	if cfg.StartOffset != "" && cfg.StartOffset != "earliest" && cfg.StartOffset != "latest" {
		return errors.New(errors.ErrCodeValidation, "start offset must be earliest or latest")
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
