package followup

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/NoduleAdvisor/internal/config"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/internal/intelligence/nodule_extractor"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

const resultCacheName = "result"

// ResultCache caches results by normalized sentence.  GetOrCompute runs
// compute at most once per sentence across concurrent callers and returns
// its errors unchanged.
type ResultCache interface {
	GetOrCompute(ctx context.Context, sentence string, compute func(ctx context.Context) (nodule.Result, error)) (nodule.Result, bool, error)
}

// EventPublisher publishes classification events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// Classification is the outcome of Service.Classify.  ID is uuid.Nil when no
// audit repository is configured or the audit write failed.
type Classification struct {
	ID     uuid.UUID     `json:"id,omitempty"`
	Result nodule.Result `json:"result"`
	Cached bool          `json:"cached"`
}

// ItemError describes a failed batch item.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchItem is one entry of a batch response.  Exactly one of Result and
// Error is set.
type BatchItem struct {
	Index  int            `json:"index"`
	ID     string         `json:"id,omitempty"`
	Result *nodule.Result `json:"result,omitempty"`
	Error  *ItemError     `json:"error,omitempty"`
}

// Service orchestrates classification.  All collaborators except the limits
// are optional.
type Service struct {
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	cache   ResultCache
	audit   domain.ClassificationRepository
	events  EventPublisher

	issuedTopic   string
	source        string
	maxTextLength int
	maxBatchSize  int
	concurrency   int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithResultCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithAuditRepository(r domain.ClassificationRepository) Option {
	return func(s *Service) { s.audit = r }
}

// WithEventPublisher publishes an issued event to topic after every
// successful classification.
func WithEventPublisher(p EventPublisher, topic string) Option {
	return func(s *Service) {
		s.events = p
		s.issuedTopic = topic
	}
}

// WithSource labels audit records and metrics, e.g. "http" or "cli".
func WithSource(source string) Option {
	return func(s *Service) { s.source = source }
}

// NewService builds a Service bounded by cfg.
func NewService(cfg config.ClassifierConfig, opts ...Option) *Service {
	s := &Service{
		logger:        logging.NewNopLogger(),
		source:        domain.SourceHTTP,
		maxTextLength: cfg.MaxTextLength,
		maxBatchSize:  cfg.MaxBatchSize,
		concurrency:   cfg.BatchConcurrency,
	}
	if s.maxTextLength <= 0 {
		s.maxTextLength = config.DefaultMaxTextLength
	}
	if s.maxBatchSize <= 0 {
		s.maxBatchSize = config.DefaultMaxBatchSize
	}
	if s.concurrency <= 0 {
		s.concurrency = config.DefaultBatchConcurrency
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that is copied into audit
// records and events.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Service) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New(errors.ErrCodeNotANoduleReference, "text does not reference a nodule")
	}
	if n := utf8.RuneCountInString(text); n > s.maxTextLength {
		return errors.New(errors.ErrCodeBadRequest, "text exceeds maximum length").
			WithDetail(fmt.Sprintf("%d > %d characters", n, s.maxTextLength))
	}
	return nil
}

// Classify classifies one sentence.  Typed classification failures are
// returned unchanged; cache, audit and publish failures are logged and never
// change the outcome.
func (s *Service) Classify(ctx context.Context, text string) (*Classification, error) {
	start := time.Now()
	if err := s.validate(text); err != nil {
		prometheus.RecordClassificationFailure(s.metrics, string(errors.GetCode(err)))
		return nil, err
	}

	sentence := nodule_extractor.Normalize(text)
	res, cached, err := s.resolve(ctx, text, sentence)
	if err != nil {
		prometheus.RecordClassificationFailure(s.metrics, string(errors.GetCode(err)))
		s.logger.Debug("sentence rejected",
			logging.String("code", string(errors.GetCode(err))),
			logging.String("request_id", RequestIDFromContext(ctx)))
		return nil, err
	}
	out := &Classification{Result: res, Cached: cached}

	out.ID = s.record(ctx, sentence, out.Result)
	s.publish(ctx, out)

	d := out.Result.Descriptor
	prometheus.RecordClassification(s.metrics, s.source, int(out.Result.Category),
		string(d.Composition), string(d.Multiplicity), out.Result.SizeMM, time.Since(start))
	s.logger.Info("sentence classified",
		logging.Int("category", int(out.Result.Category)),
		logging.String("composition", string(d.Composition)),
		logging.Float64("size_mm", out.Result.SizeMM),
		logging.Bool("cached", out.Cached),
		logging.String("request_id", RequestIDFromContext(ctx)))
	return out, nil
}

// resolve classifies text through the result cache when one is configured.
func (s *Service) resolve(ctx context.Context, text, sentence string) (nodule.Result, bool, error) {
	if s.cache == nil {
		res, err := Classify(text)
		return res, false, err
	}
	res, hit, err := s.cache.GetOrCompute(ctx, sentence, func(context.Context) (nodule.Result, error) {
		return Classify(text)
	})
	if err == nil {
		prometheus.RecordCacheAccess(s.metrics, resultCacheName, hit)
	}
	return res, hit, err
}

func (s *Service) record(ctx context.Context, sentence string, res nodule.Result) uuid.UUID {
	if s.audit == nil {
		return uuid.Nil
	}
	rec := domain.NewClassificationRecord(s.source, RequestIDFromContext(ctx), sentence, res)
	if err := s.audit.Save(ctx, rec); err != nil {
		s.logger.Warn("audit write failed", logging.Err(err))
		prometheus.RecordError(s.metrics, "audit", string(errors.GetCode(err)))
		return uuid.Nil
	}
	return rec.ID
}

func (s *Service) publish(ctx context.Context, out *Classification) {
	if s.events == nil {
		return
	}
	payload := kafka.RecommendationIssuedPayload{Result: out.Result, IssuedAt: time.Now().UTC()}
	key := RequestIDFromContext(ctx)
	if out.ID != uuid.Nil {
		payload.ClassificationID = out.ID.String()
		key = payload.ClassificationID
	}
	env, err := kafka.NewEventEnvelope(kafka.EventRecommendationIssued, s.source, payload)
	if err == nil {
		env.TraceID = RequestIDFromContext(ctx)
		err = s.events.PublishEvent(ctx, s.issuedTopic, key, env)
	}
	if err != nil {
		s.logger.Warn("event publication failed", logging.Err(err))
		prometheus.RecordError(s.metrics, "publisher", string(errors.GetCode(err)))
	}
}

// ClassifyBatch classifies texts with bounded concurrency.  Item failures are
// reported per item and never abort the batch; only cancellation of ctx does.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) ([]BatchItem, error) {
	if len(texts) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "batch is empty")
	}
	if len(texts) > s.maxBatchSize {
		return nil, errors.New(errors.ErrCodeBatchTooLarge, "batch exceeds maximum size").
			WithDetail(fmt.Sprintf("%d > %d items", len(texts), s.maxBatchSize))
	}
	prometheus.RecordBatch(s.metrics, len(texts))

	items := make([]BatchItem, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = s.batchItem(gctx, i, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "batch cancelled")
	}
	return items, nil
}

func (s *Service) batchItem(ctx context.Context, i int, text string) BatchItem {
	item := BatchItem{Index: i}
	out, err := s.Classify(ctx, text)
	if err != nil {
		item.Error = &ItemError{Code: string(errors.GetCode(err)), Message: errors.GetMessage(err)}
		return item
	}
	res := out.Result
	item.Result = &res
	if out.ID != uuid.Nil {
		item.ID = out.ID.String()
	}
	return item
}

// Categories returns the full category table.
func (s *Service) Categories() []domain.CategoryRecommendation {
	return domain.Recommendations()
}

// Recommendation resolves one category.
func (s *Service) Recommendation(c nodule.Category) (string, error) {
	return domain.Recommendation(c)
}

// GetClassification loads an audit record.
func (s *Service) GetClassification(ctx context.Context, id uuid.UUID) (*domain.ClassificationRecord, error) {
	if s.audit == nil {
		return nil, errors.Unavailable("audit store is not configured")
	}
	return s.audit.FindByID(ctx, id)
}

// ListClassifications returns the most recent audit records.
func (s *Service) ListClassifications(ctx context.Context, limit int) ([]*domain.ClassificationRecord, error) {
	if s.audit == nil {
		return nil, errors.Unavailable("audit store is not configured")
	}
	return s.audit.ListRecent(ctx, limit)
}

//Personal.AI order the ending
