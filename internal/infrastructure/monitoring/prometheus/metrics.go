package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric NoduleAdvisor exports.
type AppMetrics struct {
	// Classification
	ClassificationsTotal   CounterVec
	ClassificationFailures CounterVec
	ClassificationDuration HistogramVec
	NoduleSizeMM           HistogramVec
	BatchSize              HistogramVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Infrastructure
	CacheAccessTotal       CounterVec
	DBQueryDuration        HistogramVec
	MessagesProcessedTotal CounterVec
	MessageProcessDuration HistogramVec
	ErrorsTotal            CounterVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultClassifyDurationBuckets = []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05}
	DefaultNoduleSizeBuckets       = []float64{4, 6, 8, 10, 15, 20, 30}
	DefaultBatchSizeBuckets        = []float64{1, 5, 10, 25, 50, 100, 250}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		ClassificationsTotal: collector.RegisterCounter("classifications_total",
			"Sentences classified, by category and composition.", "category", "composition", "multiplicity"),
		ClassificationFailures: collector.RegisterCounter("classification_failures_total",
			"Sentences rejected, by error code.", "code"),
		ClassificationDuration: collector.RegisterHistogram("classification_duration_seconds",
			"Time spent classifying one sentence.", DefaultClassifyDurationBuckets, "source"),
		NoduleSizeMM: collector.RegisterHistogram("nodule_size_mm",
			"Resolved nodule size in millimeters.", DefaultNoduleSizeBuckets, "composition"),
		BatchSize: collector.RegisterHistogram("classification_batch_size",
			"Number of sentences per batch request.", DefaultBatchSizeBuckets),

		HTTPRequestsTotal: collector.RegisterCounter("http_requests_total",
			"HTTP requests by method, route and status.", "method", "path", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds",
			"HTTP request latency.", DefaultHTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests: collector.RegisterGauge("http_active_requests",
			"In-flight HTTP requests.", "method"),

		CacheAccessTotal: collector.RegisterCounter("cache_access_total",
			"Result cache lookups by outcome.", "cache", "result"),
		DBQueryDuration: collector.RegisterHistogram("db_query_duration_seconds",
			"Audit store query latency.", DefaultDBDurationBuckets, "operation", "status"),
		MessagesProcessedTotal: collector.RegisterCounter("messages_processed_total",
			"Kafka messages handled by topic and outcome.", "topic", "outcome"),
		MessageProcessDuration: collector.RegisterHistogram("message_process_duration_seconds",
			"Kafka message handling latency.", DefaultHTTPDurationBuckets, "topic"),
		ErrorsTotal: collector.RegisterCounter("errors_total",
			"Errors by component and code.", "component", "code"),
	}
}

// RecordClassification counts a successful classification.
func RecordClassification(m *AppMetrics, source string, category int, composition, multiplicity string, sizeMM float64, d time.Duration) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(strconv.Itoa(category), composition, multiplicity).Inc()
	m.ClassificationDuration.WithLabelValues(source).Observe(d.Seconds())
	m.NoduleSizeMM.WithLabelValues(composition).Observe(sizeMM)
}

// RecordClassificationFailure counts a rejected sentence.
func RecordClassificationFailure(m *AppMetrics, code string) {
	if m == nil {
		return
	}
	m.ClassificationFailures.WithLabelValues(code).Inc()
}

// RecordBatch observes the size of a batch request.
func RecordBatch(m *AppMetrics, size int) {
	if m == nil {
		return
	}
	m.BatchSize.WithLabelValues().Observe(float64(size))
}

// RecordHTTPRequest counts one finished HTTP request.
func RecordHTTPRequest(m *AppMetrics, method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordCacheAccess counts a cache hit or miss.
func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccessTotal.WithLabelValues(cache, result).Inc()
}

// RecordDBQuery observes one audit store call.
func RecordDBQuery(m *AppMetrics, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBQueryDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// RecordMessage counts one consumed message.
func RecordMessage(m *AppMetrics, topic, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.MessagesProcessedTotal.WithLabelValues(topic, outcome).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// RecordError counts an error attributed to a component.
func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending
