package config

import "time"

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 10 * time.Second
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMaxTextLength    = 4096
	DefaultMaxBatchSize     = 100
	DefaultBatchConcurrency = 8

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisKeyPrefix   = "nodule:"
	DefaultRedisTTL         = 24 * time.Hour

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBName            = "nodule"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxConns        = 10
	DefaultDBMinConns        = 1
	DefaultDBMaxConnLifetime = time.Hour
	DefaultMigrationsPath    = "internal/infrastructure/database/postgres/migrations"

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "nodule-worker"
	DefaultKafkaInputTopic      = "report.sentence.submitted"
	DefaultKafkaIssuedTopic     = "nodule.recommendation.issued"
	DefaultKafkaRejectedTopic   = "nodule.classification.rejected"
	DefaultKafkaDeadLetterTopic = "nodule.dlq"
	DefaultKafkaMaxRetries      = 3
	DefaultKafkaRetryBackoff    = 500 * time.Millisecond

	DefaultMetricsNamespace = "nodule"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills zero-value fields.  Explicit values are kept.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Classifier ────────────────────────────────────────────────────────────
	if cfg.Classifier.MaxTextLength == 0 {
		cfg.Classifier.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.Classifier.MaxBatchSize == 0 {
		cfg.Classifier.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Classifier.BatchConcurrency == 0 {
		cfg.Classifier.BatchConcurrency = DefaultBatchConcurrency
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = DefaultDBMinConns
	}
	if cfg.Database.MaxConnLifetime == 0 {
		cfg.Database.MaxConnLifetime = DefaultDBMaxConnLifetime
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = DefaultMigrationsPath
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.InputTopic == "" {
		cfg.Kafka.InputTopic = DefaultKafkaInputTopic
	}
	if cfg.Kafka.IssuedTopic == "" {
		cfg.Kafka.IssuedTopic = DefaultKafkaIssuedTopic
	}
	if cfg.Kafka.RejectedTopic == "" {
		cfg.Kafka.RejectedTopic = DefaultKafkaRejectedTopic
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultKafkaDeadLetterTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = DefaultKafkaRetryBackoff
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// Default returns a Config populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
