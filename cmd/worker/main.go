// Worker entry point for NoduleAdvisor.  The worker consumes submitted report
// sentences from Kafka and publishes an issued recommendation or a rejection
// for each one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	"github.com/turtacn/NoduleAdvisor/internal/config"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/database/postgres"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/database/redis"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/NoduleAdvisor/internal/interfaces/http"
	"github.com/turtacn/NoduleAdvisor/internal/interfaces/http/handlers"
	"github.com/turtacn/NoduleAdvisor/internal/interfaces/http/middleware"
	"github.com/turtacn/NoduleAdvisor/internal/interfaces/worker"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	defaultHealthPort = 8081
	initTimeout       = 30 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: search standard locations)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath, "configs/config.yaml", "/etc/nodule/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	if err := run(cfg, *configPath, *healthPort, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, healthPort int, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka is disabled; set kafka.enabled to run the worker")
	}
	logger.Info("starting NoduleAdvisor worker",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("group", cfg.Kafka.GroupID),
		logging.String("input_topic", cfg.Kafka.InputTopic))

	if configPath != "" {
		config.Watch(configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level reloaded", logging.String("level", next.Log.Level))
			}
		}, func(err error) {
			logger.Warn("ignoring invalid configuration change", logging.Err(err))
		})
	}

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	metrics := prometheus.NewAppMetrics(collector)

	infra, err := initInfrastructure(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer infra.Close()

	opts := []followup.Option{
		followup.WithLogger(logger),
		followup.WithMetrics(metrics),
		followup.WithSource(domain.SourceWorker),
	}
	if infra.resultCache != nil {
		opts = append(opts, followup.WithResultCache(infra.resultCache))
	}
	if infra.audit != nil {
		opts = append(opts, followup.WithAuditRepository(infra.audit))
	}
	svc := followup.NewService(cfg.Classifier, opts...)

	handler := worker.NewSentenceHandler(svc, infra.producer, worker.Topics{
		Issued:   cfg.Kafka.IssuedTopic,
		Rejected: cfg.Kafka.RejectedTopic,
	}, logger, metrics)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.GroupID,
		Topics:   []string{cfg.Kafka.InputTopic},
		Security: securityConfig(cfg.Kafka),
		Retry: kafka.RetryConfig{
			MaxRetries:      cfg.Kafka.MaxRetries,
			RetryBackoff:    cfg.Kafka.RetryBackoff,
			DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
		},
	}, logger, metrics)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Subscribe(cfg.Kafka.InputTopic, handler.Handle)

	gin.SetMode(gin.ReleaseMode)
	probe := httpserver.NewServer(config.ServerConfig{Port: healthPort}, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, infra.checkers...),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}), logger)
	probeErr := make(chan error, 1)
	go func() { probeErr <- probe.Start() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	case err := <-probeErr:
		if err != nil {
			logger.Error("probe server failed", logging.Err(err))
		}
	}

	// Close waits for the in-flight message before releasing the reader.
	if err := consumer.Close(); err != nil {
		logger.Warn("consumer close failed", logging.Err(err))
	}
	stats := consumer.Stats()
	logger.Info("worker stopped",
		logging.Int64("consumed", stats.Consumed),
		logging.Int64("retried", stats.Retried),
		logging.Int64("dead_lettered", stats.DeadLettered))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	return probe.Stop(stopCtx)
}

// infrastructure holds the backends the worker needs.  The producer is
// always present; redis and postgres are nil when disabled.
type infrastructure struct {
	redis       *redis.Client
	resultCache *redis.ResultCache
	db          *postgres.Connection
	audit       domain.ClassificationRepository
	producer    *kafka.Producer
	checkers    []handlers.HealthChecker
	logger      logging.Logger
}

func initInfrastructure(cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (*infrastructure, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	infra := &infrastructure{logger: logger}
	sec := securityConfig(cfg.Kafka)

	if cfg.Kafka.EnsureTopics {
		tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, sec, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka topics: %w", err)
		}
		err = tm.EnsureTopics(ctx, kafka.ClassificationTopics(
			cfg.Kafka.InputTopic, cfg.Kafka.IssuedTopic, cfg.Kafka.RejectedTopic, cfg.Kafka.DeadLetterTopic))
		_ = tm.Close()
		if err != nil {
			return nil, fmt.Errorf("kafka topics: %w", err)
		}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers, Security: sec}, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	infra.producer = producer

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		}, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.redis = client
		cache := redis.NewRedisCache(client, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
		infra.resultCache = redis.NewResultCache(cache, cfg.Redis.TTL)
		infra.checkers = append(infra.checkers, client)
	}

	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.db = conn
		infra.audit = repositories.NewPostgresClassificationRepo(conn.Pool(), logger, metrics)
		infra.checkers = append(infra.checkers, conn)
	}

	return infra, nil
}

func (i *infrastructure) Close() {
	if i.db != nil {
		i.db.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
}

func securityConfig(k config.KafkaConfig) kafka.SecurityConfig {
	return kafka.SecurityConfig{
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
		TLSEnabled:    k.TLSEnabled,
		TLSCAPath:     k.TLSCAPath,
	}
}

//Personal.AI order the ending
