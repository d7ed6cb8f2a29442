// API server entry point for NoduleAdvisor.
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
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const initTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: search standard locations)")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath, "configs/config.yaml", "/etc/nodule/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
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

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	logger.Info("starting NoduleAdvisor API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("addr", cfg.Server.Addr()))

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
		followup.WithSource(domain.SourceHTTP),
	}
	if infra.resultCache != nil {
		opts = append(opts, followup.WithResultCache(infra.resultCache))
	}
	if infra.audit != nil {
		opts = append(opts, followup.WithAuditRepository(infra.audit))
	}
	if infra.producer != nil {
		opts = append(opts, followup.WithEventPublisher(infra.producer, cfg.Kafka.IssuedTopic))
	}
	svc := followup.NewService(cfg.Classifier, opts...)

	gin.SetMode(cfg.Server.Mode)
	routerCfg := httpserver.RouterConfig{
		ClassifyHandler:       handlers.NewClassifyHandler(svc),
		ClassificationHandler: handlers.NewClassificationHandler(svc),
		HealthHandler:         handlers.NewHealthHandler(version, infra.checkers...),
		Logging:               middleware.DefaultLoggingConfig(),
		Logger:                logger,
		Metrics:               metrics,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Server.Mode == "debug" {
		cors := middleware.DefaultCORSConfig()
		routerCfg.CORS = &cors
	}
	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// infrastructure holds the optional backends.  Each one is nil when its
// section is disabled.
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
		cache := redis.NewRedisCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.TTL))
		infra.resultCache = redis.NewResultCache(cache, cfg.Redis.TTL)
		infra.checkers = append(infra.checkers, client)
	}

	if cfg.Database.Enabled {
		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsPath, logger).Up(); err != nil {
				infra.Close()
				return nil, err
			}
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.db = conn
		infra.audit = repositories.NewPostgresClassificationRepo(conn.Pool(), logger, metrics)
		infra.checkers = append(infra.checkers, conn)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:  cfg.Kafka.Brokers,
			Security: securityConfig(cfg.Kafka),
		}, logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		infra.producer = producer
	}

	return infra, nil
}

// Close releases the backends in reverse order of creation.
func (i *infrastructure) Close() {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			i.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if i.db != nil {
		i.db.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			i.logger.Warn("redis close failed", logging.Err(err))
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
