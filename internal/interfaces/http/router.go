// Package http wires the gin engine that serves the classification API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/internal/interfaces/http/handlers"
	"github.com/turtacn/NoduleAdvisor/internal/interfaces/http/middleware"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

const defaultMetricsPath = "/metrics"

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	ClassifyHandler       *handlers.ClassifyHandler
	ClassificationHandler *handlers.ClassificationHandler
	HealthHandler         *handlers.HealthHandler

	// CORS is optional; nil disables cross-origin support.
	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the engine: global middleware, probes, /metrics and the
// /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Code: string(errors.ErrCodeNotFound), Message: "route not found"})
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = defaultMetricsPath
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.ClassifyHandler != nil {
		cfg.ClassifyHandler.RegisterRoutes(api)
	}
	if cfg.ClassificationHandler != nil {
		cfg.ClassificationHandler.RegisterRoutes(api)
	}
	return r
}

//Personal.AI order the ending
