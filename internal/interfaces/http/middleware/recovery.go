package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(logger logging.Logger, metrics *prometheus.AppMetrics) gin.HandlerFunc {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("panic recovered",
				logging.String("panic", fmt.Sprint(rec)),
				logging.String("path", c.Request.URL.Path),
				logging.String("request_id", GetRequestID(c)),
				logging.String("stack", string(debug.Stack())))
			prometheus.RecordError(metrics, "http", string(errors.ErrCodeInternal))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    errors.ErrCodeInternal,
				"message": errors.DefaultMessageForCode(errors.ErrCodeInternal),
			})
		}()
		c.Next()
	}
}

//Personal.AI order the ending
