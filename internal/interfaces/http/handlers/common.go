// Package handlers implements the gin handlers of the classification API.
package handlers

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

// ClassificationService is the application surface used by the handlers.
// *followup.Service satisfies it.
type ClassificationService interface {
	Classify(ctx context.Context, text string) (*followup.Classification, error)
	ClassifyBatch(ctx context.Context, texts []string) ([]followup.BatchItem, error)
	Categories() []domain.CategoryRecommendation
	GetClassification(ctx context.Context, id uuid.UUID) (*domain.ClassificationRecord, error)
	ListClassifications(ctx context.Context, limit int) ([]*domain.ClassificationRecord, error)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps err to its HTTP status.  Server side failures are
// masked so infrastructure details never reach the client.  The request log
// only sees the code and message: the detail of a classification failure is
// the submitted report text.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code), Message: errors.GetMessage(err)}
	if status >= 500 {
		resp.Message = errors.DefaultMessageForCode(code)
	} else {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			resp.Detail = ae.Detail
		}
	}
	_ = c.Error(errors.New(code, resp.Message))
	c.AbortWithStatusJSON(status, resp)
}

// badRequest answers a malformed request body or parameter.
func badRequest(c *gin.Context, msg string, cause error) {
	err := errors.New(errors.ErrCodeBadRequest, msg)
	if cause != nil {
		err = err.WithDetail(cause.Error())
	}
	writeAppError(c, err)
}

// parseLimit reads ?limit=n; absent means the list default.
func parseLimit(c *gin.Context) (int, error) {
	v := c.Query("limit")
	if v == "" {
		return domain.DefaultListLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New(errors.ErrCodeBadRequest, "limit must be a positive integer")
	}
	return domain.ClampListLimit(n), nil
}

//Personal.AI order the ending
