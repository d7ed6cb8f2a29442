package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
)

const (
	headerClassificationID = "X-Classification-ID"
	headerCache            = "X-Cache"
)

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the body of POST /classify/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

// BatchResponse wraps the per-item outcomes in input order.
type BatchResponse struct {
	Items []followup.BatchItem `json:"items"`
}

// CategoriesResponse lists the recommendation table.
type CategoriesResponse struct {
	Categories []domain.CategoryRecommendation `json:"categories"`
}

// ClassifyHandler serves the classification endpoints.
type ClassifyHandler struct {
	svc ClassificationService
}

func NewClassifyHandler(svc ClassificationService) *ClassifyHandler {
	return &ClassifyHandler{svc: svc}
}

// RegisterRoutes mounts the handler on an /api/v1 group.
func (h *ClassifyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/classify", h.Classify)
	rg.POST("/classify/batch", h.ClassifyBatch)
	rg.GET("/categories", h.Categories)
}

// Classify handles POST /api/v1/classify.  The body is the bare Result; the
// audit id, when one was written, travels in X-Classification-ID.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	out, err := h.svc.Classify(c.Request.Context(), req.Text)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if out.ID != uuid.Nil {
		c.Header(headerClassificationID, out.ID.String())
	}
	if out.Cached {
		c.Header(headerCache, "HIT")
	} else {
		c.Header(headerCache, "MISS")
	}
	c.JSON(http.StatusOK, out.Result)
}

// ClassifyBatch handles POST /api/v1/classify/batch.  Item failures are
// reported inside a 200; only an empty or oversized batch fails as a whole.
func (h *ClassifyHandler) ClassifyBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	items, err := h.svc.ClassifyBatch(c.Request.Context(), req.Texts)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Items: items})
}

// Categories handles GET /api/v1/categories.
func (h *ClassifyHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, CategoriesResponse{Categories: h.svc.Categories()})
}

//Personal.AI order the ending
