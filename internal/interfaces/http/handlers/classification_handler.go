package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
)

// ClassificationListResponse is the body of GET /classifications.
type ClassificationListResponse struct {
	Items []*domain.ClassificationRecord `json:"items"`
	Limit int                            `json:"limit"`
}

// ClassificationHandler exposes the audit trail.  Every route answers 503
// when the server runs without an audit store.
type ClassificationHandler struct {
	svc ClassificationService
}

func NewClassificationHandler(svc ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{svc: svc}
}

func (h *ClassificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/classifications", h.List)
	rg.GET("/classifications/:id", h.Get)
}

// Get handles GET /api/v1/classifications/:id.
func (h *ClassificationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid classification id", err)
		return
	}
	rec, err := h.svc.GetClassification(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List handles GET /api/v1/classifications?limit=n, newest first.
func (h *ClassificationHandler) List(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		writeAppError(c, err)
		return
	}
	items, err := h.svc.ListClassifications(c.Request.Context(), limit)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if items == nil {
		items = []*domain.ClassificationRecord{}
	}
	c.JSON(http.StatusOK, ClassificationListResponse{Items: items, Limit: limit})
}

//Personal.AI order the ending
