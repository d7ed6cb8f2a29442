package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Classify(ctx context.Context, text string) (*followup.Classification, error) {
	args := m.Called(ctx, text)
	out, _ := args.Get(0).(*followup.Classification)
	return out, args.Error(1)
}

func (m *mockService) ClassifyBatch(ctx context.Context, texts []string) ([]followup.BatchItem, error) {
	args := m.Called(ctx, texts)
	out, _ := args.Get(0).([]followup.BatchItem)
	return out, args.Error(1)
}

func (m *mockService) Categories() []domain.CategoryRecommendation {
	return m.Called().Get(0).([]domain.CategoryRecommendation)
}

func (m *mockService) GetClassification(ctx context.Context, id uuid.UUID) (*domain.ClassificationRecord, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*domain.ClassificationRecord)
	return out, args.Error(1)
}

func (m *mockService) ListClassifications(ctx context.Context, limit int) ([]*domain.ClassificationRecord, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]*domain.ClassificationRecord)
	return out, args.Error(1)
}

func solidResult() nodule.Result {
	return nodule.Result{
		Descriptor: nodule.Descriptor{
			Multiplicity:       nodule.MultiplicitySingle,
			Composition:        nodule.CompositionSolid,
			RawMeasurementText: "7 x 8 mm",
			Unit:               nodule.UnitMM,
			Measurements:       []float64{7, 8},
		},
		SizeMM:         7.5,
		Category:       2,
		Recommendation: "CT in 6-12 months",
	}
}

type HandlersTestSuite struct {
	suite.Suite
	svc    *mockService
	engine *gin.Engine
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.svc = new(mockService)
	s.engine = gin.New()
	api := s.engine.Group("/api/v1")
	NewClassifyHandler(s.svc).RegisterRoutes(api)
	NewClassificationHandler(s.svc).RegisterRoutes(api)
}

func (s *HandlersTestSuite) TearDownTest() {
	s.svc.AssertExpectations(s.T())
}

func (s *HandlersTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) errorBody(w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *HandlersTestSuite) TestClassify_Success() {
	id := uuid.New()
	s.svc.On("Classify", mock.Anything, "Solid nodule 7 x 8 mm.").
		Return(&followup.Classification{ID: id, Result: solidResult()}, nil)

	w := s.do(http.MethodPost, "/api/v1/classify", `{"text":"Solid nodule 7 x 8 mm."}`)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(id.String(), w.Header().Get(headerClassificationID))
	s.Equal("MISS", w.Header().Get(headerCache))
	var res nodule.Result
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal(solidResult(), res)
}

func (s *HandlersTestSuite) TestClassify_CachedWithoutAudit() {
	s.svc.On("Classify", mock.Anything, mock.Anything).
		Return(&followup.Classification{Result: solidResult(), Cached: true}, nil)

	w := s.do(http.MethodPost, "/api/v1/classify", `{"text":"x"}`)

	s.Equal(http.StatusOK, w.Code)
	s.Empty(w.Header().Get(headerClassificationID))
	s.Equal("HIT", w.Header().Get(headerCache))
}

func (s *HandlersTestSuite) TestClassify_TypedFailures() {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errors.New(errors.ErrCodeNotANoduleReference, "text does not reference a nodule"), http.StatusUnprocessableEntity, "NOD_001"},
		{errors.New(errors.ErrCodeMeasurementNotFound, "no nodule measurement found"), http.StatusUnprocessableEntity, "NOD_002"},
		{errors.New(errors.ErrCodeEmptyInput, "text is empty"), http.StatusBadRequest, "NOD_004"},
	}
	for _, tt := range tests {
		s.Run(tt.code, func() {
			s.SetupTest()
			s.svc.On("Classify", mock.Anything, "sentence").Return(nil, tt.err)

			w := s.do(http.MethodPost, "/api/v1/classify", `{"text":"sentence"}`)

			s.Equal(tt.status, w.Code)
			body := s.errorBody(w)
			s.Equal(tt.code, body.Code)
			s.Equal(errors.GetMessage(tt.err), body.Message)
		})
	}
}

func (s *HandlersTestSuite) TestClassify_BadBody() {
	w := s.do(http.MethodPost, "/api/v1/classify", `{"text":`)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("COMMON_002", s.errorBody(w).Code)
	s.svc.AssertNotCalled(s.T(), "Classify", mock.Anything, mock.Anything)
}

func (s *HandlersTestSuite) TestClassify_InternalErrorMasked() {
	s.svc.On("Classify", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeInternal, "pool exhausted at 10.0.0.3"))

	w := s.do(http.MethodPost, "/api/v1/classify", `{"text":"x"}`)

	s.Equal(http.StatusInternalServerError, w.Code)
	body := s.errorBody(w)
	s.Equal("internal server error", body.Message)
	s.NotContains(w.Body.String(), "10.0.0.3")
}

func (s *HandlersTestSuite) TestClassifyBatch() {
	res := solidResult()
	items := []followup.BatchItem{
		{Index: 0, Result: &res},
		{Index: 1, Error: &followup.ItemError{Code: "NOD_001", Message: "text does not reference a nodule"}},
	}
	s.svc.On("ClassifyBatch", mock.Anything, []string{"a", "b"}).Return(items, nil)

	w := s.do(http.MethodPost, "/api/v1/classify/batch", `{"texts":["a","b"]}`)

	s.Equal(http.StatusOK, w.Code)
	var resp BatchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Items, 2)
	s.Equal(7.5, resp.Items[0].Result.SizeMM)
	s.Nil(resp.Items[0].Error)
	s.Nil(resp.Items[1].Result)
	s.Equal("NOD_001", resp.Items[1].Error.Code)
}

func (s *HandlersTestSuite) TestClassifyBatch_TooLarge() {
	s.svc.On("ClassifyBatch", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeBatchTooLarge, "batch exceeds maximum size").WithDetail("3 > 2 items"))

	w := s.do(http.MethodPost, "/api/v1/classify/batch", `{"texts":["a","b","c"]}`)

	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	body := s.errorBody(w)
	s.Equal("NOD_005", body.Code)
	s.Equal("3 > 2 items", body.Detail)
}

func (s *HandlersTestSuite) TestCategories() {
	s.svc.On("Categories").Return([]domain.CategoryRecommendation{
		{Category: 0, Recommendation: "No routine follow-up required."},
		{Category: 2, Recommendation: "CT in 6-12 months"},
	})

	w := s.do(http.MethodGet, "/api/v1/categories", "")

	s.Equal(http.StatusOK, w.Code)
	var resp CategoriesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Categories, 2)
	s.Equal(nodule.Category(2), resp.Categories[1].Category)
}

func (s *HandlersTestSuite) TestGetClassification() {
	id := uuid.New()
	rec := &domain.ClassificationRecord{
		ID: id, Source: domain.SourceHTTP, Sentence: "solid nodule 7 x 8 mm",
		Result: solidResult(), CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.svc.On("GetClassification", mock.Anything, id).Return(rec, nil)

	w := s.do(http.MethodGet, "/api/v1/classifications/"+id.String(), "")

	s.Equal(http.StatusOK, w.Code)
	var got domain.ClassificationRecord
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(id, got.ID)
	s.Equal(rec.CreatedAt, got.CreatedAt)
}

func (s *HandlersTestSuite) TestGetClassification_Errors() {
	w := s.do(http.MethodGet, "/api/v1/classifications/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, w.Code)

	missing := uuid.New()
	s.svc.On("GetClassification", mock.Anything, missing).
		Return(nil, errors.NotFound("classification not found"))
	w = s.do(http.MethodGet, "/api/v1/classifications/"+missing.String(), "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestListClassifications() {
	s.svc.On("ListClassifications", mock.Anything, 5).
		Return([]*domain.ClassificationRecord{{ID: uuid.New()}}, nil)

	w := s.do(http.MethodGet, "/api/v1/classifications?limit=5", "")

	s.Equal(http.StatusOK, w.Code)
	var resp ClassificationListResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Items, 1)
	s.Equal(5, resp.Limit)
}

func (s *HandlersTestSuite) TestListClassifications_LimitHandling() {
	s.svc.On("ListClassifications", mock.Anything, domain.DefaultListLimit).Return(nil, nil).Once()
	w := s.do(http.MethodGet, "/api/v1/classifications", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"items":[]`)

	s.svc.On("ListClassifications", mock.Anything, domain.MaxListLimit).Return(nil, nil).Once()
	w = s.do(http.MethodGet, "/api/v1/classifications?limit=5000", "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/classifications?limit=abc", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestListClassifications_AuditDisabled() {
	s.svc.On("ListClassifications", mock.Anything, mock.Anything).
		Return(nil, errors.Unavailable("audit store is not configured"))

	w := s.do(http.MethodGet, "/api/v1/classifications", "")

	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("COMMON_008", s.errorBody(w).Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                  { return f.name }
func (f fakeChecker) Check(ctx context.Context) error { return f.err }

func healthEngine(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestHealthHandler_Liveness(t *testing.T) {
	r := healthEngine(NewHealthHandler("1.2.3", fakeChecker{name: "postgres", err: errors.New(errors.ErrCodeDBConnectionError, "down")}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
		body     string
	}{
		{"no checkers", nil, http.StatusOK, `"status":"ready"`},
		{"all healthy", []HealthChecker{fakeChecker{name: "postgres"}, fakeChecker{name: "redis"}}, http.StatusOK, `"status":"ready"`},
		{"one failing", []HealthChecker{
			fakeChecker{name: "postgres"},
			fakeChecker{name: "redis", err: errors.New(errors.ErrCodeCacheUnavailable, "connection refused")},
		}, http.StatusServiceUnavailable, `"status":"not_ready"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := healthEngine(NewHealthHandler("dev", tt.checkers...))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.body), w.Body.String())
		})
	}
}

func TestHealthHandler_ComponentDetail(t *testing.T) {
	h := NewHealthHandler("dev", fakeChecker{name: "redis", err: errors.New(errors.ErrCodeCacheUnavailable, "connection refused")})
	got := h.checkAll(context.Background())
	require.Contains(t, got, "redis")
	assert.Equal(t, statusUnhealthy, got["redis"].Status)
	assert.Contains(t, got["redis"].Error, "connection refused")
	assert.NotEmpty(t, got["redis"].Latency)
}

//Personal.AI order the ending
