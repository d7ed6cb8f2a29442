package repositories

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

type ClassificationRepoTestSuite struct {
	suite.Suite
	db   *fakeExecutor
	repo followup.ClassificationRepository
}

func (s *ClassificationRepoTestSuite) SetupTest() {
	s.db = &fakeExecutor{}
	s.repo = NewPostgresClassificationRepo(s.db, logging.NewNopLogger(), nil)
}

func sampleResult() nodule.Result {
	return nodule.Result{
		Descriptor: nodule.Descriptor{
			Multiplicity:       nodule.MultiplicitySingle,
			Composition:        nodule.CompositionPartSolid,
			RawMeasurementText: "6 x 4 x 8 mm",
			Unit:               nodule.UnitMM,
			Measurements:       []float64{6, 4, 8},
		},
		SizeMM:         7,
		Category:       5,
		Recommendation: "CT in 3-6 months, then 18-24 months if unchanged.",
	}
}

func row(id uuid.UUID, created time.Time) []any {
	res := sampleResult()
	return []any{
		id, "req-1", followup.SourceHTTP, "part solid nodule 6 x 4 x 8 mm",
		"SINGLE", "PART_SOLID", false,
		"6 x 4 x 8 mm", "mm", []float64{6, 4, 8},
		7.0, 5, res.Recommendation, created,
	}
}

func (s *ClassificationRepoTestSuite) TestSave_AssignsIDAndTimestamp() {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.db.row = [][]any{{created}}

	rec := &followup.ClassificationRecord{Source: followup.SourceCLI, Sentence: "s", Result: sampleResult()}
	s.Require().NoError(s.repo.Save(context.Background(), rec))

	s.NotEqual(uuid.Nil, rec.ID)
	s.Equal(created, rec.CreatedAt)
	s.Contains(s.db.lastSQL, "INSERT INTO nodule_classifications")
	s.Len(s.db.lastArgs, 13)
	s.Equal("PART_SOLID", s.db.lastArgs[5])
	s.Equal([]float64{6, 4, 8}, s.db.lastArgs[9])
	s.Equal(5, s.db.lastArgs[11])
}

func (s *ClassificationRepoTestSuite) TestSave_NilMeasurementsStoredAsEmptyArray() {
	s.db.row = [][]any{{time.Now()}}
	rec := followup.NewClassificationRecord(followup.SourceHTTP, "", "s", nodule.Result{})
	s.Require().NoError(s.repo.Save(context.Background(), rec))
	s.Equal([]float64{}, s.db.lastArgs[9])
}

func (s *ClassificationRepoTestSuite) TestSave_DuplicateIsConflict() {
	s.db.rowErr = &pgconn.PgError{Code: "23505"}
	err := s.repo.Save(context.Background(), followup.NewClassificationRecord(followup.SourceHTTP, "", "s", sampleResult()))
	s.True(errors.IsCode(err, errors.ErrCodeConflict))
}

func (s *ClassificationRepoTestSuite) TestSave_QueryError() {
	s.db.rowErr = stderrors.New("connection refused")
	err := s.repo.Save(context.Background(), followup.NewClassificationRecord(followup.SourceHTTP, "", "s", sampleResult()))
	s.True(errors.IsCode(err, errors.ErrCodeDBQueryError))
}

func (s *ClassificationRepoTestSuite) TestFindByID_Found() {
	id := uuid.New()
	created := time.Now().UTC()
	s.db.row = [][]any{row(id, created)}

	rec, err := s.repo.FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(id, rec.ID)
	s.Equal(sampleResult(), rec.Result)
	s.Equal(created, rec.CreatedAt)
	s.Equal([]any{id}, s.db.lastArgs)
}

func (s *ClassificationRepoTestSuite) TestFindByID_NotFound() {
	_, err := s.repo.FindByID(context.Background(), uuid.New())
	s.True(errors.IsNotFound(err))
}

func (s *ClassificationRepoTestSuite) TestListRecent_ClampsLimit() {
	s.db.rows = [][]any{row(uuid.New(), time.Now()), row(uuid.New(), time.Now())}

	recs, err := s.repo.ListRecent(context.Background(), 1000)
	s.Require().NoError(err)
	s.Len(recs, 2)
	s.Contains(s.db.lastSQL, "ORDER BY created_at DESC")
	s.Equal([]any{followup.MaxListLimit}, s.db.lastArgs)
}

func (s *ClassificationRepoTestSuite) TestListRecent_Empty() {
	recs, err := s.repo.ListRecent(context.Background(), 0)
	s.Require().NoError(err)
	s.NotNil(recs)
	s.Empty(recs)
	s.Equal([]any{followup.DefaultListLimit}, s.db.lastArgs)
}

func (s *ClassificationRepoTestSuite) TestListRecent_IterationError() {
	s.db.iterErr = stderrors.New("conn closed")
	_, err := s.repo.ListRecent(context.Background(), 5)
	s.True(errors.IsCode(err, errors.ErrCodeDBQueryError))
}

func TestClassificationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ClassificationRepoTestSuite))
}

//Personal.AI order the ending
