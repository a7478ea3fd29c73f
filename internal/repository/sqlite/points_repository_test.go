package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"studycore/internal/repository"
	"studycore/internal/repository/sqlite"
	"studycore/internal/store"
	"studycore/internal/testutil"
)

type PointsRepositorySuite struct {
	suite.Suite
	db   *store.DB
	repo repository.PointsRepository
}

func (s *PointsRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewPointsRepository(s.db)
}

func (s *PointsRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *PointsRepositorySuite) TestGet_LazyZeroDefaults() {
	points, err := s.repo.Get(context.Background())
	s.Require().NoError(err)
	s.Equal(0, points.TotalXP)
	s.Equal(0, points.TotalCorrectAnswers)
	s.Equal(0, points.TotalExamsCompleted)
}

func (s *PointsRepositorySuite) TestRecordAnswer_CorrectAddsXPAndCount() {
	ctx := context.Background()

	points, err := s.repo.RecordAnswer(ctx, true, 15)
	s.Require().NoError(err)
	s.Equal(15, points.TotalXP)
	s.Equal(1, points.TotalCorrectAnswers)
	s.Equal(0, points.TotalWrongAnswers)

	points, err = s.repo.RecordAnswer(ctx, true, 20)
	s.Require().NoError(err)
	s.Equal(35, points.TotalXP)
	s.Equal(2, points.TotalCorrectAnswers)
}

func (s *PointsRepositorySuite) TestRecordAnswer_WrongOnlyCounts() {
	ctx := context.Background()

	points, err := s.repo.RecordAnswer(ctx, false, 0)
	s.Require().NoError(err)
	s.Equal(0, points.TotalXP)
	s.Equal(0, points.TotalCorrectAnswers)
	s.Equal(1, points.TotalWrongAnswers)
}

func (s *PointsRepositorySuite) TestRecordExam() {
	ctx := context.Background()

	points, err := s.repo.RecordExam(ctx, 150, true)
	s.Require().NoError(err)
	s.Equal(150, points.TotalXP)
	s.Equal(1, points.TotalExamsCompleted)
	s.Equal(1, points.PerfectExams)

	points, err = s.repo.RecordExam(ctx, 60, false)
	s.Require().NoError(err)
	s.Equal(210, points.TotalXP)
	s.Equal(2, points.TotalExamsCompleted)
	s.Equal(1, points.PerfectExams)
}

func (s *PointsRepositorySuite) TestRecordStudySession() {
	ctx := context.Background()

	points, err := s.repo.RecordStudySession(ctx, 45)
	s.Require().NoError(err)
	s.Equal(45, points.TotalXP)
	s.Equal(1, points.TotalStudySessions)
}

func (s *PointsRepositorySuite) TestAddXP_NeverGoesNegative() {
	ctx := context.Background()

	points, err := s.repo.AddXP(ctx, 30)
	s.Require().NoError(err)
	s.Equal(30, points.TotalXP)

	points, err = s.repo.AddXP(ctx, -100)
	s.Require().NoError(err)
	s.Equal(0, points.TotalXP, "the ledger floors at zero")
}

func (s *PointsRepositorySuite) TestCountersPersistAcrossReads() {
	ctx := context.Background()

	_, err := s.repo.RecordAnswer(ctx, true, 10)
	s.Require().NoError(err)
	_, err = s.repo.RecordExam(ctx, 100, false)
	s.Require().NoError(err)

	points, err := s.repo.Get(ctx)
	s.Require().NoError(err)
	s.Equal(110, points.TotalXP)
	s.Equal(1, points.TotalCorrectAnswers)
	s.Equal(1, points.TotalExamsCompleted)
}

func TestPointsRepositorySuite(t *testing.T) {
	suite.Run(t, new(PointsRepositorySuite))
}
