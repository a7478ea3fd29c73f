package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/repository/sqlite"
	"studycore/internal/store"
	"studycore/internal/testutil"
)

type StudyRepositorySuite struct {
	suite.Suite
	db   *store.DB
	repo repository.StudyRepository
}

func (s *StudyRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewStudyRepository(s.db)
}

func (s *StudyRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *StudyRepositorySuite) TestPutAndGet() {
	ctx := context.Background()
	snap := models.StudySnapshot{
		SessionID:      "math:study",
		SubjectID:      "math",
		CursorIndex:    7,
		MarkedIDs:      []string{"c2", "c9"},
		StudiedIndices: []int{0, 1, 2, 5, 7},
		Revision:       3,
		SavedAt:        time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}

	s.Require().NoError(s.repo.Put(ctx, snap))

	got, err := s.repo.Get(ctx, "math:study")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(snap.SubjectID, got.SubjectID)
	s.Equal(snap.CursorIndex, got.CursorIndex)
	s.Equal(snap.MarkedIDs, got.MarkedIDs)
	s.Equal(snap.StudiedIndices, got.StudiedIndices)
	s.Equal(snap.Revision, got.Revision)
}

func (s *StudyRepositorySuite) TestGet_AbsentReturnsNil() {
	got, err := s.repo.Get(context.Background(), "no-such-session")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *StudyRepositorySuite) TestPut_StaleRevisionDoesNotRegress() {
	ctx := context.Background()

	newer := models.StudySnapshot{SessionID: "math:study", SubjectID: "math", CursorIndex: 20, Revision: 5, SavedAt: time.Now().UTC()}
	s.Require().NoError(s.repo.Put(ctx, newer))

	stale := models.StudySnapshot{SessionID: "math:study", SubjectID: "math", CursorIndex: 4, Revision: 2, SavedAt: time.Now().UTC()}
	s.Require().NoError(s.repo.Put(ctx, stale))

	got, err := s.repo.Get(ctx, "math:study")
	s.Require().NoError(err)
	s.Equal(int64(5), got.Revision)
	s.Equal(20, got.CursorIndex)
}

func (s *StudyRepositorySuite) TestListAndDelete() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Put(ctx, models.StudySnapshot{SessionID: "math:study", SubjectID: "math", SavedAt: time.Now().UTC()}))
	s.Require().NoError(s.repo.Put(ctx, models.StudySnapshot{SessionID: "physics:study", SubjectID: "physics", SavedAt: time.Now().UTC()}))

	snaps, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Len(snaps, 2)

	s.Require().NoError(s.repo.Delete(ctx, "math:study"))

	snaps, err = s.repo.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(snaps, 1)
	s.Equal("physics:study", snaps[0].SessionID)
}

func TestStudyRepositorySuite(t *testing.T) {
	suite.Run(t, new(StudyRepositorySuite))
}
