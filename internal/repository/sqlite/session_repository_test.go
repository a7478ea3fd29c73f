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

type SessionRepositorySuite struct {
	suite.Suite
	db   *store.DB
	repo repository.SessionRepository
}

func (s *SessionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewSessionRepository(s.db)
}

func (s *SessionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *SessionRepositorySuite) snapshot(sessionID string) models.ExamSnapshot {
	return models.ExamSnapshot{
		SessionID:        sessionID,
		SubjectID:        "math",
		Mode:             models.ModeExam,
		CursorIndex:      4,
		Answers:          map[string]int{"q1": 2, "q2": 0},
		FlaggedIDs:       []string{"q3"},
		QuestionOrder:    []string{"q1", "q2", "q3", "q4"},
		RemainingSeconds: 1800,
		TimerRunning:     true,
		Revision:         1,
		StartedAt:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		SavedAt:          time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC),
	}
}

func (s *SessionRepositorySuite) TestPutAndGet() {
	ctx := context.Background()
	snap := s.snapshot("math:exam")

	s.Require().NoError(s.repo.Put(ctx, snap))

	got, err := s.repo.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(snap.SessionID, got.SessionID)
	s.Equal(snap.SubjectID, got.SubjectID)
	s.Equal(snap.Mode, got.Mode)
	s.Equal(snap.CursorIndex, got.CursorIndex)
	s.Equal(snap.Answers, got.Answers)
	s.Equal(snap.FlaggedIDs, got.FlaggedIDs)
	s.Equal(snap.QuestionOrder, got.QuestionOrder)
	s.Equal(snap.RemainingSeconds, got.RemainingSeconds)
	s.Equal(snap.TimerRunning, got.TimerRunning)
	s.Equal(snap.Revision, got.Revision)
	s.False(got.Synced)
}

func (s *SessionRepositorySuite) TestGet_AbsentReturnsNil() {
	got, err := s.repo.Get(context.Background(), "no-such-session")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *SessionRepositorySuite) TestPut_IsIdempotent() {
	ctx := context.Background()
	snap := s.snapshot("math:exam")

	s.Require().NoError(s.repo.Put(ctx, snap))
	s.Require().NoError(s.repo.Put(ctx, snap))
	s.Require().NoError(s.repo.Put(ctx, snap))

	snaps, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Len(snaps, 1, "re-putting the same snapshot must not create rows")
}

func (s *SessionRepositorySuite) TestPut_StaleRevisionDoesNotRegress() {
	ctx := context.Background()

	newer := s.snapshot("math:exam")
	newer.Revision = 7
	newer.CursorIndex = 12
	s.Require().NoError(s.repo.Put(ctx, newer))

	stale := s.snapshot("math:exam")
	stale.Revision = 3
	stale.CursorIndex = 2
	s.Require().NoError(s.repo.Put(ctx, stale))

	got, err := s.repo.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(7), got.Revision, "stale save must lose to the newer row")
	s.Equal(12, got.CursorIndex)
}

func (s *SessionRepositorySuite) TestPut_NewerRevisionWins() {
	ctx := context.Background()

	first := s.snapshot("math:exam")
	first.Revision = 1
	s.Require().NoError(s.repo.Put(ctx, first))

	second := s.snapshot("math:exam")
	second.Revision = 2
	second.CursorIndex = 9
	s.Require().NoError(s.repo.Put(ctx, second))

	got, err := s.repo.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.Equal(int64(2), got.Revision)
	s.Equal(9, got.CursorIndex)
}

func (s *SessionRepositorySuite) TestUnsyncedAndMarkSynced() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Put(ctx, s.snapshot("math:exam")))
	s.Require().NoError(s.repo.Put(ctx, s.snapshot("physics:exam")))

	unsynced, err := s.repo.Unsynced(ctx)
	s.Require().NoError(err)
	s.Len(unsynced, 2)

	s.Require().NoError(s.repo.MarkSynced(ctx, "math:exam"))

	unsynced, err = s.repo.Unsynced(ctx)
	s.Require().NoError(err)
	s.Require().Len(unsynced, 1)
	s.Equal("physics:exam", unsynced[0].SessionID)

	got, err := s.repo.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.True(got.Synced)
}

func (s *SessionRepositorySuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Put(ctx, s.snapshot("math:exam")))

	s.Require().NoError(s.repo.Delete(ctx, "math:exam"))

	got, err := s.repo.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.Nil(got)

	// Deleting an absent row is a no-op, not an error.
	s.Require().NoError(s.repo.Delete(ctx, "math:exam"))
}

func (s *SessionRepositorySuite) TestPut_EmptyCollections() {
	ctx := context.Background()
	snap := models.ExamSnapshot{
		SessionID:     "bare:exam",
		SubjectID:     "bare",
		Mode:          models.ModeExam,
		QuestionOrder: []string{"q1"},
		StartedAt:     time.Now().UTC(),
		SavedAt:       time.Now().UTC(),
	}
	s.Require().NoError(s.repo.Put(ctx, snap))

	got, err := s.repo.Get(ctx, "bare:exam")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Empty(got.Answers)
	s.Empty(got.FlaggedIDs)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}
