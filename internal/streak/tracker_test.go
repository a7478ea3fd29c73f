package streak_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"studycore/internal/models"
	"studycore/internal/repository/sqlite"
	"studycore/internal/store"
	"studycore/internal/streak"
	"studycore/internal/testutil"
)

type TrackerSuite struct {
	suite.Suite
	db      *store.DB
	tracker *streak.Tracker
}

func (s *TrackerSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.tracker = streak.NewTracker(sqlite.NewStreakRepository(s.db))
}

func (s *TrackerSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *TrackerSuite) TestDailyActivity_FirstEventStartsAtOne() {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	st, err := s.tracker.RecordDailyActivity(ctx, now)
	s.Require().NoError(err)
	s.Equal(1, st.Current)
	s.Equal(1, st.Best)
}

func (s *TrackerSuite) TestDailyActivity_SameDayIsIdempotent() {
	ctx := context.Background()
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)

	_, err := s.tracker.RecordDailyActivity(ctx, morning)
	s.Require().NoError(err)

	st, err := s.tracker.RecordDailyActivity(ctx, evening)
	s.Require().NoError(err)
	s.Equal(1, st.Current, "a second event on the same calendar day must not advance the streak")

	persisted, err := s.tracker.Get(ctx, models.StreakDaily)
	s.Require().NoError(err)
	s.Equal(1, persisted.Current)
}

func (s *TrackerSuite) TestDailyActivity_ConsecutiveDaysIncrement() {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for day := 0; day < 4; day++ {
		st, err := s.tracker.RecordDailyActivity(ctx, start.AddDate(0, 0, day))
		s.Require().NoError(err)
		s.Equal(day+1, st.Current)
	}

	st, err := s.tracker.Get(ctx, models.StreakDaily)
	s.Require().NoError(err)
	s.Equal(4, st.Current)
	s.Equal(4, st.Best)
}

func (s *TrackerSuite) TestDailyActivity_GapResetsToOne() {
	ctx := context.Background()
	day1 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)
	day6 := day1.AddDate(0, 0, 5)

	for _, d := range []time.Time{day1, day2, day3} {
		_, err := s.tracker.RecordDailyActivity(ctx, d)
		s.Require().NoError(err)
	}

	st, err := s.tracker.RecordDailyActivity(ctx, day6)
	s.Require().NoError(err)
	s.Equal(1, st.Current, "a multi-day gap restarts the streak")
	s.Equal(3, st.Best, "best survives the reset")
}

func (s *TrackerSuite) TestDailyActivity_LateNightToEarlyMorningCounts() {
	ctx := context.Background()
	lateNight := time.Date(2026, 3, 10, 23, 55, 0, 0, time.UTC)
	earlyNext := time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC)

	_, err := s.tracker.RecordDailyActivity(ctx, lateNight)
	s.Require().NoError(err)

	// Ten minutes apart, but a calendar day boundary was crossed.
	st, err := s.tracker.RecordDailyActivity(ctx, earlyNext)
	s.Require().NoError(err)
	s.Equal(2, st.Current)
}

func (s *TrackerSuite) TestRecordAnswer_CorrectIncrementsWrongResets() {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		st, err := s.tracker.RecordAnswer(ctx, true)
		s.Require().NoError(err)
		s.Equal(i, st.Current)
	}

	st, err := s.tracker.RecordAnswer(ctx, false)
	s.Require().NoError(err)
	s.Equal(0, st.Current)
	s.Equal(3, st.Best)

	st, err = s.tracker.RecordAnswer(ctx, true)
	s.Require().NoError(err)
	s.Equal(1, st.Current)
	s.Equal(3, st.Best, "best never decreases")
}

func (s *TrackerSuite) TestResetCurrent_PreservesBest() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.tracker.RecordAnswer(ctx, true)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.tracker.ResetCurrent(ctx, models.StreakCorrectAnswers))

	st, err := s.tracker.Get(ctx, models.StreakCorrectAnswers)
	s.Require().NoError(err)
	s.Equal(0, st.Current)
	s.Equal(5, st.Best)
}

func (s *TrackerSuite) TestStreaksAreIndependent() {
	ctx := context.Background()

	_, err := s.tracker.RecordAnswer(ctx, true)
	s.Require().NoError(err)
	_, err = s.tracker.RecordDailyActivity(ctx, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(err)

	answer, err := s.tracker.Get(ctx, models.StreakCorrectAnswers)
	s.Require().NoError(err)
	daily, err := s.tracker.Get(ctx, models.StreakDaily)
	s.Require().NoError(err)

	s.Equal(1, answer.Current)
	s.Equal(1, daily.Current)

	// Resetting one leaves the other untouched.
	s.Require().NoError(s.tracker.ResetCurrent(ctx, models.StreakCorrectAnswers))
	daily, err = s.tracker.Get(ctx, models.StreakDaily)
	s.Require().NoError(err)
	s.Equal(1, daily.Current)
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}
