package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"studycore/internal/achievements"
	"studycore/internal/errors"
	"studycore/internal/models"
	"studycore/internal/repository/sqlite"
	"studycore/internal/services"
	"studycore/internal/store"
	"studycore/internal/streak"
	"studycore/internal/testutil"
)

type ProgressionServiceSuite struct {
	suite.Suite
	db *store.DB
}

func (s *ProgressionServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
}

func (s *ProgressionServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

// newService wires a ProgressionService over the in-memory store. An empty
// catalog keeps XP arithmetic free of achievement rewards.
func (s *ProgressionServiceSuite) newService(catalog []achievements.Achievement) services.ProgressionService {
	streakRepo := sqlite.NewStreakRepository(s.db)
	achievementRepo := sqlite.NewAchievementRepository(s.db)
	return services.NewProgressionService(
		sqlite.NewPointsRepository(s.db),
		sqlite.NewSessionRepository(s.db),
		sqlite.NewStudyRepository(s.db),
		sqlite.NewStatsRepository(s.db),
		sqlite.NewGamificationRepository(s.db),
		streak.NewTracker(streakRepo),
		achievements.NewEngine(catalog, achievementRepo),
	)
}

func (s *ProgressionServiceSuite) TestRecordAnswer_StreakBonusUsesCarriedStreak() {
	ctx := context.Background()
	svc := s.newService(nil)

	// Five consecutive correct intermediate answers. The multiplier uses the
	// streak carried into each answer (0..4), so the 1.1x bonus applies to the
	// fourth and fifth answers only.
	expected := []int{15, 15, 15, 17, 17}
	total := 0
	for i, want := range expected {
		outcome, err := svc.RecordAnswer(ctx, services.AnswerEvent{
			SubjectID:  "math",
			Difficulty: models.DifficultyIntermediate,
			Correct:    true,
		})
		s.Require().NoError(err)
		s.Equal(want, outcome.XPAwarded, "answer %d", i+1)
		s.Equal(i+1, outcome.AnswerStreak.Current)
		total += want
		s.Equal(total, outcome.Points.TotalXP, "ledger matches the running sum after answer %d", i+1)
	}
}

func (s *ProgressionServiceSuite) TestRecordAnswer_WrongBreaksStreak() {
	ctx := context.Background()
	svc := s.newService(nil)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyBasic, Correct: true})
		s.Require().NoError(err)
	}

	outcome, err := svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyBasic, Correct: false})
	s.Require().NoError(err)
	s.Equal(0, outcome.XPAwarded)
	s.Equal(0, outcome.AnswerStreak.Current)
	s.Equal(3, outcome.AnswerStreak.Best)
	s.Equal(1, outcome.Points.TotalWrongAnswers)

	// The streak bonus is gone on the next correct answer.
	outcome, err = svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyBasic, Correct: true})
	s.Require().NoError(err)
	s.Equal(10, outcome.XPAwarded)
}

func (s *ProgressionServiceSuite) TestRecordAnswer_UnlocksFirstCorrect() {
	ctx := context.Background()
	svc := s.newService(achievements.DefaultCatalog())

	outcome, err := svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyBasic, Correct: true})
	s.Require().NoError(err)
	s.Require().Len(outcome.Unlocked, 1)
	s.Equal("first_correct", outcome.Unlocked[0].AchievementID)
	// 10 answer XP plus the 10 XP unlock reward, re-read after the unlock.
	s.Equal(20, outcome.Points.TotalXP)
}

func (s *ProgressionServiceSuite) TestCompleteExam_SettlesLedgerAndDeletesSnapshot() {
	ctx := context.Background()
	svc := s.newService(nil)
	sessions := sqlite.NewSessionRepository(s.db)

	s.Require().NoError(sessions.Put(ctx, models.ExamSnapshot{
		SessionID:     "math:exam",
		SubjectID:     "math",
		Mode:          models.ModeExam,
		QuestionOrder: []string{"q1", "q2", "q3", "q4", "q5"},
	}))

	outcome, err := svc.CompleteExam(ctx, models.ExamResult{
		SessionID:      "math:exam",
		SubjectID:      "math",
		Mode:           models.ModeExam,
		TotalQuestions: 5,
		CorrectAnswers: 5,
	})
	s.Require().NoError(err)
	s.Equal(150, outcome.XPAwarded)
	s.Equal(150, outcome.Points.TotalXP)
	s.Equal(1, outcome.Points.TotalExamsCompleted)
	s.Equal(1, outcome.Points.PerfectExams)
	s.Equal(1, outcome.DailyStreak.Current)

	// Terminal state: the snapshot must be gone.
	snap, err := sessions.Get(ctx, "math:exam")
	s.Require().NoError(err)
	s.Nil(snap)

	// The audit trail has the completion record.
	records, err := sqlite.NewStatsRepository(s.db).List(ctx, models.StatsFilter{Type: "exam"})
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *ProgressionServiceSuite) TestCompleteExam_RejectsInvalidResults() {
	ctx := context.Background()
	svc := s.newService(nil)

	_, err := svc.CompleteExam(ctx, models.ExamResult{TotalQuestions: 0})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.CompleteExam(ctx, models.ExamResult{TotalQuestions: 5, CorrectAnswers: 6})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeValidation))
}

func (s *ProgressionServiceSuite) TestCompleteExam_DailyStreakAdvancesOncePerDay() {
	ctx := context.Background()
	svc := s.newService(nil)

	first, err := svc.CompleteExam(ctx, models.ExamResult{TotalQuestions: 5, CorrectAnswers: 3, Mode: models.ModeExam})
	s.Require().NoError(err)
	s.Equal(1, first.DailyStreak.Current)

	second, err := svc.CompleteExam(ctx, models.ExamResult{TotalQuestions: 5, CorrectAnswers: 4, Mode: models.ModeExam})
	s.Require().NoError(err)
	s.Equal(1, second.DailyStreak.Current, "two exams on the same day count as one active day")
	s.Equal(2, second.Points.TotalExamsCompleted)
}

func (s *ProgressionServiceSuite) TestCompleteStudySession() {
	ctx := context.Background()
	svc := s.newService(nil)

	outcome, err := svc.CompleteStudySession(ctx, models.StudyStats{
		SubjectID:    "math",
		CardsStudied: 20,
		DeckSize:     20,
	})
	s.Require().NoError(err)
	// base 25 + 40 cards + 50 deck completion
	s.Equal(115, outcome.XPAwarded)
	s.Equal(1, outcome.Points.TotalStudySessions)
	s.Equal(1, outcome.DailyStreak.Current)

	_, err = svc.CompleteStudySession(ctx, models.StudyStats{CardsStudied: -1})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeValidation))
}

func (s *ProgressionServiceSuite) TestOverview() {
	ctx := context.Background()
	svc := s.newService(achievements.DefaultCatalog())

	_, err := svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyAdvanced, Correct: true})
	s.Require().NoError(err)

	overview, err := svc.Overview(ctx)
	s.Require().NoError(err)
	// 20 answer XP plus the first_correct reward.
	s.Equal(30, overview.Points.TotalXP)
	s.Equal(1, overview.Level.Level)
	s.Equal("Novice", overview.Title)
	s.Equal(1, overview.AnswerStreak.Current)
	s.Len(overview.Achievements, 1)
}

func (s *ProgressionServiceSuite) TestHistory_ListsCompletions() {
	ctx := context.Background()
	svc := s.newService(nil)

	_, err := svc.CompleteExam(ctx, models.ExamResult{SubjectID: "math", Mode: models.ModeExam, TotalQuestions: 5, CorrectAnswers: 4})
	s.Require().NoError(err)
	_, err = svc.CompleteStudySession(ctx, models.StudyStats{SubjectID: "math", CardsStudied: 10, DeckSize: 40})
	s.Require().NoError(err)

	records, err := svc.History(ctx, models.StatsFilter{SubjectID: "math"})
	s.Require().NoError(err)
	s.Len(records, 2)

	records, err = svc.History(ctx, models.StatsFilter{Type: "study"})
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("study", records[0].Type)
}

func (s *ProgressionServiceSuite) TestResetGamification() {
	ctx := context.Background()
	svc := s.newService(achievements.DefaultCatalog())

	_, err := svc.RecordAnswer(ctx, services.AnswerEvent{Difficulty: models.DifficultyBasic, Correct: true})
	s.Require().NoError(err)

	s.Require().NoError(svc.ResetGamification(ctx))

	overview, err := svc.Overview(ctx)
	s.Require().NoError(err)
	s.Equal(0, overview.Points.TotalXP)
	s.Equal(0, overview.AnswerStreak.Current)
	s.Empty(overview.Achievements)
}

func TestProgressionServiceSuite(t *testing.T) {
	suite.Run(t, new(ProgressionServiceSuite))
}
