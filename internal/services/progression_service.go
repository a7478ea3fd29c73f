package services

import (
	"context"
	"encoding/json"
	"time"

	"studycore/internal/achievements"
	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/progression"
	"studycore/internal/repository"
	"studycore/internal/streak"
)

// AnswerEvent describes one submitted answer.
type AnswerEvent struct {
	SubjectID  string            `json:"subject_id"`
	Difficulty models.Difficulty `json:"difficulty"`
	Correct    bool              `json:"correct"`
}

// AnswerOutcome is what a single answer did to the ledger.
type AnswerOutcome struct {
	XPAwarded    int                        `json:"xp_awarded"`
	AnswerStreak models.Streak              `json:"answer_streak"`
	Points       models.UserPoints          `json:"points"`
	Level        progression.Level          `json:"level"`
	Unlocked     []models.AchievementUnlock `json:"unlocked"`
}

// CompletionOutcome is the result of finishing an exam or study session.
type CompletionOutcome struct {
	XPAwarded   int                        `json:"xp_awarded"`
	Points      models.UserPoints          `json:"points"`
	Level       progression.Level          `json:"level"`
	DailyStreak models.Streak              `json:"daily_streak"`
	Unlocked    []models.AchievementUnlock `json:"unlocked"`
}

// Overview aggregates the whole gamification state for display.
type Overview struct {
	Points       models.UserPoints          `json:"points"`
	Level        progression.Level          `json:"level"`
	Title        string                     `json:"title"`
	DailyStreak  models.Streak              `json:"daily_streak"`
	AnswerStreak models.Streak              `json:"answer_streak"`
	Achievements []models.AchievementUnlock `json:"achievements"`
}

// ProgressionService orchestrates XP awards, streak updates and achievement
// checks for UI-level events.
type ProgressionService interface {
	RecordAnswer(ctx context.Context, ev AnswerEvent) (*AnswerOutcome, error)
	CompleteExam(ctx context.Context, result models.ExamResult) (*CompletionOutcome, error)
	CompleteStudySession(ctx context.Context, stats models.StudyStats) (*CompletionOutcome, error)
	Overview(ctx context.Context) (*Overview, error)
	History(ctx context.Context, filter models.StatsFilter) ([]models.StatsRecord, error)
	ResetGamification(ctx context.Context) error
}

type progressionService struct {
	points       repository.PointsRepository
	sessions     repository.SessionRepository
	studies      repository.StudyRepository
	stats        repository.StatsRepository
	gamification repository.GamificationRepository
	streaks      *streak.Tracker
	engine       *achievements.Engine
	now          func() time.Time
}

// NewProgressionService creates a ProgressionService.
func NewProgressionService(
	points repository.PointsRepository,
	sessions repository.SessionRepository,
	studies repository.StudyRepository,
	stats repository.StatsRepository,
	gamification repository.GamificationRepository,
	streaks *streak.Tracker,
	engine *achievements.Engine,
) ProgressionService {
	return &progressionService{
		points:       points,
		sessions:     sessions,
		studies:      studies,
		stats:        stats,
		gamification: gamification,
		streaks:      streaks,
		engine:       engine,
		now:          time.Now,
	}
}

func (s *progressionService) RecordAnswer(ctx context.Context, ev AnswerEvent) (*AnswerOutcome, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording answer: correct=%t difficulty=%s", ev.Correct, ev.Difficulty)

	// The multiplier uses the streak the user carries INTO this answer, so
	// the bonus kicks in on the answer after the threshold is reached.
	carried, err := s.streaks.Get(ctx, models.StreakCorrectAnswers)
	if err != nil {
		return nil, err
	}
	xp := progression.AnswerXP(ev.Correct, ev.Difficulty, carried.Current)

	answerStreak, err := s.streaks.RecordAnswer(ctx, ev.Correct)
	if err != nil {
		return nil, err
	}
	points, err := s.points.RecordAnswer(ctx, ev.Correct, xp)
	if err != nil {
		return nil, err
	}

	unlocked, points, err := s.checkAchievements(ctx, points, achievements.EventContext{
		AnswerStreak: answerStreak.Current,
	})
	if err != nil {
		log.Warn("achievement check failed: %v", err)
	}

	return &AnswerOutcome{
		XPAwarded:    xp,
		AnswerStreak: answerStreak,
		Points:       points,
		Level:        progression.LevelFromXP(points.TotalXP),
		Unlocked:     unlocked,
	}, nil
}

func (s *progressionService) CompleteExam(ctx context.Context, result models.ExamResult) (*CompletionOutcome, error) {
	log := logger.FromContext(ctx)

	if result.TotalQuestions <= 0 {
		return nil, errors.NewValidationError("total_questions", "must be positive")
	}
	if result.CorrectAnswers < 0 || result.CorrectAnswers > result.TotalQuestions {
		return nil, errors.NewValidationError("correct_answers", "out of range")
	}

	xp := progression.ExamCompletionXP(result)
	log.Info("exam completed: session_id=%s score=%.1f%% xp=%d", result.SessionID, result.ScorePercent(), xp)

	daily, err := s.streaks.RecordDailyActivity(ctx, s.now())
	if err != nil {
		return nil, err
	}
	points, err := s.points.RecordExam(ctx, xp, result.Perfect())
	if err != nil {
		return nil, err
	}

	s.appendStats(ctx, result.SubjectID, "exam", result)

	unlocked, points, err := s.checkAchievements(ctx, points, achievements.EventContext{
		PerfectExam:      result.Perfect(),
		ExamScorePercent: result.ScorePercent(),
	})
	if err != nil {
		log.Warn("achievement check failed: %v", err)
	}

	// Terminal state: a finished exam must never be recoverable.
	if result.SessionID != "" {
		if err := s.sessions.Delete(ctx, result.SessionID); err != nil {
			log.Warn("failed to delete finished exam snapshot: %v", err)
		}
	}

	return &CompletionOutcome{
		XPAwarded:   xp,
		Points:      points,
		Level:       progression.LevelFromXP(points.TotalXP),
		DailyStreak: daily,
		Unlocked:    unlocked,
	}, nil
}

func (s *progressionService) CompleteStudySession(ctx context.Context, stats models.StudyStats) (*CompletionOutcome, error) {
	log := logger.FromContext(ctx)

	if stats.CardsStudied < 0 {
		return nil, errors.NewValidationError("cards_studied", "must not be negative")
	}

	xp := progression.StudySessionXP(stats)
	log.Info("study session completed: session_id=%s cards=%d xp=%d", stats.SessionID, stats.CardsStudied, xp)

	daily, err := s.streaks.RecordDailyActivity(ctx, s.now())
	if err != nil {
		return nil, err
	}
	points, err := s.points.RecordStudySession(ctx, xp)
	if err != nil {
		return nil, err
	}

	s.appendStats(ctx, stats.SubjectID, "study", stats)

	unlocked, points, err := s.checkAchievements(ctx, points, achievements.EventContext{
		DeckCompleted: stats.DeckCompleted(),
	})
	if err != nil {
		log.Warn("achievement check failed: %v", err)
	}

	if stats.SessionID != "" {
		if err := s.studies.Delete(ctx, stats.SessionID); err != nil {
			log.Warn("failed to delete finished study snapshot: %v", err)
		}
	}

	return &CompletionOutcome{
		XPAwarded:   xp,
		Points:      points,
		Level:       progression.LevelFromXP(points.TotalXP),
		DailyStreak: daily,
		Unlocked:    unlocked,
	}, nil
}

func (s *progressionService) Overview(ctx context.Context) (*Overview, error) {
	points, err := s.points.Get(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.streaks.Get(ctx, models.StreakDaily)
	if err != nil {
		return nil, err
	}
	answer, err := s.streaks.Get(ctx, models.StreakCorrectAnswers)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.engine.List(ctx)
	if err != nil {
		return nil, err
	}

	level := progression.LevelFromXP(points.TotalXP)
	return &Overview{
		Points:       points,
		Level:        level,
		Title:        progression.TitleForLevel(level.Level),
		DailyStreak:  daily,
		AnswerStreak: answer,
		Achievements: unlocks,
	}, nil
}

// History returns audit records for completed exams and study sessions,
// newest first.
func (s *progressionService) History(ctx context.Context, filter models.StatsFilter) ([]models.StatsRecord, error) {
	return s.stats.List(ctx, filter)
}

func (s *progressionService) ResetGamification(ctx context.Context) error {
	return s.gamification.ResetAll(ctx)
}

// checkAchievements builds a fresh stats snapshot, runs the engine, and
// re-reads the ledger when something unlocked (the unlock transaction adds
// its XP reward). Never trusts values captured before an earlier await point.
func (s *progressionService) checkAchievements(ctx context.Context, points models.UserPoints, ev achievements.EventContext) ([]models.AchievementUnlock, models.UserPoints, error) {
	daily, err := s.streaks.Get(ctx, models.StreakDaily)
	if err != nil {
		return nil, points, err
	}
	answer, err := s.streaks.Get(ctx, models.StreakCorrectAnswers)
	if err != nil {
		return nil, points, err
	}

	stats := achievements.Stats{
		TotalXP:             points.TotalXP,
		Level:               progression.LevelFromXP(points.TotalXP).Level,
		TotalCorrectAnswers: points.TotalCorrectAnswers,
		TotalWrongAnswers:   points.TotalWrongAnswers,
		TotalExamsCompleted: points.TotalExamsCompleted,
		TotalStudySessions:  points.TotalStudySessions,
		PerfectExams:        points.PerfectExams,
		DailyStreakCurrent:  daily.Current,
		DailyStreakBest:     daily.Best,
		BestAnswerStreak:    answer.Best,
	}

	unlocked, err := s.engine.CheckAll(ctx, stats, ev)
	if err != nil {
		return nil, points, err
	}
	if len(unlocked) > 0 {
		if fresh, err := s.points.Get(ctx); err == nil {
			points = fresh
		}
	}
	return unlocked, points, nil
}

// appendStats writes the audit record; failures are logged, never fatal.
func (s *progressionService) appendStats(ctx context.Context, subjectID, typ string, payload any) {
	log := logger.FromContext(ctx)
	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn("failed to encode stats payload: %v", err)
		return
	}
	if _, err := s.stats.Append(ctx, models.StatsRecord{
		Date:      s.now(),
		SubjectID: subjectID,
		Type:      typ,
		Payload:   string(body),
	}); err != nil {
		log.Warn("failed to append stats record: %v", err)
	}
}
