package repository

import (
	"context"

	"studycore/internal/models"
)

// SessionRepository handles exam session snapshot persistence.
// Put is an idempotent upsert keyed by session id; a stale revision never
// overwrites a newer row. Get returns (nil, nil) when absent.
type SessionRepository interface {
	Put(ctx context.Context, snap models.ExamSnapshot) error
	Get(ctx context.Context, sessionID string) (*models.ExamSnapshot, error)
	List(ctx context.Context) ([]models.ExamSnapshot, error)
	Unsynced(ctx context.Context) ([]models.ExamSnapshot, error)
	MarkSynced(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// StudyRepository handles flashcard study snapshot persistence.
type StudyRepository interface {
	Put(ctx context.Context, snap models.StudySnapshot) error
	Get(ctx context.Context, sessionID string) (*models.StudySnapshot, error)
	List(ctx context.Context) ([]models.StudySnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// PointsRepository handles the singleton gamification ledger. The row is
// created lazily with zero values on first use. All counter arithmetic is
// done in SQL so concurrent award paths cannot lose updates.
type PointsRepository interface {
	Get(ctx context.Context) (models.UserPoints, error)
	AddXP(ctx context.Context, delta int) (models.UserPoints, error)
	RecordAnswer(ctx context.Context, correct bool, xp int) (models.UserPoints, error)
	RecordExam(ctx context.Context, xp int, perfect bool) (models.UserPoints, error)
	RecordStudySession(ctx context.Context, xp int) (models.UserPoints, error)
}

// StreakRepository persists the two streak counters. Upsert enforces that
// best never decreases, regardless of what the caller passes.
type StreakRepository interface {
	Get(ctx context.Context, kind models.StreakKind) (models.Streak, error)
	Upsert(ctx context.Context, streak models.Streak) error
}

// AchievementRepository handles one-shot achievement unlocks. Unlock writes
// the unlock row and awards its XP in a single transaction; it reports
// whether the row was actually inserted, so a repeated call neither
// duplicates the unlock nor double-awards XP.
type AchievementRepository interface {
	Unlock(ctx context.Context, unlock models.AchievementUnlock) (awarded bool, err error)
	UnlockedIDs(ctx context.Context) (map[string]bool, error)
	List(ctx context.Context) ([]models.AchievementUnlock, error)
}

// StatsRepository is the append-only audit trail. Rows are never updated.
type StatsRepository interface {
	Append(ctx context.Context, rec models.StatsRecord) (int64, error)
	List(ctx context.Context, filter models.StatsFilter) ([]models.StatsRecord, error)
}

// GamificationRepository owns operations spanning the gamification
// collections.
type GamificationRepository interface {
	// ResetAll clears achievements, streaks and the points ledger in one
	// transaction.
	ResetAll(ctx context.Context) error
}
