// Package achievements evaluates a static catalog of unlock conditions
// against a stats snapshot and unlocks each achievement at most once.
package achievements

import (
	"context"
	"time"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
)

// Stats is the aggregate snapshot conditions are evaluated against.
type Stats struct {
	TotalXP             int
	Level               int
	TotalCorrectAnswers int
	TotalWrongAnswers   int
	TotalExamsCompleted int
	TotalStudySessions  int
	PerfectExams        int
	DailyStreakCurrent  int
	DailyStreakBest     int
	BestAnswerStreak    int
}

// EventContext carries ephemeral facts about the event that triggered the
// check, available only in that moment.
type EventContext struct {
	PerfectExam      bool
	ExamScorePercent float64
	AnswerStreak     int
	DeckCompleted    bool
}

// Condition is a pure predicate. It must not perform I/O.
type Condition func(stats Stats, ev EventContext) bool

// Achievement is one catalog entry. The catalog is supplied by the caller;
// the engine never defines entries itself.
type Achievement struct {
	ID        string
	Name      string
	Category  string
	Rarity    string
	XPReward  int
	Condition Condition
}

// Engine checks the catalog and performs one-shot unlocks.
type Engine struct {
	catalog []Achievement
	repo    repository.AchievementRepository
	log     *logger.Logger
}

// NewEngine creates an Engine over the supplied catalog.
func NewEngine(catalog []Achievement, repo repository.AchievementRepository) *Engine {
	return &Engine{
		catalog: catalog,
		repo:    repo,
		log:     logger.Default().WithPrefix("achievements"),
	}
}

// CheckAll evaluates every catalog entry not yet unlocked and unlocks the
// ones whose condition holds. Presence in the store is checked before
// evaluation, so a repeated call with an already-satisfied condition cannot
// double-award. A panicking condition is logged and treated as not met; it
// never propagates to the caller.
func (e *Engine) CheckAll(ctx context.Context, stats Stats, ev EventContext) ([]models.AchievementUnlock, error) {
	log := logger.FromContext(ctx).WithPrefix("achievements")

	unlocked, err := e.repo.UnlockedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var newUnlocks []models.AchievementUnlock
	for _, entry := range e.catalog {
		if unlocked[entry.ID] {
			continue
		}
		if !e.evaluate(entry, stats, ev) {
			continue
		}

		unlock := models.AchievementUnlock{
			AchievementID: entry.ID,
			Name:          entry.Name,
			Category:      entry.Category,
			Rarity:        entry.Rarity,
			XPReward:      entry.XPReward,
			UnlockedAt:    time.Now(),
		}
		awarded, err := e.repo.Unlock(ctx, unlock)
		if err != nil {
			// A failed write leaves the achievement locked; the next CheckAll
			// re-evaluates it safely.
			log.Warn("failed to persist unlock %s: %v", entry.ID, err)
			continue
		}
		if awarded {
			newUnlocks = append(newUnlocks, unlock)
		}
	}
	return newUnlocks, nil
}

// List returns every unlocked achievement in unlock order.
func (e *Engine) List(ctx context.Context) ([]models.AchievementUnlock, error) {
	return e.repo.List(ctx)
}

// evaluate runs a condition inside a panic guard. A buggy predicate must
// never crash the surrounding flow.
func (e *Engine) evaluate(entry Achievement, stats Stats, ev EventContext) (met bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("%v", errors.NewConditionEvaluationError(entry.ID, r))
			met = false
		}
	}()
	if entry.Condition == nil {
		return false
	}
	return entry.Condition(stats, ev)
}
