// Package streak maintains the two gamification streak counters: a
// calendar-day activity streak and a consecutive-correct-answer streak.
package streak

import (
	"context"
	"time"

	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
)

// Tracker advances and resets the persisted streak counters.
type Tracker struct {
	repo repository.StreakRepository
	log  *logger.Logger
}

// NewTracker creates a Tracker backed by the given repository.
func NewTracker(repo repository.StreakRepository) *Tracker {
	return &Tracker{
		repo: repo,
		log:  logger.Default().WithPrefix("streak"),
	}
}

// Get returns the persisted streak for kind, zero-valued when absent.
func (t *Tracker) Get(ctx context.Context, kind models.StreakKind) (models.Streak, error) {
	return t.repo.Get(ctx, kind)
}

// RecordDailyActivity advances the calendar-day streak for an activity at
// now. The first event of a calendar day increments the streak when the
// previous update was exactly one day earlier, resets it to 1 after a longer
// gap, and starts it at 1 when there is no history. Repeated events on the
// same calendar day are no-ops.
func (t *Tracker) RecordDailyActivity(ctx context.Context, now time.Time) (models.Streak, error) {
	s, err := t.repo.Get(ctx, models.StreakDaily)
	if err != nil {
		return models.Streak{}, err
	}

	if s.LastUpdate != nil {
		gap := calendarDaysBetween(*s.LastUpdate, now)
		switch {
		case gap <= 0:
			// Already counted today (or a clock went backwards); idempotent.
			return s, nil
		case gap == 1:
			s.Current++
		default:
			t.log.Debug("daily streak broken after %d day gap", gap)
			s.Current = 1
		}
	} else {
		s.Current = 1
	}

	if s.Current > s.Best {
		s.Best = s.Current
	}
	s.LastUpdate = &now
	if err := t.repo.Upsert(ctx, s); err != nil {
		return models.Streak{}, err
	}
	t.log.Debug("daily streak advanced: current=%d best=%d", s.Current, s.Best)
	return s, nil
}

// RecordAnswer advances the consecutive-correct streak: +1 for a correct
// answer, reset to 0 for a wrong one. It returns the updated streak.
func (t *Tracker) RecordAnswer(ctx context.Context, correct bool) (models.Streak, error) {
	s, err := t.repo.Get(ctx, models.StreakCorrectAnswers)
	if err != nil {
		return models.Streak{}, err
	}

	if correct {
		s.Current++
		if s.Current > s.Best {
			s.Best = s.Current
		}
	} else {
		s.Current = 0
	}
	now := time.Now()
	s.LastUpdate = &now

	if err := t.repo.Upsert(ctx, s); err != nil {
		return models.Streak{}, err
	}
	return s, nil
}

// ResetCurrent zeroes the current counter for kind without touching the
// historical best. Used when a fresh practice session starts.
func (t *Tracker) ResetCurrent(ctx context.Context, kind models.StreakKind) error {
	s, err := t.repo.Get(ctx, kind)
	if err != nil {
		return err
	}
	if s.Current == 0 {
		return nil
	}
	s.Current = 0
	return t.repo.Upsert(ctx, s)
}

// calendarDaysBetween counts whole calendar-day boundaries crossed between
// the two instants, in the local zone of each timestamp.
func calendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
