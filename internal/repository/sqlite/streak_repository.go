package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/store"
)

type streakRepository struct {
	db *store.DB
}

// NewStreakRepository creates a new StreakRepository implementation
func NewStreakRepository(db *store.DB) repository.StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(ctx context.Context, kind models.StreakKind) (models.Streak, error) {
	log := logger.FromContext(ctx).WithPrefix("streak_repo")

	var (
		s          models.Streak
		lastUpdate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT kind, current, best, last_update FROM streaks WHERE kind = ?`, string(kind)).
		Scan(&s.Kind, &s.Current, &s.Best, &lastUpdate)
	if stderrors.Is(err, sql.ErrNoRows) {
		// Streaks are created lazily with zero values on first read.
		return models.Streak{Kind: kind}, nil
	}
	if err != nil {
		log.Error("failed to get streak %s: %v", kind, err)
		return models.Streak{}, errors.NewTransactionFailedError("get streak", err)
	}
	if lastUpdate.Valid {
		t := lastUpdate.Time
		s.LastUpdate = &t
	}
	return s, nil
}

func (r *streakRepository) Upsert(ctx context.Context, streak models.Streak) error {
	log := logger.FromContext(ctx).WithPrefix("streak_repo")
	log.Debug("upserting streak: kind=%s current=%d best=%d", streak.Kind, streak.Current, streak.Best)

	var lastUpdate any
	if streak.LastUpdate != nil {
		lastUpdate = *streak.LastUpdate
	}

	// best is a running maximum: the MAX() guard keeps a caller bug from ever
	// lowering the historical best.
	_, err := r.db.ExecContext(ctx, `
INSERT INTO streaks (kind, current, best, last_update)
VALUES (?, ?, MAX(?, ?), ?)
ON CONFLICT(kind) DO UPDATE SET
    current = excluded.current,
    best = MAX(streaks.best, excluded.best, excluded.current),
    last_update = excluded.last_update
`, string(streak.Kind), streak.Current, streak.Best, streak.Current, lastUpdate)
	if err != nil {
		log.Error("failed to upsert streak %s: %v", streak.Kind, err)
		return errors.NewTransactionFailedError("upsert streak", err)
	}
	return nil
}
