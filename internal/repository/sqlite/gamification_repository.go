package sqlite

import (
	"context"
	"database/sql"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/repository"
	"studycore/internal/store"
)

type gamificationRepository struct {
	db *store.DB
}

// NewGamificationRepository creates a new GamificationRepository implementation
func NewGamificationRepository(db *store.DB) repository.GamificationRepository {
	return &gamificationRepository{db: db}
}

// ResetAll clears achievements, streaks and the points ledger in a single
// transaction. The stats log is an audit trail and is left intact.
func (r *gamificationRepository) ResetAll(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("gamification_repo")
	log.Info("resetting gamification state")

	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM achievements`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM streaks`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM user_points`)
		return err
	})
	if err != nil {
		log.Error("failed to reset gamification state: %v", err)
		return errors.NewTransactionFailedError("reset gamification", err)
	}
	return nil
}
