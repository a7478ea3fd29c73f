package sqlite

import (
	"context"
	"database/sql"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/store"
)

type achievementRepository struct {
	db *store.DB
}

// NewAchievementRepository creates a new AchievementRepository implementation
func NewAchievementRepository(db *store.DB) repository.AchievementRepository {
	return &achievementRepository{db: db}
}

// Unlock inserts the unlock row and awards its XP as one transaction. The
// INSERT OR IGNORE rows-affected count gates the award, so calling Unlock
// twice for the same achievement id neither duplicates the row nor awards
// the XP a second time.
func (r *achievementRepository) Unlock(ctx context.Context, unlock models.AchievementUnlock) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")
	log.Debug("unlocking achievement: id=%s", unlock.AchievementID)

	awarded := false
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO achievements (achievement_id, name, category, rarity, xp_reward, unlocked_at)
VALUES (?, ?, ?, ?, ?, ?)
`, unlock.AchievementID, unlock.Name, unlock.Category, unlock.Rarity, unlock.XPReward, unlock.UnlockedAt)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return nil
		}
		awarded = true
		if unlock.XPReward == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_points (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, pointsKey); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE user_points SET total_xp = total_xp + ? WHERE id = ?`, unlock.XPReward, pointsKey)
		return err
	})
	if err != nil {
		log.Error("failed to unlock achievement %s: %v", unlock.AchievementID, err)
		return false, errors.NewTransactionFailedError("unlock achievement", err)
	}
	if awarded {
		log.Info("achievement unlocked: id=%s xp=%d", unlock.AchievementID, unlock.XPReward)
	}
	return awarded, nil
}

func (r *achievementRepository) UnlockedIDs(ctx context.Context) (map[string]bool, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT achievement_id FROM achievements`)
	if err != nil {
		log.Error("failed to query unlocked achievement ids: %v", err)
		return nil, errors.NewTransactionFailedError("query unlocked ids", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewTransactionFailedError("scan unlocked id", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *achievementRepository) List(ctx context.Context) ([]models.AchievementUnlock, error) {
	log := logger.FromContext(ctx).WithPrefix("achievement_repo")

	sqlStr, args, err := sqlBuilder.
		Select("achievement_id", "name", "category", "rarity", "xp_reward", "unlocked_at").
		From("achievements").
		OrderBy("unlocked_at ASC").
		ToSql()
	if err != nil {
		return nil, errors.NewTransactionFailedError("build achievements query", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list achievements: %v", err)
		return nil, errors.NewTransactionFailedError("list achievements", err)
	}
	defer rows.Close()

	var unlocks []models.AchievementUnlock
	for rows.Next() {
		var u models.AchievementUnlock
		if err := rows.Scan(&u.AchievementID, &u.Name, &u.Category, &u.Rarity, &u.XPReward, &u.UnlockedAt); err != nil {
			log.Error("failed to scan achievement row: %v", err)
			return nil, errors.NewTransactionFailedError("scan achievement", err)
		}
		unlocks = append(unlocks, u)
	}
	log.Debug("found %d unlocked achievements", len(unlocks))
	return unlocks, rows.Err()
}
