package sqlite

import (
	"context"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/store"
)

// The ledger is a single fixed-key row, created lazily with zero values.
const pointsKey = "user"

type pointsRepository struct {
	db *store.DB
}

// NewPointsRepository creates a new PointsRepository implementation
func NewPointsRepository(db *store.DB) repository.PointsRepository {
	return &pointsRepository{db: db}
}

const pointsColumns = `total_xp, total_correct_answers, total_wrong_answers, total_exams_completed, total_study_sessions, perfect_exams`

func (r *pointsRepository) Get(ctx context.Context) (models.UserPoints, error) {
	log := logger.FromContext(ctx).WithPrefix("points_repo")

	if err := r.ensureRow(ctx); err != nil {
		return models.UserPoints{}, err
	}
	var p models.UserPoints
	err := r.db.QueryRowContext(ctx, `SELECT `+pointsColumns+` FROM user_points WHERE id = ?`, pointsKey).
		Scan(&p.TotalXP, &p.TotalCorrectAnswers, &p.TotalWrongAnswers, &p.TotalExamsCompleted, &p.TotalStudySessions, &p.PerfectExams)
	if err != nil {
		log.Error("failed to get user points: %v", err)
		return models.UserPoints{}, errors.NewTransactionFailedError("get user points", err)
	}
	return p, nil
}

func (r *pointsRepository) AddXP(ctx context.Context, delta int) (models.UserPoints, error) {
	// Arithmetic happens in SQL so two interleaved award paths cannot lose an
	// update by computing from a stale read.
	return r.update(ctx, "add xp", `total_xp = MAX(total_xp + ?, 0)`, delta)
}

func (r *pointsRepository) RecordAnswer(ctx context.Context, correct bool, xp int) (models.UserPoints, error) {
	if correct {
		return r.update(ctx, "record correct answer",
			`total_xp = MAX(total_xp + ?, 0), total_correct_answers = total_correct_answers + 1`, xp)
	}
	return r.update(ctx, "record wrong answer",
		`total_wrong_answers = total_wrong_answers + 1`)
}

func (r *pointsRepository) RecordExam(ctx context.Context, xp int, perfect bool) (models.UserPoints, error) {
	perfectInc := 0
	if perfect {
		perfectInc = 1
	}
	return r.update(ctx, "record exam",
		`total_xp = MAX(total_xp + ?, 0), total_exams_completed = total_exams_completed + 1, perfect_exams = perfect_exams + ?`,
		xp, perfectInc)
}

func (r *pointsRepository) RecordStudySession(ctx context.Context, xp int) (models.UserPoints, error) {
	return r.update(ctx, "record study session",
		`total_xp = MAX(total_xp + ?, 0), total_study_sessions = total_study_sessions + 1`, xp)
}

func (r *pointsRepository) update(ctx context.Context, op, set string, args ...any) (models.UserPoints, error) {
	log := logger.FromContext(ctx).WithPrefix("points_repo")
	log.Debug("updating user points: %s", op)

	if err := r.ensureRow(ctx); err != nil {
		return models.UserPoints{}, err
	}

	var p models.UserPoints
	args = append(args, pointsKey)
	err := r.db.QueryRowContext(ctx,
		`UPDATE user_points SET `+set+` WHERE id = ? RETURNING `+pointsColumns, args...).
		Scan(&p.TotalXP, &p.TotalCorrectAnswers, &p.TotalWrongAnswers, &p.TotalExamsCompleted, &p.TotalStudySessions, &p.PerfectExams)
	if err != nil {
		log.Error("failed to %s: %v", op, err)
		return models.UserPoints{}, errors.NewTransactionFailedError(op, err)
	}
	return p, nil
}

func (r *pointsRepository) ensureRow(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_points (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, pointsKey)
	if err != nil {
		return errors.NewTransactionFailedError("init user points", err)
	}
	return nil
}
