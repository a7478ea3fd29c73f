package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/Masterminds/squirrel"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/store"
)

type sessionRepository struct {
	db *store.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *store.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `session_id, subject_id, mode, cursor_index, answers, flagged_ids, question_order, remaining_seconds, timer_running, revision, started_at, saved_at, synced`

func (r *sessionRepository) Put(ctx context.Context, snap models.ExamSnapshot) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("saving exam snapshot: session_id=%s revision=%d", snap.SessionID, snap.Revision)

	answers, err := marshalJSON(snap.Answers)
	if err != nil {
		return errors.NewTransactionFailedError("put exam snapshot", err)
	}
	flagged, err := marshalJSON(snap.FlaggedIDs)
	if err != nil {
		return errors.NewTransactionFailedError("put exam snapshot", err)
	}
	order, err := marshalJSON(snap.QuestionOrder)
	if err != nil {
		return errors.NewTransactionFailedError("put exam snapshot", err)
	}

	// Upsert guarded by the snapshot revision: an overlapping save carrying
	// an older revision must never regress a newer row. Re-putting the same
	// revision is a harmless identical update, keeping Put idempotent.
	_, err = r.db.ExecContext(ctx, `
INSERT INTO exam_sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    subject_id = excluded.subject_id,
    mode = excluded.mode,
    cursor_index = excluded.cursor_index,
    answers = excluded.answers,
    flagged_ids = excluded.flagged_ids,
    question_order = excluded.question_order,
    remaining_seconds = excluded.remaining_seconds,
    timer_running = excluded.timer_running,
    revision = excluded.revision,
    started_at = excluded.started_at,
    saved_at = excluded.saved_at,
    synced = excluded.synced
WHERE excluded.revision >= exam_sessions.revision
`, snap.SessionID, snap.SubjectID, string(snap.Mode), snap.CursorIndex, answers, flagged, order,
		snap.RemainingSeconds, snap.TimerRunning, snap.Revision, snap.StartedAt, snap.SavedAt, snap.Synced)
	if err != nil {
		log.Error("failed to save exam snapshot: %v", err)
		return errors.NewTransactionFailedError("put exam snapshot", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*models.ExamSnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting exam snapshot: session_id=%s", sessionID)

	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM exam_sessions WHERE session_id = ?`, sessionID)
	snap, err := scanSession(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		log.Debug("exam snapshot not found: session_id=%s", sessionID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get exam snapshot: %v", err)
		return nil, errors.NewTransactionFailedError("get exam snapshot", err)
	}
	return snap, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]models.ExamSnapshot, error) {
	return r.query(ctx, sqlBuilder.Select(sessionColumns).From("exam_sessions").OrderBy("saved_at ASC"))
}

func (r *sessionRepository) Unsynced(ctx context.Context) ([]models.ExamSnapshot, error) {
	return r.query(ctx, sqlBuilder.
		Select(sessionColumns).
		From("exam_sessions").
		Where(squirrel.Eq{"synced": false}).
		OrderBy("saved_at ASC"))
}

func (r *sessionRepository) query(ctx context.Context, q squirrel.SelectBuilder) ([]models.ExamSnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, errors.NewTransactionFailedError("build exam snapshot query", err)
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query exam snapshots: %v", err)
		return nil, errors.NewTransactionFailedError("query exam snapshots", err)
	}
	defer rows.Close()

	var snaps []models.ExamSnapshot
	for rows.Next() {
		snap, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan exam snapshot row: %v", err)
			return nil, errors.NewTransactionFailedError("scan exam snapshot", err)
		}
		snaps = append(snaps, *snap)
	}
	log.Debug("found %d exam snapshots", len(snaps))
	return snaps, rows.Err()
}

func (r *sessionRepository) MarkSynced(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("marking exam snapshot synced: session_id=%s", sessionID)

	_, err := r.db.ExecContext(ctx, `UPDATE exam_sessions SET synced = 1 WHERE session_id = ?`, sessionID)
	if err != nil {
		log.Error("failed to mark snapshot synced: %v", err)
		return errors.NewTransactionFailedError("mark synced", err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("deleting exam snapshot: session_id=%s", sessionID)

	_, err := r.db.ExecContext(ctx, `DELETE FROM exam_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		log.Error("failed to delete exam snapshot: %v", err)
		return errors.NewTransactionFailedError("delete exam snapshot", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.ExamSnapshot, error) {
	var (
		snap    models.ExamSnapshot
		mode    string
		answers string
		flagged string
		order   string
	)
	err := row.Scan(&snap.SessionID, &snap.SubjectID, &mode, &snap.CursorIndex, &answers, &flagged, &order,
		&snap.RemainingSeconds, &snap.TimerRunning, &snap.Revision, &snap.StartedAt, &snap.SavedAt, &snap.Synced)
	if err != nil {
		return nil, err
	}
	snap.Mode = models.Mode(mode)
	if snap.Answers, err = unmarshalMap(answers); err != nil {
		return nil, err
	}
	if snap.FlaggedIDs, err = unmarshalStrings(flagged); err != nil {
		return nil, err
	}
	if snap.QuestionOrder, err = unmarshalStrings(order); err != nil {
		return nil, err
	}
	return &snap, nil
}
