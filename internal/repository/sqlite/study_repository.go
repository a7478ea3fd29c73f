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

type studyRepository struct {
	db *store.DB
}

// NewStudyRepository creates a new StudyRepository implementation
func NewStudyRepository(db *store.DB) repository.StudyRepository {
	return &studyRepository{db: db}
}

const studyColumns = `session_id, subject_id, cursor_index, marked_ids, studied_indices, revision, saved_at`

func (r *studyRepository) Put(ctx context.Context, snap models.StudySnapshot) error {
	log := logger.FromContext(ctx).WithPrefix("study_repo")
	log.Debug("saving study snapshot: session_id=%s revision=%d", snap.SessionID, snap.Revision)

	marked, err := marshalJSON(snap.MarkedIDs)
	if err != nil {
		return errors.NewTransactionFailedError("put study snapshot", err)
	}
	studied, err := marshalJSON(snap.StudiedIndices)
	if err != nil {
		return errors.NewTransactionFailedError("put study snapshot", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO flashcard_progress (`+studyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    subject_id = excluded.subject_id,
    cursor_index = excluded.cursor_index,
    marked_ids = excluded.marked_ids,
    studied_indices = excluded.studied_indices,
    revision = excluded.revision,
    saved_at = excluded.saved_at
WHERE excluded.revision >= flashcard_progress.revision
`, snap.SessionID, snap.SubjectID, snap.CursorIndex, marked, studied, snap.Revision, snap.SavedAt)
	if err != nil {
		log.Error("failed to save study snapshot: %v", err)
		return errors.NewTransactionFailedError("put study snapshot", err)
	}
	return nil
}

func (r *studyRepository) Get(ctx context.Context, sessionID string) (*models.StudySnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("study_repo")
	log.Debug("getting study snapshot: session_id=%s", sessionID)

	row := r.db.QueryRowContext(ctx, `SELECT `+studyColumns+` FROM flashcard_progress WHERE session_id = ?`, sessionID)
	snap, err := scanStudy(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		log.Debug("study snapshot not found: session_id=%s", sessionID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get study snapshot: %v", err)
		return nil, errors.NewTransactionFailedError("get study snapshot", err)
	}
	return snap, nil
}

func (r *studyRepository) List(ctx context.Context) ([]models.StudySnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("study_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT `+studyColumns+` FROM flashcard_progress ORDER BY saved_at ASC`)
	if err != nil {
		log.Error("failed to list study snapshots: %v", err)
		return nil, errors.NewTransactionFailedError("list study snapshots", err)
	}
	defer rows.Close()

	var snaps []models.StudySnapshot
	for rows.Next() {
		snap, err := scanStudy(rows)
		if err != nil {
			log.Error("failed to scan study snapshot row: %v", err)
			return nil, errors.NewTransactionFailedError("scan study snapshot", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (r *studyRepository) Delete(ctx context.Context, sessionID string) error {
	log := logger.FromContext(ctx).WithPrefix("study_repo")
	log.Debug("deleting study snapshot: session_id=%s", sessionID)

	_, err := r.db.ExecContext(ctx, `DELETE FROM flashcard_progress WHERE session_id = ?`, sessionID)
	if err != nil {
		log.Error("failed to delete study snapshot: %v", err)
		return errors.NewTransactionFailedError("delete study snapshot", err)
	}
	return nil
}

func scanStudy(row rowScanner) (*models.StudySnapshot, error) {
	var (
		snap    models.StudySnapshot
		marked  string
		studied string
	)
	err := row.Scan(&snap.SessionID, &snap.SubjectID, &snap.CursorIndex, &marked, &studied, &snap.Revision, &snap.SavedAt)
	if err != nil {
		return nil, err
	}
	if snap.MarkedIDs, err = unmarshalStrings(marked); err != nil {
		return nil, err
	}
	if snap.StudiedIndices, err = unmarshalInts(studied); err != nil {
		return nil, err
	}
	return &snap, nil
}
