package sqlite

import (
	"context"

	"github.com/Masterminds/squirrel"

	"studycore/internal/errors"
	"studycore/internal/logger"
	"studycore/internal/models"
	"studycore/internal/repository"
	"studycore/internal/store"
)

type statsRepository struct {
	db *store.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *store.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Append(ctx context.Context, rec models.StatsRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("appending stats record: subject_id=%s type=%s", rec.SubjectID, rec.Type)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO stats_log (date, subject_id, type, payload)
VALUES (?, ?, ?, ?)
`, rec.Date, rec.SubjectID, rec.Type, rec.Payload)
	if err != nil {
		log.Error("failed to append stats record: %v", err)
		return 0, errors.NewTransactionFailedError("append stats record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewTransactionFailedError("stats record id", err)
	}
	return id, nil
}

func (r *statsRepository) List(ctx context.Context, filter models.StatsFilter) ([]models.StatsRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("listing stats records: subject_id=%s type=%s", filter.SubjectID, filter.Type)

	query := sqlBuilder.
		Select("id", "date", "subject_id", "type", "payload").
		From("stats_log")

	if filter.SubjectID != "" {
		query = query.Where(squirrel.Eq{"subject_id": filter.SubjectID})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"date": *filter.Since})
	}
	query = query.OrderBy("date DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query = query.Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.NewTransactionFailedError("build stats query", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query stats records: %v", err)
		return nil, errors.NewTransactionFailedError("query stats records", err)
	}
	defer rows.Close()

	var records []models.StatsRecord
	for rows.Next() {
		var rec models.StatsRecord
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.SubjectID, &rec.Type, &rec.Payload); err != nil {
			log.Error("failed to scan stats row: %v", err)
			return nil, errors.NewTransactionFailedError("scan stats record", err)
		}
		records = append(records, rec)
	}
	log.Debug("found %d stats records", len(records))
	return records, rows.Err()
}
