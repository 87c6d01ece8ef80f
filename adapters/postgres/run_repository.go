package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"goperm/domain/core"
	"goperm/domain/model"
	apperrors "goperm/internal/errors"
	"goperm/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Save stores a completed run. The full report is kept as JSONB alongside the
// columns the list and lookup queries filter on.
func (r *RunRepositoryImpl) Save(ctx context.Context, report *model.Report) error {
	if report == nil || report.RunID == "" {
		return apperrors.InvalidInput("report is missing a run ID")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode run report")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO permutation_runs (id, outcome, nreps, seed, row_count, runtime_ms, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, report.RunID.String(), report.Spec.Outcome, report.Nreps, report.Seed,
		report.RowCount, report.RuntimeMs, payload, report.CreatedAt.Time())

	if err != nil {
		return apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return nil
}

// GetByID retrieves a run report by its ID
func (r *RunRepositoryImpl) GetByID(ctx context.Context, id core.RunID) (*model.Report, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT report FROM permutation_runs WHERE id = $1
	`, id.String())

	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}

	return decodeReport(payload)
}

// ListRecent returns the most recent runs, newest first
func (r *RunRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*model.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	var payloads [][]byte
	err := r.db.SelectContext(ctx, &payloads, `
		SELECT report FROM permutation_runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}

	reports := make([]*model.Report, 0, len(payloads))
	for _, p := range payloads {
		report, err := decodeReport(p)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func decodeReport(payload []byte) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode run report")
	}
	return &report, nil
}
