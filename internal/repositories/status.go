package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/mixsync/internal/models"
)

// StatusRepository persists the status of the most recent reconciliation run.
//
// The table holds a single row that every run overwrites; records from
// different runs are never merged.
type StatusRepository struct {
	db *sql.DB
}

// NewStatusRepository creates a new StatusRepository with the given database connection
func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Record overwrites the stored status with the given run's record.
func (r *StatusRepository) Record(status *models.RunStatus) error {
	errs, err := json.Marshal(status.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	query := `
		INSERT INTO run_status (id, run_id, started_at, finished_at, outcome, items_added, items_removed, errors, source_count, dest_count)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			outcome = excluded.outcome,
			items_added = excluded.items_added,
			items_removed = excluded.items_removed,
			errors = excluded.errors,
			source_count = excluded.source_count,
			dest_count = excluded.dest_count
	`

	_, err = r.db.Exec(query,
		status.ID,
		status.StartedAt,
		status.FinishedAt,
		string(status.Outcome),
		status.ItemsAdded,
		status.ItemsRemoved,
		string(errs),
		status.SourceCount,
		status.DestCount,
	)
	if err != nil {
		return fmt.Errorf("failed to record run status: %w", err)
	}

	return nil
}

// Last retrieves the most recent run's status, or nil if no run has been recorded.
func (r *StatusRepository) Last() (*models.RunStatus, error) {
	query := `
		SELECT run_id, started_at, finished_at, outcome, items_added, items_removed, errors, source_count, dest_count
		FROM run_status
		WHERE id = 1
	`

	var status models.RunStatus
	var outcome string
	var errs string

	err := r.db.QueryRow(query).Scan(
		&status.ID,
		&status.StartedAt,
		&status.FinishedAt,
		&outcome,
		&status.ItemsAdded,
		&status.ItemsRemoved,
		&errs,
		&status.SourceCount,
		&status.DestCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run status: %w", err)
	}

	status.Outcome = models.Outcome(outcome)
	if err := json.Unmarshal([]byte(errs), &status.Errors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
	}

	return &status, nil
}
