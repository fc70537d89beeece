package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
)

// SnapshotRepository persists the last known in-flight job per project scope.
//
// One row per project_id; Save replaces any existing row for the scope.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot row for its project scope.
func (r *SnapshotRepository) Save(snap *models.JobSnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO job_snapshots (project_id, job_id, stage, percent, stage_label, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			job_id = excluded.job_id,
			stage = excluded.stage,
			percent = excluded.percent,
			stage_label = excluded.stage_label,
			saved_at = excluded.saved_at
	`

	_, err := r.db.Exec(query,
		snap.ProjectID,
		snap.JobID,
		string(snap.Stage),
		snap.Percent,
		snap.StageLabel,
		snap.SavedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Load retrieves the snapshot for the given project scope.
// Returns (nil, nil) when no row exists.
func (r *SnapshotRepository) Load(projectID string) (*models.JobSnapshot, error) {
	query := `
		SELECT project_id, job_id, stage, percent, stage_label, saved_at
		FROM job_snapshots
		WHERE project_id = ?
	`

	var snap models.JobSnapshot
	var stage, savedAt string

	err := r.db.QueryRow(query, projectID).Scan(
		&snap.ProjectID,
		&snap.JobID,
		&stage,
		&snap.Percent,
		&snap.StageLabel,
		&savedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap.Stage = pipeline.Stage(stage)

	ts, err := time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved_at: %w", err)
	}
	snap.SavedAt = ts

	return &snap, nil
}

// Clear deletes the snapshot for the given project scope, if any.
func (r *SnapshotRepository) Clear(projectID string) error {
	if _, err := r.db.Exec("DELETE FROM job_snapshots WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}
