package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"forumscraper/pkg/models"
)

// RunRepository handles database operations for run records.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// InsertRun creates a new open run record.
func (r *RunRepository) InsertRun(ctx context.Context, run *models.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, items_processed, stop_reason)
		VALUES (?, ?, 0, '')
	`, run.ID, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// SetRunAnchor records the run's resumption anchor. The anchor is immutable
// once written.
func (r *RunRepository) SetRunAnchor(ctx context.Context, runID, itemID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET anchor_item_id = ?
		WHERE id = ? AND anchor_item_id IS NULL
	`, itemID, runID)
	if err != nil {
		return fmt.Errorf("failed to set run anchor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check anchor update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found or anchor already set", runID)
	}
	return nil
}

// CloseRun finalizes a run record with its end time, item count and stop
// reason.
func (r *RunRepository) CloseRun(ctx context.Context, runID string, endedAt time.Time, itemsProcessed int, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs SET ended_at = ?, items_processed = ?, stop_reason = ?
		WHERE id = ?
	`, endedAt, itemsProcessed, reason, runID)
	if err != nil {
		return fmt.Errorf("failed to close run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check run close: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// LatestAnchoredRun returns the most recently started run that recorded an
// anchor, or nil when no prior run did.
func (r *RunRepository) LatestAnchoredRun(ctx context.Context) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, items_processed, anchor_item_id, stop_reason
		FROM runs
		WHERE anchor_item_id IS NOT NULL
		ORDER BY started_at DESC
		LIMIT 1
	`)

	var (
		run     models.Run
		endedAt sql.NullTime
		anchor  sql.NullString
	)
	err := row.Scan(&run.ID, &run.StartedAt, &endedAt, &run.ItemsProcessed, &anchor, &run.StopReason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest anchored run: %w", err)
	}

	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	if anchor.Valid {
		run.AnchorItemID = &anchor.String
	}
	return &run, nil
}
