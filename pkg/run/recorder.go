// Package run owns one discovery session's bookkeeping: the append-only Run
// record and the cross-run resumption anchor derived from prior runs.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"forumscraper/pkg/logger"
	"forumscraper/pkg/models"
)

// Store is the persisted run history. Implemented by internal/store.
type Store interface {
	InsertRun(ctx context.Context, run *models.Run) error
	SetRunAnchor(ctx context.Context, runID, itemID string) error
	CloseRun(ctx context.Context, runID string, endedAt time.Time, itemsProcessed int, reason string) error
	// LatestAnchoredRun returns the most recent run carrying a non-nil
	// anchor, or nil if none exists.
	LatestAnchoredRun(ctx context.Context) (*models.Run, error)
}

// Recorder tracks one active run. Only the session that opened it may touch
// it; the Run row has a single writer by construction.
type Recorder struct {
	store Store
	log   logger.Logger

	run       models.Run
	anchorSet bool
	processed int
	closed    bool
}

// Open creates the Run record and returns its recorder. Failing to insert
// the row is fatal for the session: no Run record, no session.
func Open(ctx context.Context, store Store, log logger.Logger) (*Recorder, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	r := &Recorder{
		store: store,
		log:   log,
		run: models.Run{
			ID:        uuid.NewString(),
			StartedAt: time.Now().UTC(),
		},
	}

	if err := store.InsertRun(ctx, &r.run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	log.InfoWithFields("run opened", map[string]interface{}{
		"run_id": r.run.ID,
	})

	return r, nil
}

// RunID returns the id of the active run.
func (r *Recorder) RunID() string {
	return r.run.ID
}

// RecordFirstSuccess sets the run's anchor to the given item id. The anchor
// is written exactly once; later calls are silent no-ops.
func (r *Recorder) RecordFirstSuccess(ctx context.Context, itemID string) error {
	if r.anchorSet {
		return nil
	}

	if err := r.store.SetRunAnchor(ctx, r.run.ID, itemID); err != nil {
		return fmt.Errorf("failed to record run anchor: %w", err)
	}

	r.anchorSet = true
	r.run.AnchorItemID = &itemID
	r.log.InfoWithFields("run anchor recorded", map[string]interface{}{
		"run_id":  r.run.ID,
		"item_id": itemID,
	})
	return nil
}

// Increment bumps the processed-items counter. The counter is persisted once,
// at close.
func (r *Recorder) Increment() {
	r.processed++
}

// Processed returns the current processed-items counter.
func (r *Recorder) Processed() int {
	return r.processed
}

// Close finalizes the run record with its end time, final counter and stop
// reason. It must run on every session exit path and is a no-op after the
// first call.
func (r *Recorder) Close(ctx context.Context, reason string) error {
	if r.closed {
		return nil
	}
	r.closed = true

	endedAt := time.Now().UTC()
	if err := r.store.CloseRun(ctx, r.run.ID, endedAt, r.processed, reason); err != nil {
		return fmt.Errorf("failed to close run record: %w", err)
	}

	r.log.InfoWithFields("run closed", map[string]interface{}{
		"run_id":          r.run.ID,
		"items_processed": r.processed,
		"reason":          reason,
	})
	return nil
}
