package run

import (
	"context"
	"fmt"

	"forumscraper/pkg/logger"
)

// Guard is the cross-run deduplication gate. It carries the anchor item id
// of the most recent prior run; re-observing that id means everything from
// there on was captured by an earlier session.
type Guard struct {
	anchor string
	log    logger.Logger
}

// NewGuard loads the stop marker from the run history. The lookup happens
// once, before the current session writes anything; with no anchored prior
// run the guard never stops the session (full discovery).
func NewGuard(ctx context.Context, store Store, log logger.Logger) (*Guard, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	prior, err := store.LatestAnchoredRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior run anchor: %w", err)
	}

	g := &Guard{log: log}
	if prior != nil && prior.AnchorItemID != nil {
		g.anchor = *prior.AnchorItemID
		log.InfoWithFields("resumption anchor loaded", map[string]interface{}{
			"anchor_item_id": g.anchor,
			"prior_run_id":   prior.ID,
		})
	} else {
		log.Info("no prior anchored run, full discovery")
	}

	return g, nil
}

// ShouldStop reports whether the given item id matches the anchor. A match
// terminates the session normally before the item is processed.
func (g *Guard) ShouldStop(itemID string) bool {
	return g.anchor != "" && itemID == g.anchor
}

// Anchor returns the loaded anchor item id, or the empty string.
func (g *Guard) Anchor() string {
	return g.anchor
}
