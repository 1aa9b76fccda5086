package stream

import (
	"context"
	"fmt"
	"time"

	"forumscraper/pkg/logger"
	"forumscraper/pkg/models"
)

// Renderer is the page-render collaborator: it owns the browser and exposes
// the three operations a polling cycle needs.
type Renderer interface {
	// ExtendContent triggers loading more of the feed, e.g. by scrolling
	// to the bottom of the page.
	ExtendContent(ctx context.Context) error
	// CurrentExtent returns a monotonically comparable measure of how much
	// content is loaded, e.g. the document scroll height.
	CurrentExtent(ctx context.Context) (int64, error)
	// CurrentMarkup returns a full snapshot of the rendered structure.
	CurrentMarkup(ctx context.Context) (string, error)
}

// Parser is the markup-parse collaborator: given a snapshot and a batch-id
// predicate it returns the matching batch containers in document order.
type Parser interface {
	Streams(markup string, match func(id string) bool) ([]models.Stream, error)
}

// Tracker drives repeated polling cycles against the renderer, returning
// only batches whose id exceeds the highest id seen in this session.
type Tracker struct {
	renderer    Renderer
	parser      Parser
	settleDelay time.Duration
	log         logger.Logger

	// highestSeen is empty until the first batch is observed; an empty
	// threshold matches every batch, including id 0.
	highestSeen string
	lastExtent  int64
	extentKnown bool
	stalled     bool
}

// NewTracker creates a tracker over the given collaborators.
func NewTracker(renderer Renderer, parser Parser, settleDelay time.Duration, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{
		renderer:    renderer,
		parser:      parser,
		settleDelay: settleDelay,
		log:         log,
	}
}

// Poll runs one discovery cycle: extend the page, wait for it to settle,
// snapshot the markup, and return the batches newer than anything seen so
// far, in document order. The highest observed batch id is folded into the
// threshold afterwards, so batches at or below it are never re-returned.
func (t *Tracker) Poll(ctx context.Context) ([]models.Stream, error) {
	if err := t.renderer.ExtendContent(ctx); err != nil {
		return nil, fmt.Errorf("failed to extend content: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(t.settleDelay):
	}

	markup, err := t.renderer.CurrentMarkup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot markup: %w", err)
	}

	match, err := t.predicate()
	if err != nil {
		return nil, err
	}

	streams, err := t.parser.Streams(markup, match)
	if err != nil {
		return nil, fmt.Errorf("failed to parse streams: %w", err)
	}

	for _, s := range streams {
		if t.highestSeen == "" || compareIDs(s.ID, t.highestSeen) > 0 {
			t.highestSeen = s.ID
		}
	}

	extent, err := t.renderer.CurrentExtent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read content extent: %w", err)
	}
	t.stalled = t.extentKnown && extent == t.lastExtent
	t.lastExtent = extent
	t.extentKnown = true

	t.log.DebugWithFields("poll cycle completed", map[string]interface{}{
		"streams":      len(streams),
		"highest_seen": t.highestSeen,
		"extent":       extent,
	})

	return streams, nil
}

// predicate builds the batch-id predicate for the current threshold. Before
// any batch has been seen every canonical id matches.
func (t *Tracker) predicate() (func(string) bool, error) {
	if t.highestSeen == "" {
		return isDigits, nil
	}
	m, err := NewMatcher(t.highestSeen)
	if err != nil {
		return nil, fmt.Errorf("invalid batch threshold %q: %w", t.highestSeen, err)
	}
	return m.Match, nil
}

// Stalled reports whether the rendered extent was unchanged between the two
// most recent polls, meaning the feed has stopped growing.
func (t *Tracker) Stalled() bool {
	return t.stalled
}

// HighestSeen returns the highest batch id observed so far, or the empty
// string if no batch has been seen.
func (t *Tracker) HighestSeen() string {
	return t.highestSeen
}
