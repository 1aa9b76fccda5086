// Package scraper runs one discovery session end to end: poll the feed for
// new batches, walk their articles in order, and stop at the first previously
// captured item, a growth stall, or the time budget.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forumscraper/pkg/classify"
	"forumscraper/pkg/logger"
	"forumscraper/pkg/models"
	"forumscraper/pkg/pipeline"
	"forumscraper/pkg/run"
)

// Session stop reasons, persisted on the run record.
const (
	StopReasonAnchor  = "reached previously processed item"
	StopReasonStalled = "content growth stalled"
	StopReasonBudget  = "scroll time budget exceeded"
	StopReasonError   = "session error"
)

// Poller supplies newly appended batches. Implemented by stream.Tracker.
type Poller interface {
	Poll(ctx context.Context) ([]models.Stream, error)
	Stalled() bool
}

// Ingester processes one article. Implemented by pipeline.Pipeline.
type Ingester interface {
	Ingest(ctx context.Context, article models.Article, rec *run.Recorder) pipeline.Result
}

// Summary describes how a session ended.
type Summary struct {
	RunID          string
	ItemsProcessed int
	StopReason     string
}

// Scraper owns one session's control flow. Sessions are single threaded:
// articles are visited strictly in discovery order so the run anchor is
// always the newest item the session captured.
type Scraper struct {
	poller     Poller
	ingester   Ingester
	runStore   run.Store
	classifier *classify.Classifier
	budget     time.Duration
	log        logger.Logger
}

// New creates a scraper over the given collaborators.
func New(poller Poller, ingester Ingester, runStore run.Store, classifier *classify.Classifier, budget time.Duration, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		poller:     poller,
		ingester:   ingester,
		runStore:   runStore,
		classifier: classifier,
		budget:     budget,
		log:        log,
	}
}

// Run executes one discovery session. The run record is created only after
// the resumption anchor is loaded, and is closed on every exit path.
func (s *Scraper) Run(ctx context.Context) (Summary, error) {
	guard, err := run.NewGuard(ctx, s.runStore, s.log)
	if err != nil {
		return Summary{}, err
	}

	rec, err := run.Open(ctx, s.runStore, s.log)
	if err != nil {
		return Summary{}, err
	}

	reason := StopReasonError
	closeCtx := context.WithoutCancel(ctx)
	defer func() {
		if closeErr := rec.Close(closeCtx, reason); closeErr != nil {
			s.log.WithError(closeErr).Error("failed to close run record")
		}
	}()

	// The budget bounds discovery; an article already in flight when it
	// expires still finishes against the parent context.
	pollCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	var sessionErr error

loop:
	for {
		streams, err := s.poller.Poll(pollCtx)
		if err != nil {
			// A poll failing because the budget deadline fired mid-cycle is
			// normal termination, however the collaborator dressed the error.
			if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || pollCtx.Err() != nil) {
				reason = StopReasonBudget
				break loop
			}
			sessionErr = err
			reason = fmt.Sprintf("%s: %v", StopReasonError, err)
			break loop
		}

		for _, stream := range streams {
			for _, article := range stream.Articles {
				if guard.ShouldStop(article.ID) {
					s.log.InfoWithFields("anchor reached", map[string]interface{}{
						"item_id": article.ID,
					})
					reason = StopReasonAnchor
					break loop
				}
				s.handle(ctx, article, rec)
			}
		}

		if s.poller.Stalled() {
			reason = StopReasonStalled
			break loop
		}
	}

	summary := Summary{
		RunID:          rec.RunID(),
		ItemsProcessed: rec.Processed(),
		StopReason:     reason,
	}
	return summary, sessionErr
}

// handle dispatches one article to its handler. Skips and failures are
// logged and contained; nothing an article does ends the session.
func (s *Scraper) handle(ctx context.Context, article models.Article, rec *run.Recorder) {
	c := s.classifier.Classify(article)

	switch c.Handler {
	case classify.HandlerIngest:
		res := s.ingester.Ingest(ctx, article, rec)
		switch res.Outcome {
		case pipeline.OutcomeSuccess:
			s.log.InfoWithFields("article captured", map[string]interface{}{
				"item_id": article.ID,
				"type":    string(c.Type),
			})
		case pipeline.OutcomeSkip:
			s.log.InfoWithFields("article skipped", map[string]interface{}{
				"item_id": article.ID,
				"reason":  res.Reason,
			})
		case pipeline.OutcomeFail:
			s.log.WarnWithFields("article failed", map[string]interface{}{
				"item_id": article.ID,
				"reason":  res.Reason,
			})
		}
	case classify.HandlerSkipRestricted:
		s.log.InfoWithFields("skipping restricted article", map[string]interface{}{
			"item_id": article.ID,
		})
	case classify.HandlerSkipEmpty:
		s.log.Info("skipping empty article")
	case classify.HandlerSkipUnsupported:
		s.log.InfoWithFields("skipping unsupported article type", map[string]interface{}{
			"item_id": article.ID,
			"type":    string(c.Type),
		})
	default:
		s.log.InfoWithFields("skipping unclassified article", map[string]interface{}{
			"item_id": article.ID,
			"tokens":  article.TypeTokens,
		})
	}
}
