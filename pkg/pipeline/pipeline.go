// Package pipeline turns one classified article into durable records: a
// media blob, its metadata row and the post row, in that order.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"forumscraper/pkg/logger"
	"forumscraper/pkg/models"
	"forumscraper/pkg/run"
	"forumscraper/pkg/storage"
)

// Outcome is the terminal state of one article's ingest.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkip    Outcome = "skip"
	OutcomeFail    Outcome = "fail"
)

// Result describes what happened to one article.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Fetcher downloads media binaries. Implemented by fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// DocumentStore persists media and post rows. Implemented by internal/store.
type DocumentStore interface {
	InsertMedia(ctx context.Context, media *models.Media) error
	InsertPost(ctx context.Context, post *models.Post) error
}

// Pipeline ingests articles one at a time. A failing article never takes the
// session down with it; every failure is contained in the returned Result.
type Pipeline struct {
	fetcher Fetcher
	docs    DocumentStore
	blobs   *storage.BlobStore
	log     logger.Logger

	now func() time.Time
}

// New creates an ingest pipeline over the given collaborators.
func New(fetcher Fetcher, docs DocumentStore, blobs *storage.BlobStore, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		fetcher: fetcher,
		docs:    docs,
		blobs:   blobs,
		log:     log,
		now:     time.Now,
	}
}

// Ingest processes one article end to end. On success the run recorder's
// counter is bumped and, if this is the run's first success, its anchor is
// set to the article id.
func (p *Pipeline) Ingest(ctx context.Context, article models.Article, rec *run.Recorder) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorWithFields("ingest panicked", map[string]interface{}{
				"article_id": article.ID,
				"panic":      fmt.Sprint(r),
			})
			res = Result{Outcome: OutcomeFail, Reason: "internal error"}
		}
	}()

	if len(article.Media) == 0 {
		return Result{Outcome: OutcomeSkip, Reason: "no extractable media"}
	}

	points, comments, err := parseCounters(article.MetaText)
	if err != nil {
		p.log.WarnWithFields("malformed post meta", map[string]interface{}{
			"article_id": article.ID,
			"meta":       article.MetaText,
			"error":      err.Error(),
		})
		return Result{Outcome: OutcomeFail, Reason: "malformed post meta"}
	}

	ref := article.Media[0]
	data, err := p.fetcher.Get(ctx, ref.URL)
	if err != nil {
		p.log.WarnWithFields("media fetch failed", map[string]interface{}{
			"article_id": article.ID,
			"url":        ref.URL,
			"error":      err.Error(),
		})
		return Result{Outcome: OutcomeFail, Reason: "media fetch failed"}
	}

	now := p.now().UTC()
	filename := mediaFilename(ref.URL)
	media := &models.Media{
		ID:        uuid.NewString(),
		Filename:  filename,
		FileType:  strings.TrimPrefix(path.Ext(filename), "."),
		SourceURL: ref.URL,
		Kind:      ref.Kind,
	}

	if err := p.blobs.Put(media.ID, filename, data); err != nil {
		p.log.ErrorWithFields("blob write failed", map[string]interface{}{
			"article_id": article.ID,
			"media_id":   media.ID,
			"error":      err.Error(),
		})
		return Result{Outcome: OutcomeFail, Reason: "blob write failed"}
	}

	if err := p.docs.InsertMedia(ctx, media); err != nil {
		p.log.ErrorWithFields("media row insert failed", map[string]interface{}{
			"article_id": article.ID,
			"error":      err.Error(),
		})
		return Result{Outcome: OutcomeFail, Reason: "media record failed"}
	}

	post := &models.Post{
		ArticleID:   article.ID,
		Title:       article.Title,
		Section:     article.Section,
		RelativeAge: article.RelativeAge,
		PostedAt:    resolveRelativeAge(article.RelativeAge, now),
		Points:      points,
		Comments:    comments,
		ShortLink:   article.ShortLink,
		ProcessedAt: now,
		RunID:       rec.RunID(),
		MediaID:     media.ID,
	}
	if err := p.docs.InsertPost(ctx, post); err != nil {
		p.log.ErrorWithFields("post row insert failed", map[string]interface{}{
			"article_id": article.ID,
			"error":      err.Error(),
		})
		return Result{Outcome: OutcomeFail, Reason: "post record failed"}
	}

	rec.Increment()
	if err := rec.RecordFirstSuccess(ctx, article.ID); err != nil {
		// The post is durable; only the anchor write failed. Surface it but
		// count the item as processed.
		p.log.ErrorWithFields("anchor write failed", map[string]interface{}{
			"article_id": article.ID,
			"error":      err.Error(),
		})
	}

	p.log.DebugWithFields("article ingested", map[string]interface{}{
		"article_id": article.ID,
		"media_id":   media.ID,
	})
	return Result{Outcome: OutcomeSuccess}
}

// parseCounters extracts the points and comments counts from the post meta
// text, e.g. " 1,758 points · 55 comments ".
func parseCounters(meta string) (points, comments int, err error) {
	parts := strings.Split(meta, "·")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected two counter segments, got %d", len(parts))
	}

	points, err = parseCounter(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("points: %w", err)
	}
	comments, err = parseCounter(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("comments: %w", err)
	}
	return points, comments, nil
}

// parseCounter strips everything but digits and parses what remains, so
// "1,758 points" becomes 1758.
func parseCounter(s string) (int, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("no digits in %q", strings.TrimSpace(s))
	}
	return strconv.Atoi(b.String())
}

// resolveRelativeAge converts a relative age like "5h" or "2d" into an
// absolute time by subtracting from now. Unparseable ages resolve to now.
func resolveRelativeAge(age string, now time.Time) time.Time {
	age = strings.TrimSpace(age)
	if len(age) < 2 {
		return now
	}

	value, err := strconv.Atoi(age[:len(age)-1])
	if err != nil || value < 0 {
		return now
	}

	switch age[len(age)-1] {
	case 'm':
		return now.Add(-time.Duration(value) * time.Minute)
	case 'h':
		return now.Add(-time.Duration(value) * time.Hour)
	case 'd':
		return now.Add(-time.Duration(value) * 24 * time.Hour)
	default:
		return now
	}
}

// mediaFilename derives an on-disk filename from the media URL path.
func mediaFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "media"
	}
	return path.Base(u.Path)
}
