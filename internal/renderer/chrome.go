// Package renderer drives a headless browser so script-populated feeds can
// be observed as real visitors see them.
package renderer

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	errs "forumscraper/pkg/errors"
	"forumscraper/pkg/logger"
)

// ChromeRenderer renders the forum's landing page in a Chrome instance and
// exposes scroll-driven content growth.
type ChromeRenderer struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	log           logger.Logger
}

// New launches a browser, navigates to pageURL and waits for the page body.
// A failure here means the render collaborator is unavailable.
func New(ctx context.Context, pageURL string, headless bool, log logger.Logger) (*ChromeRenderer, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	r := &ChromeRenderer{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		log:           log,
	}

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		r.Close()
		return nil, errs.Wrap(errs.ErrorTypeCollaborator, fmt.Sprintf("failed to open %s", pageURL), err)
	}

	log.InfoWithFields("page opened", map[string]interface{}{
		"url": pageURL,
	})
	return r, nil
}

// ExtendContent scrolls to the bottom of the page, prompting the feed to
// append its next batch.
func (r *ChromeRenderer) ExtendContent(ctx context.Context) error {
	runCtx, cancel := r.runCtx(ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeCollaborator, "scroll failed", err)
	}
	return nil
}

// CurrentExtent returns the rendered page height, the signal used to detect
// whether scrolling still grows the feed.
func (r *ChromeRenderer) CurrentExtent(ctx context.Context) (int64, error) {
	runCtx, cancel := r.runCtx(ctx)
	defer cancel()

	var height int64
	err := chromedp.Run(runCtx,
		chromedp.Evaluate(`document.body.scrollHeight`, &height),
	)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeCollaborator, "failed to read page height", err)
	}
	return height, nil
}

// CurrentMarkup returns a snapshot of the fully rendered document.
func (r *ChromeRenderer) CurrentMarkup(ctx context.Context) (string, error) {
	runCtx, cancel := r.runCtx(ctx)
	defer cancel()

	var markup string
	err := chromedp.Run(runCtx,
		chromedp.OuterHTML("html", &markup),
	)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeCollaborator, "failed to capture markup", err)
	}
	return markup, nil
}

// Close shuts down the browser and its allocator.
func (r *ChromeRenderer) Close() {
	r.browserCancel()
	r.allocCancel()
}

// runCtx derives a browser context that respects the caller's deadline.
// chromedp actions must run on the browser context, so the caller's deadline
// is carried over rather than its context used directly.
func (r *ChromeRenderer) runCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(r.browserCtx, deadline)
	}
	return context.WithCancel(r.browserCtx)
}
