// Package fetch downloads media binaries referenced by harvested articles.
package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"forumscraper/pkg/config"
	errs "forumscraper/pkg/errors"
	"forumscraper/pkg/logger"
	"forumscraper/pkg/ratelimit"
	"forumscraper/pkg/retry"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client fetches media content over HTTP with rate limiting and retries
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	userAgent  string
	log        logger.Logger
}

// NewClient creates a media fetch client from the fetch configuration
func NewClient(cfg config.FetchConfig, log logger.Logger) *Client {
	refill := time.Minute
	capacity := cfg.RequestsPerMinute
	if capacity <= 0 {
		capacity = 60
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: ratelimit.NewTokenBucket(capacity, refill),
		retryCfg: &retry.Config{
			MaxAttempts: cfg.MaxRetries,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     retry.DefaultRetryIf,
			Logger:      log,
		},
		userAgent: defaultUserAgent,
		log:       log,
	}
}

// Get downloads the content at url, honoring the rate limit and retrying
// transient failures
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "rate limit wait aborted", err)
	}

	var body []byte
	op := func() error {
		data, err := c.doGet(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	}

	if err := retry.Do(ctx, op, c.retryCfg); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to create request", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,video/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}

	return data, nil
}

// checkStatus maps an HTTP status code to the error taxonomy
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "media not found", Code: code}
	case code == http.StatusTooManyRequests:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "rate limited by server", Code: code}
	case code >= 500:
		return &errs.Error{Type: errs.ErrorTypeServerError, Message: "server error", Code: code}
	default:
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: "unexpected status", Code: code}
	}
}
