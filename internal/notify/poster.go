package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	httpErrorBodyLimit = 1024
	defaultTimeout     = 10 * time.Second
)

// Poster delivers a JSON body to a webhook endpoint.
type Poster interface {
	Post(ctx context.Context, endpoint string, body []byte) error
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("webhook %s request failed: %s (%s)", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("webhook %s request failed: %s", e.Endpoint, e.Status)
}

// HTTPPoster posts payloads once; deliveries are never retried.
type HTTPPoster struct {
	logger  zerolog.Logger
	client  *retryablehttp.Client
	timeout time.Duration
}

// PosterOption customizes HTTPPoster behavior.
type PosterOption func(*HTTPPoster)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) PosterOption {
	return func(p *HTTPPoster) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewHTTPPoster creates a poster with retries disabled.
func NewHTTPPoster(logger zerolog.Logger, opts ...PosterOption) *HTTPPoster {
	p := &HTTPPoster{
		logger:  logger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: p.timeout}
	p.client = client

	return p
}

// Post implements Poster.
func (p *HTTPPoster) Post(ctx context.Context, endpoint string, body []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		p.logger.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("webhook delivered")
		return nil
	}

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, httpErrorBodyLimit))
	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(excerpt)),
	}
}
