// Package photoroom talks to the PhotoRoom image editing API.
package photoroom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"photo-sku-backend/internal/metrics"
)

const (
	DefaultBaseURL     = "https://image-api.photoroom.com"
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Editing parameters sent with every request.
var editParams = [][2]string{
	{"background.color", "FFFFFF"},
	{"outputSize", "2000x2000"},
	{"position.gravity", "center"},
	{"padding", "0.14"},
	{"export.format", "jpg"},
}

// Remover removes the background of a single image.
type Remover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	metrics     *metrics.RemoteCallMetrics
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the attempt cap and the delay before the first retry.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

func WithMetrics(m *metrics.RemoteCallMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoveBackground sends image to the edit endpoint and returns the edited
// bytes exactly as received. Retryable failures are retried with exponential
// backoff; the returned error keeps the last attempt's classification.
func (c *Client) RemoveBackground(ctx context.Context, image []byte) ([]byte, error) {
	if len(image) == 0 {
		return nil, &Error{Kind: KindClient, Message: "empty image"}
	}

	var edited []byte
	err := c.RetryWithBackoff(ctx, func() error {
		out, err := c.edit(ctx, image)
		if err != nil {
			return err
		}
		edited = out
		return nil
	}, c.maxAttempts)
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// RetryWithBackoff runs fn up to maxAttempts times. Only retryable errors are
// retried, and the delay is applied before a retry, never after the last attempt.
func (c *Client) RetryWithBackoff(ctx context.Context, fn func() error, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			if attempt == 1 {
				return err
			}
			return fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		if attempt == maxAttempts {
			break
		}

		c.metrics.IncRetry()
		if err := c.sleep(ctx, c.Backoff(attempt)); err != nil {
			return fmt.Errorf("retry interrupted after %d attempts (%v): %w", attempt, lastErr, err)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

// Backoff returns the delay before retrying a failed attempt (1-based).
func (c *Client) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return c.baseDelay * time.Duration(1<<(attempt-1))
}

func (c *Client) edit(ctx context.Context, image []byte) ([]byte, error) {
	start := time.Now()

	body, contentType, err := buildForm(image)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "failed to build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/edit", body)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png, application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAttempt(string(KindTransport), time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveAttempt(string(KindTransport), time.Since(start))
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := classify(resp.StatusCode, respBody)
		c.metrics.ObserveAttempt(string(perr.Kind), time.Since(start))
		return nil, perr
	}

	c.metrics.ObserveAttempt("success", time.Since(start))
	return respBody, nil
}

func buildForm(image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("data", "image.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	for _, kv := range editParams {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
