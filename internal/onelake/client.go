package onelake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mo-amir99/training-portal/pkg/metrics"
)

const userAgent = "Training-Portal-Go/1.0.0"

// Config describes where the training documents live.
type Config struct {
	Endpoint       string
	Workspace      string
	Lakehouse      string
	Folder         string
	APIVersion     string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Document is a full JSON document together with its version tag.
type Document struct {
	Body []byte
	ETag string
}

// Client reads and writes whole documents in a OneLake lakehouse folder.
type Client struct {
	baseURL        string
	apiVersion     string
	tokens         oauth2.TokenSource
	httpClient     *http.Client
	logger         *slog.Logger
	maxRetries     int
	initialBackoff time.Duration
	sleep          func(context.Context, time.Duration) error
}

// NewClient creates a OneLake client. tokens supplies bearer tokens for every request.
func NewClient(cfg Config, tokens oauth2.TokenSource, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-11-03"
	}
	backoff := cfg.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		baseURL:        BaseURL(cfg),
		apiVersion:     apiVersion,
		tokens:         tokens,
		logger:         logger,
		maxRetries:     retries,
		initialBackoff: backoff,
		sleep:          sleepContext,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL builds the folder URL, e.g.
// https://onelake.dfs.fabric.microsoft.com/MS-Fabric-Learn/Learning_LH.Lakehouse/Files/TrainingData
func BaseURL(cfg Config) string {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	parts := []string{
		url.PathEscape(cfg.Workspace),
		url.PathEscape(cfg.Lakehouse) + ".Lakehouse",
		"Files",
	}
	for _, segment := range strings.Split(strings.Trim(cfg.Folder, "/"), "/") {
		if segment != "" {
			parts = append(parts, url.PathEscape(segment))
		}
	}
	return endpoint + "/" + strings.Join(parts, "/")
}

// DocumentURL returns the absolute URL of a document in the folder.
func (c *Client) DocumentURL(name string) string {
	return c.baseURL + "/" + url.PathEscape(name)
}

// VerifyCredentials obtains a token so that bad credentials fail fast at startup.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	if _, err := c.token(ctx); err != nil {
		return err
	}
	return nil
}

// Get downloads a document. A missing document returns ErrNotFound.
func (c *Client) Get(ctx context.Context, name string) (Document, error) {
	var doc Document

	err := c.do(ctx, http.MethodGet, name, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.DocumentURL(name), nil)
	}, func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return statusError(resp)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
		}
		doc = Document{Body: body, ETag: resp.Header.Get("ETag")}
		return nil
	})

	return doc, err
}

// Put replaces a document. When etag is set the write only succeeds if the stored
// document still carries that tag; when etag is empty the document must not exist yet.
// A rejected condition returns ErrPreconditionFailed. The new tag is returned.
func (c *Client) Put(ctx context.Context, name string, body []byte, etag string) (string, error) {
	var newTag string

	err := c.do(ctx, http.MethodPut, name, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.DocumentURL(name), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if etag != "" {
			req.Header.Set("If-Match", etag)
		} else {
			req.Header.Set("If-None-Match", "*")
		}
		return req, nil
	}, func(resp *http.Response) error {
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return statusError(resp)
		}
		newTag = resp.Header.Get("ETag")
		return nil
	})

	return newTag, err
}

func (c *Client) do(ctx context.Context, method, name string, build func() (*http.Request, error), handle func(*http.Response) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffDuration(c.initialBackoff, attempt)
			metrics.RecordStoreRetry(method, name)
			c.logger.Warn("retrying document store request",
				slog.String("method", method),
				slog.String("document", name),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		lastErr = c.attempt(ctx, method, name, build, handle)
		if lastErr == nil || !isRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, name string, build func() (*http.Request, error), handle func(*http.Response) error) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := build()
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	req.Header.Set("x-ms-version", c.apiVersion)
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordStoreRequest(method, name, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, ctxErr)
		}
		return &transientError{err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	metrics.RecordStoreRequest(method, name, resp.StatusCode, time.Since(start))
	return handle(resp)
}

func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	if c.tokens == nil {
		return nil, ErrNoCredentials
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}
	return tok, nil
}

// statusError maps a non-success response to one of the package sentinels.
func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Sprintf("status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrPreconditionFailed, detail)
	case resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= 500:
		return &transientError{err: fmt.Errorf("%w: %s", ErrUnavailable, detail)}
	default:
		return fmt.Errorf("document store error: %s", detail)
	}
}

func isRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
