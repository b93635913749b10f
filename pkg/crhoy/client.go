// Package crhoy talks to the crhoy.com news API and website: day index
// fetching, availability probes and article page retrieval.
package crhoy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Default upstream endpoints.
const (
	DefaultAPIBaseURL = "https://api.crhoy.net/"
	DefaultWebsiteURL = "https://www.crhoy.com/"
)

// internetProbeAddr is a host that answers TCP connects whenever the machine
// is online.
const internetProbeAddr = "8.8.8.8:53"

// emptyIndexJSON is what a day with no published articles looks like. The
// API answers 404 for such days.
const emptyIndexJSON = `{"ultimas":[]}`

// defaultRetryDelay seeds the pause between retry attempts; it doubles on
// every further attempt.
const defaultRetryDelay = time.Second

// StatusError reports an unexpected upstream HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Client is an HTTP client for the upstream API and website.
type Client struct {
	http       *http.Client
	apiBase    string
	websiteURL string
	probeAddr  string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIBaseURL overrides the API endpoint, mainly for tests.
func WithAPIBaseURL(url string) Option {
	return func(c *Client) { c.apiBase = url }
}

// WithWebsiteURL overrides the website endpoint, mainly for tests.
func WithWebsiteURL(url string) Option {
	return func(c *Client) { c.websiteURL = url }
}

// WithInternetProbeAddr overrides the host:port used by CheckInternet,
// mainly for tests.
func WithInternetProbeAddr(addr string) Option {
	return func(c *Client) { c.probeAddr = addr }
}

// WithRetryDelay overrides the base pause between retry attempts, mainly for
// tests.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient builds an upstream client. maxRetries counts attempts beyond the
// first; zero means a single attempt.
func NewClient(timeout time.Duration, maxRetries int, userAgent string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		apiBase:    DefaultAPIBaseURL,
		websiteURL: DefaultWebsiteURL,
		probeAddr:  internetProbeAddr,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger.With("component", "crhoy"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckInternet reports whether the machine has outbound connectivity at all,
// using a plain TCP connect to a well-known resolver.
func (c *Client) CheckInternet(timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", c.probeAddr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// CheckAPIAvailability reports whether the API server responds. Any HTTP
// response, including errors, counts as available; only transport failures
// count as down.
func (c *Client) CheckAPIAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.apiBase, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// CheckWebsiteAvailability reports whether the website answers 200 to a HEAD
// request.
func (c *Client) CheckWebsiteAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.websiteURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// FetchDayIndex fetches and parses the index for one calendar day. A 404
// means the day has no articles and yields an empty index, not an error.
// The raw payload is returned alongside for archival.
func (c *Client) FetchDayIndex(ctx context.Context, day time.Time) (*Index, []byte, error) {
	url := fmt.Sprintf("%sultimas/%s.json?v=3", c.apiBase, day.Format("2006-01-02"))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.get(ctx, url)
		if err == nil {
			idx, perr := ParseIndex(raw)
			if perr != nil {
				return nil, nil, fmt.Errorf("index for %s: %w", day.Format("2006-01-02"), perr)
			}
			c.logger.Info("fetched day index", "day", day.Format("2006-01-02"), "articles", len(idx.Items))
			return idx, raw, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			c.logger.Warn("no index for day", "day", day.Format("2006-01-02"))
			return &Index{Items: []IndexItem{}}, []byte(emptyIndexJSON), nil
		}
		lastErr = err
		c.logger.Warn("index fetch failed", "day", day.Format("2006-01-02"), "attempt", attempt+1, "error", err)
		if attempt < c.maxRetries {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, nil, err
			}
		}
	}
	return nil, nil, fmt.Errorf("failed to fetch index for %s: %w", day.Format("2006-01-02"), lastErr)
}

// FetchArticlePage fetches the raw HTML of an article page, with retries.
func (c *Client) FetchArticlePage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.get(ctx, url)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		c.logger.Warn("article fetch failed", "url", url, "attempt", attempt+1, "error", err)
		if attempt < c.maxRetries {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch %s: %w", url, lastErr)
}

// backoff pauses before retry attempt+1, doubling the delay per attempt.
// Returns the context error when cancelled mid-pause.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.retryDelay << attempt
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
	return io.ReadAll(resp.Body)
}
