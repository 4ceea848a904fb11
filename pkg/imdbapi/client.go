// Package imdbapi is a client for an imdbapi.dev-style title catalog API.
// Responses are returned as decoded JSON because the upstream shapes vary
// between endpoints and API versions; callers normalize them.
package imdbapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBaseURL = "https://api.imdbapi.dev"

	// DefaultPageSize is the episodes page size used when none is given.
	DefaultPageSize = 12

	maxErrorBody = 512
)

// Sentinel errors for API responses.
var (
	ErrNotFound = errors.New("not found")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Status string // e.g. "404 Not Found"
	Body   string
}

func (e *StatusError) Error() string {
	return strings.TrimSpace(fmt.Sprintf("HTTP %s %s", e.Status, e.Body))
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client is an HTTP client for the title catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	attempts   uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "imdbapi")
	}
}

// WithRetry sets how many times a transient failure (network error or 5xx) is
// attempted in total, and the base delay between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// New creates a new API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		attempts:   2,
		retryDelay: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EpisodeQuery selects one page of a season's episodes.
type EpisodeQuery struct {
	Season    string
	PageSize  int
	PageToken string
}

// TitleQuery selects one page of the popularity-sorted title listing.
type TitleQuery struct {
	Types     []string // e.g. "TV_SERIES"
	PageToken string
}

// Title fetches a title detail payload.
func (c *Client) Title(ctx context.Context, titleID string) (any, error) {
	return c.get(ctx, "/titles/"+url.PathEscape(titleID))
}

// Seasons fetches the season index payload of a title.
func (c *Client) Seasons(ctx context.Context, titleID string) (any, error) {
	return c.get(ctx, "/titles/"+url.PathEscape(titleID)+"/seasons")
}

// Episodes fetches one page of episodes. A zero query fetches the full,
// unfiltered listing the upstream returns.
func (c *Client) Episodes(ctx context.Context, titleID string, q EpisodeQuery) (any, error) {
	params := url.Values{}
	if q.Season != "" {
		params.Set("season", q.Season)
		pageSize := q.PageSize
		if pageSize <= 0 {
			pageSize = DefaultPageSize
		}
		params.Set("pageSize", strconv.Itoa(pageSize))
	}
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}

	endpoint := "/titles/" + url.PathEscape(titleID) + "/episodes"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return c.get(ctx, endpoint)
}

// Titles fetches one page of the title listing.
func (c *Client) Titles(ctx context.Context, q TitleQuery) (any, error) {
	params := url.Values{}
	if len(q.Types) > 0 {
		params.Set("types", strings.Join(q.Types, ","))
	}
	params.Set("sortBy", "SORT_BY_POPULARITY")
	params.Set("sortOrder", "ASC")
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}
	return c.get(ctx, "/titles?"+params.Encode())
}

// get performs a GET with bounded retries on transient failures.
func (c *Client) get(ctx context.Context, endpoint string) (any, error) {
	start := time.Now()

	var payload any
	err := retry.Do(
		func() error {
			p, err := c.getOnce(ctx, endpoint)
			if err != nil {
				return err
			}
			payload = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			if c.log != nil {
				c.log.Debug("retrying request", "endpoint", endpoint, "attempt", n+1, "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	if c.log != nil {
		c.log.Debug("request completed", "endpoint", endpoint, "duration_ms", time.Since(start).Milliseconds())
	}
	return payload, nil
}

func (c *Client) getOnce(ctx context.Context, endpoint string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// checkResponse converts a non-2xx response into a *StatusError carrying a
// prefix of the body.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Code:   resp.StatusCode,
		Status: resp.Status,
		Body:   strings.TrimSpace(string(body)),
	}
}

// isTransient reports whether err is worth another attempt. Cancellation,
// 4xx (including 429) and decode errors are final.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	var ne net.Error
	return errors.As(err, &ne)
}
