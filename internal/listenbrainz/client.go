package listenbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"playsync/internal/playhistory"
)

// MaxListensPerRequest is the server-side cap on count.
const MaxListensPerRequest = 1000

const (
	defaultTimeout      = 30 * time.Second
	maxRateLimitRetries = 3
	maxRateLimitWait    = 60 * time.Second
)

// ErrUserNotFound is returned when the service has no such user.
var ErrUserNotFound = errors.New("listenbrainz: user not found")

// APIError is a non-success response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("listenbrainz returned %d", e.Status)
	}
	return fmt.Sprintf("listenbrainz returned %d: %s", e.Status, e.Message)
}

// ErrorKind classifies the failure for callers.
func (e *APIError) ErrorKind() string {
	switch {
	case e.Status == http.StatusNotFound:
		return "not_found"
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return "configuration"
	case e.Status == http.StatusTooManyRequests:
		return "rate_limited"
	case e.Status >= 500:
		return "transient"
	}
	return "validation"
}

func (e *APIError) Is(target error) bool {
	return target == ErrUserNotFound && e.Status == http.StatusNotFound
}

// Fetcher is the listen source used by the reconcile driver.
type Fetcher interface {
	GetListens(ctx context.Context, user string, maxTS int64, count int) ([]playhistory.Listen, error)
}

// Client talks to a ListenBrainz server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sends "Authorization: Token <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout sets the default HTTP client's timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a client for baseURL, e.g. https://api.listenbrainz.org.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("listenbrainz base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse listenbrainz base url: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type listenPayload struct {
	Payload struct {
		Count   int    `json:"count"`
		UserID  string `json:"user_id"`
		Listens []struct {
			ListenedAt    int64 `json:"listened_at"`
			TrackMetadata struct {
				ArtistName  string `json:"artist_name"`
				TrackName   string `json:"track_name"`
				ReleaseName string `json:"release_name"`
			} `json:"track_metadata"`
		} `json:"listens"`
	} `json:"payload"`
}

type countPayload struct {
	Payload struct {
		Count int64 `json:"count"`
	} `json:"payload"`
}

type errorPayload struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// GetListens returns up to count of user's most recent listens, newest first.
// When maxTS is positive only listens strictly before it are returned.
func (c *Client) GetListens(ctx context.Context, user string, maxTS int64, count int) ([]playhistory.Listen, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, errors.New("listenbrainz user must not be empty")
	}
	if count <= 0 || count > MaxListensPerRequest {
		return nil, fmt.Errorf("listen count must be between 1 and %d", MaxListensPerRequest)
	}
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if maxTS > 0 {
		params.Set("max_ts", strconv.FormatInt(maxTS, 10))
	}

	var payload listenPayload
	if err := c.get(ctx, "/1/user/"+url.PathEscape(user)+"/listens", params, &payload); err != nil {
		return nil, err
	}

	listens := make([]playhistory.Listen, 0, len(payload.Payload.Listens))
	for _, l := range payload.Payload.Listens {
		listens = append(listens, playhistory.Listen{
			ArtistName: l.TrackMetadata.ArtistName,
			TrackName:  l.TrackMetadata.TrackName,
			ListenedAt: l.ListenedAt,
		})
	}
	return listens, nil
}

// ListenCount returns the total number of listens recorded for user.
func (c *Client) ListenCount(ctx context.Context, user string) (int64, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return 0, errors.New("listenbrainz user must not be empty")
	}
	var payload countPayload
	if err := c.get(ctx, "/1/user/"+url.PathEscape(user)+"/listen-count", nil, &payload); err != nil {
		return 0, err
	}
	return payload.Payload.Count, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse listenbrainz url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Token "+c.token)
		}

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetries {
			wait := rateLimitWait(resp.Header)
			drain(resp.Body)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%s (latency=%v): %w", path, latency, err)
		}
		return nil
	}
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload errorPayload
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode listenbrainz response: %w", err)
	}
	return nil
}

func rateLimitWait(h http.Header) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(h.Get("X-RateLimit-Reset-In")))
	if err != nil || seconds < 0 {
		seconds = 1
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	return wait
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
