package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response from the Notion API with its decoded
// diagnostic payload.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: status=%d message=%s", e.Status, e.Message)
}

// IsShapeRejection reports whether the API rejected the request body itself
// (validation failure), as opposed to auth, rate-limit or server trouble.
func (e *APIError) IsShapeRejection() bool {
	return e.Status == http.StatusBadRequest
}

// AsAPIError unwraps err to an *APIError if there is one in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	APIVersion string
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Client talks to the Notion REST API. The integration token is passed per
// call because every user brings their own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiVersion string
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiVersion: apiVersion,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

func (c *Client) QueryDatabase(ctx context.Context, token, databaseID string, q QueryRequest) (*QueryResponse, error) {
	var out QueryResponse
	path := "/v1/databases/" + databaseID + "/query"
	if err := c.do(ctx, token, http.MethodPost, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePage(ctx context.Context, token string, req CreatePageRequest) (*Page, error) {
	var out Page
	if err := c.do(ctx, token, http.MethodPost, "/v1/pages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePage(ctx context.Context, token, pageID string, req UpdatePageRequest) (*Page, error) {
	var out Page
	if err := c.do(ctx, token, http.MethodPatch, "/v1/pages/"+pageID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDatabase(ctx context.Context, token, databaseID string) (*Database, error) {
	var out Database
	if err := c.do(ctx, token, http.MethodGet, "/v1/databases/"+databaseID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDatabase patches property definitions on a database. Callers are
// expected to send only the properties they want created or extended.
func (c *Client) UpdateDatabase(ctx context.Context, token, databaseID string, properties map[string]any) (*Database, error) {
	var out Database
	body := map[string]any{"properties": properties}
	if err := c.do(ctx, token, http.MethodPatch, "/v1/databases/"+databaseID, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchDatabases lists databases the integration token can reach.
func (c *Client) SearchDatabases(ctx context.Context, token string) ([]Database, error) {
	body := map[string]any{
		"filter": map[string]any{"value": "database", "property": "object"},
	}
	var out struct {
		Results []Database `json:"results"`
	}
	if err := c.do(ctx, token, http.MethodPost, "/v1/search", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, payload, out any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("notion: empty integration token")
	}

	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// A lost response on a write may already have committed
			// upstream; replaying it could duplicate the page. Surface the
			// failure and let the caller decide.
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(respBody, out)
		}

		// Only a rate limit is replayed: a 429 guarantees the request was
		// not processed. 5xx leaves a write's outcome unknown, so it is
		// final, same as a transport failure.
		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(respBody)),
			Body:    json.RawMessage(respBody),
		}
		var parsed map[string]any
		if json.Unmarshal(respBody, &parsed) == nil {
			if code, ok := parsed["code"].(string); ok {
				apiErr.Code = code
			}
			if message, ok := parsed["message"].(string); ok && strings.TrimSpace(message) != "" {
				apiErr.Message = message
			}
		}
		return apiErr
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
