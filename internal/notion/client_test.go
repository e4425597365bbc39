package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDatabaseSendsExpectedRequest(t *testing.T) {
	var capturedAuth, capturedVersion, capturedPath string
	var capturedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedVersion = r.Header.Get("Notion-Version")
		capturedPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		_, _ = w.Write([]byte(`{"results":[{"id":"p1"}],"has_more":true,"next_cursor":"cur-2"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	resp, err := client.QueryDatabase(context.Background(), "token_123", "db1", QueryRequest{
		StartCursor: "cur-1",
		PageSize:    20,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/databases/db1/query", capturedPath)
	assert.Equal(t, "Bearer token_123", capturedAuth)
	assert.NotEmpty(t, capturedVersion)
	assert.Equal(t, "cur-1", capturedBody["start_cursor"])

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].ID)
	assert.True(t, resp.HasMore)
	require.NotNil(t, resp.NextCursor)
	assert.Equal(t, "cur-2", *resp.NextCursor)
}

func TestClientRetriesTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"rate_limited","message":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"p1"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   20 * time.Millisecond,
		MaxRetries: 2,
	})
	page, err := client.CreatePage(context.Background(), "token_123", CreatePageRequest{
		Parent:     Parent{DatabaseID: "db1"},
		Properties: map[string]any{"Name": TitleProp("x")},
	})
	require.NoError(t, err, "retry should recover from a transient failure")
	assert.Equal(t, "p1", page.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryServerErrorOnCreate(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":"service_unavailable","message":"please try again later"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		BaseDelay:  time.Millisecond,
		MaxRetries: 3,
	})
	_, err := client.CreatePage(context.Background(), "token_123", CreatePageRequest{
		Parent:     Parent{DatabaseID: "db1"},
		Properties: map[string]any{"Name": TitleProp("x")},
	})
	require.Error(t, err)

	// The write's outcome is unknown; replaying it could duplicate the page.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestClientDoesNotReplayCreateAfterLostResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// The upstream processed the request but the response never
		// arrives.
		conn, _, hijackErr := w.(http.Hijacker).Hijack()
		require.NoError(t, hijackErr)
		_ = conn.Close()
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		BaseDelay:  time.Millisecond,
		MaxRetries: 3,
	})
	_, err := client.CreatePage(context.Background(), "token_123", CreatePageRequest{
		Parent:     Parent{DatabaseID: "db1"},
		Properties: map[string]any{"Name": TitleProp("once")},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a lost response must not be replayed")
}

func TestClientDoesNotRetryShapeRejection(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"validation_error","message":"title is not a property"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.CreatePage(context.Background(), "token_123", CreatePageRequest{})
	require.Error(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsShapeRejection())
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "title is not a property", apiErr.Message)
	assert.Contains(t, string(apiErr.Body), "validation_error", "raw diagnostic preserved for callers")
}

func TestClientAuthFailureIsFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"API token is invalid"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.GetDatabase(context.Background(), "bad-token", "db1")
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, apiErr.IsShapeRejection())
}

func TestClientRejectsEmptyToken(t *testing.T) {
	client := NewClient(ClientOptions{})
	_, err := client.GetDatabase(context.Background(), "  ", "db1")
	require.Error(t, err)
}

func TestSearchDatabasesFilters(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		_, _ = w.Write([]byte(`{"results":[{"id":"db1","url":"https://notion.so/db1","title":[{"plain_text":"Diary"}]}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	dbs, err := client.SearchDatabases(context.Background(), "token_123")
	require.NoError(t, err)

	filter := capturedBody["filter"].(map[string]any)
	assert.Equal(t, "database", filter["value"])

	require.Len(t, dbs, 1)
	assert.Equal(t, "Diary", dbs[0].PlainTitle())
}
