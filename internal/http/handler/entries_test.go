package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairdiary/internal/auth"
	"pairdiary/internal/entry"
	"pairdiary/internal/notion"
	"pairdiary/internal/profile"
)

type stubStore struct {
	createFn func(req notion.CreatePageRequest) (*notion.Page, error)
	updateFn func(pageID string, req notion.UpdatePageRequest) (*notion.Page, error)
	queryFn  func(q notion.QueryRequest) (*notion.QueryResponse, error)
}

func (s *stubStore) QueryDatabase(_ context.Context, _, _ string, q notion.QueryRequest) (*notion.QueryResponse, error) {
	if s.queryFn != nil {
		return s.queryFn(q)
	}
	return &notion.QueryResponse{}, nil
}

func (s *stubStore) CreatePage(_ context.Context, _ string, req notion.CreatePageRequest) (*notion.Page, error) {
	if s.createFn != nil {
		return s.createFn(req)
	}
	return &notion.Page{ID: "p1", Properties: req.Properties}, nil
}

func (s *stubStore) UpdatePage(_ context.Context, _, pageID string, req notion.UpdatePageRequest) (*notion.Page, error) {
	if s.updateFn != nil {
		return s.updateFn(pageID, req)
	}
	page := &notion.Page{ID: pageID, Properties: req.Properties}
	if req.Archived != nil {
		page.Archived = *req.Archived
	}
	return page, nil
}

func (s *stubStore) GetDatabase(_ context.Context, _, _ string) (*notion.Database, error) {
	return &notion.Database{Properties: map[string]notion.PropertySchema{"Name": {Type: "title"}}}, nil
}

func (s *stubStore) UpdateDatabase(_ context.Context, _, _ string, _ map[string]any) (*notion.Database, error) {
	return &notion.Database{}, nil
}

func (s *stubStore) SearchDatabases(_ context.Context, _ string) ([]notion.Database, error) {
	return nil, nil
}

type stubResolver struct {
	err error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (profile.IntegrationConfig, error) {
	if s.err != nil {
		return profile.IntegrationConfig{}, s.err
	}
	return profile.IntegrationConfig{APIKey: "k", DatabaseID: "db"}, nil
}

func (s *stubResolver) Linked(_ context.Context, _, _ string) (bool, error) { return true, nil }

func newTestRouter(store entry.Store, resolver entry.ConfigResolver) (http.Handler, string) {
	jwtSvc := auth.NewJWT("test-secret")
	token, _ := jwtSvc.Sign("user-1")

	svc := entry.NewService(store, resolver, nil, nil)
	eh := &EntryHandler{Svc: svc}
	sh := &SchemaHandler{Svc: svc}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/entries", eh.List)
		r.Post("/entries", eh.Create)
		r.Patch("/entries/{pageId}", eh.Update)
		r.Delete("/entries/{pageId}", eh.Delete)
		r.Post("/databases/search", eh.SearchStores)
		r.Post("/schema/ensure", sh.Ensure)
	})
	return r, token
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRequiredBeforeAnything(t *testing.T) {
	called := false
	store := &stubStore{queryFn: func(notion.QueryRequest) (*notion.QueryResponse, error) {
		called = true
		return &notion.QueryResponse{}, nil
	}}
	h, _ := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodGet, "/api/entries", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/entries", "bogus-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.False(t, called, "no upstream call may happen before auth passes")
}

func TestCreateReturnsCreatedEntry(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{})

	w := doJSON(t, h, http.MethodPost, "/api/entries", token,
		`{"title":"T","type":"Diary","content":"hi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "T", data["title"])
	assert.Equal(t, "Diary", data["category"])
	_, hasWarning := body["warning"]
	assert.False(t, hasWarning)
}

func TestCreateFallbackCarriesWarning(t *testing.T) {
	shapeErr := &notion.APIError{Status: http.StatusBadRequest, Code: "validation_error", Message: "nope"}
	store := &stubStore{createFn: func(req notion.CreatePageRequest) (*notion.Page, error) {
		if _, ok := req.Properties["이름"]; ok {
			return &notion.Page{ID: "p1", Properties: req.Properties}, nil
		}
		return nil, shapeErr
	}}
	h, token := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodPost, "/api/entries", token, `{"title":"T","type":"Diary"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Contains(t, body["warning"], "이름")
}

func TestMissingConfigIs404(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{err: profile.ErrNotFound})

	w := doJSON(t, h, http.MethodGet, "/api/entries", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, decode(t, w)["error"])
}

func TestIncompleteConfigIs400(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{err: profile.ErrIncompleteConfig})

	w := doJSON(t, h, http.MethodPost, "/api/entries", token, `{"title":"T"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateWithNoFieldsIs400(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{})

	w := doJSON(t, h, http.MethodPatch, "/api/entries/p1", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateWithEmptyDateIs400(t *testing.T) {
	updated := false
	store := &stubStore{updateFn: func(pageID string, req notion.UpdatePageRequest) (*notion.Page, error) {
		updated = true
		return &notion.Page{ID: pageID, Properties: req.Properties}, nil
	}}
	h, token := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodPatch, "/api/entries/p1", token, `{"date":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, updated, "a date cannot be cleared, only replaced")
}

func TestDeleteArchives(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{})

	w := doJSON(t, h, http.MethodDelete, "/api/entries/p1", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["archived"])
}

func TestListEnvelope(t *testing.T) {
	cursor := "cur-2"
	store := &stubStore{queryFn: func(q notion.QueryRequest) (*notion.QueryResponse, error) {
		return &notion.QueryResponse{
			Results: []notion.Page{{ID: "p1", Properties: map[string]any{
				"Name": notion.TitleProp("hello"),
			}}},
			HasMore:    true,
			NextCursor: &cursor,
		}, nil
	}}
	h, token := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodGet, "/api/entries?category=Diary", token, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["hasMore"])
	assert.Equal(t, "cur-2", body["nextCursor"])
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].(map[string]any)["title"])
}

func TestUpstreamErrorCarriesDetails(t *testing.T) {
	upstream := &notion.APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: "notion is down",
		Body:    json.RawMessage(`{"code":"service_unavailable","message":"notion is down"}`),
	}
	store := &stubStore{queryFn: func(notion.QueryRequest) (*notion.QueryResponse, error) {
		return nil, upstream
	}}
	h, token := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodGet, "/api/entries", token, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Contains(t, body["error"], "notion is down")
	details := body["details"].(map[string]any)
	assert.Equal(t, "service_unavailable", details["code"])
}

func TestCreateExhaustedFallbacksSurfacesBothErrors(t *testing.T) {
	first := &notion.APIError{Status: http.StatusBadRequest, Code: "validation_error", Message: "no such property"}
	final := &notion.APIError{
		Status:  http.StatusBadRequest,
		Code:    "validation_error",
		Message: "minimal shape rejected too",
		Body:    json.RawMessage(`{"code":"validation_error","message":"minimal shape rejected too"}`),
	}
	var calls int
	store := &stubStore{createFn: func(notion.CreatePageRequest) (*notion.Page, error) {
		calls++
		if calls == 1 {
			return nil, first
		}
		return nil, final
	}}
	h, token := newTestRouter(store, &stubResolver{})

	w := doJSON(t, h, http.MethodPost, "/api/entries", token, `{"title":"T"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// Both ends of the ladder are reported: the first rejection in the
	// message, the final attempt's raw diagnostic in the details.
	body := decode(t, w)
	assert.Contains(t, body["error"], "no such property")
	assert.Contains(t, body["error"], "minimal shape rejected too")
	details := body["details"].(map[string]any)
	assert.Equal(t, "validation_error", details["code"])
}

func TestSearchStoresRequiresKey(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{})

	w := doJSON(t, h, http.MethodPost, "/api/databases/search", token, `{"apiKey":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchemaEnsureValidation(t *testing.T) {
	h, token := newTestRouter(&stubStore{}, &stubResolver{})

	w := doJSON(t, h, http.MethodPost, "/api/schema/ensure", token, `{"apiKey":"k"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/schema/ensure", token, `{"apiKey":"k","databaseId":"db"}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, data["created"], "empty database gets all fields created")
}

func TestErrorsNeverLeakCredentials(t *testing.T) {
	h, token := newTestRouter(&stubStore{queryFn: func(notion.QueryRequest) (*notion.QueryResponse, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}, &stubResolver{})

	w := doJSON(t, h, http.MethodGet, "/api/entries", token, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused", "raw internal errors are not forwarded")
	assert.Equal(t, "server error", decode(t, w)["error"])
}
