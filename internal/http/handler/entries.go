package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"pairdiary/internal/auth"
	"pairdiary/internal/entry"

	"github.com/go-chi/chi/v5"
)

type EntryHandler struct {
	Svc *entry.Service
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	pageSize := 0
	if v := strings.TrimSpace(q.Get("pageSize")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			pageSize = n
		}
	}

	res, err := h.Svc.List(r.Context(), uid, entry.ListInput{
		TargetUserID: strings.TrimSpace(q.Get("targetUserId")),
		Category:     strings.TrimSpace(q.Get("category")),
		Cursor:       strings.TrimSpace(q.Get("cursor")),
		PageSize:     pageSize,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       res.Items,
		"hasMore":    res.HasMore,
		"nextCursor": res.NextCursor,
	})
}

type createEntryReq struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Date    string   `json:"date"`
	Mood    string   `json:"mood"`
	Weather string   `json:"weather"`
	Images  []string `json:"images"`
	Sender  string   `json:"sender"`
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json", nil)
		return
	}

	res, err := h.Svc.Create(r.Context(), uid, entry.Draft{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Category: entry.ParseCategory(strings.TrimSpace(req.Type)),
		Date:     strings.TrimSpace(req.Date),
		Mood:     strings.TrimSpace(req.Mood),
		Weather:  strings.TrimSpace(req.Weather),
		Images:   req.Images,
		Author:   strings.TrimSpace(req.Sender),
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	body := map[string]any{"data": res.Entry}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	writeJSON(w, http.StatusCreated, body)
}

type updateEntryReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Mood    *string `json:"mood"`
	Weather *string `json:"weather"`
	Date    *string `json:"date"`
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	pageID := chi.URLParam(r, "pageId")

	var req updateEntryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json", nil)
		return
	}

	e, err := h.Svc.Update(r.Context(), uid, pageID, entry.Patch{
		Title:   req.Title,
		Content: req.Content,
		Mood:    req.Mood,
		Weather: req.Weather,
		Date:    req.Date,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	pageID := chi.URLParam(r, "pageId")

	e, err := h.Svc.Delete(r.Context(), uid, pageID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

type searchStoresReq struct {
	APIKey string `json:"apiKey"`
}

func (h *EntryHandler) SearchStores(w http.ResponseWriter, r *http.Request) {
	var req searchStoresReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json", nil)
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.APIKey == "" {
		writeErr(w, http.StatusBadRequest, "apiKey required", nil)
		return
	}

	stores, err := h.Svc.SearchStores(r.Context(), req.APIKey)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeData(w, http.StatusOK, stores)
}
