package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"pairdiary/internal/auth"
	"pairdiary/internal/profile"
)

type ProfileHandler struct {
	Resolver *profile.Resolver
}

type profileDTO struct {
	UserID         string   `json:"userId"`
	DisplayName    string   `json:"displayName"`
	Partners       []string `json:"partners"`
	HasIntegration bool     `json:"hasIntegration"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	p, err := h.Resolver.Get(r.Context(), uid)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	writeData(w, http.StatusOK, profileDTO{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		Partners:       []string(p.Partners),
		HasIntegration: p.NotionAPIKey != "" && p.NotionDatabaseID != "",
	})
}

type saveIntegrationReq struct {
	APIKey     string `json:"apiKey"`
	DatabaseID string `json:"databaseId"`
}

func (h *ProfileHandler) SaveIntegration(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req saveIntegrationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json", nil)
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	req.DatabaseID = strings.TrimSpace(req.DatabaseID)
	if req.APIKey == "" || req.DatabaseID == "" {
		writeErr(w, http.StatusBadRequest, "apiKey and databaseId required", nil)
		return
	}

	if err := h.Resolver.SaveIntegration(r.Context(), uid, req.APIKey, req.DatabaseID); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"saved": true})
}
