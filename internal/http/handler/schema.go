package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"pairdiary/internal/entry"
)

type SchemaHandler struct {
	Svc *entry.Service
}

type ensureSchemaReq struct {
	APIKey     string `json:"apiKey"`
	DatabaseID string `json:"databaseId"`
}

func (h *SchemaHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	var req ensureSchemaReq
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

	created, err := h.Svc.EnsureSchema(r.Context(), req.APIKey, req.DatabaseID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"created": created,
	})
}
