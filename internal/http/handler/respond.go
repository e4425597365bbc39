package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pairdiary/internal/entry"
	"pairdiary/internal/notion"
	"pairdiary/internal/profile"
)

// Every response uses one envelope: success bodies carry "data" (plus
// "warning" when a create needed a fallback), failures carry "error" and,
// when the upstream store supplied one, its raw diagnostic under "details".

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeErr(w http.ResponseWriter, status int, msg string, details any) {
	body := map[string]any{"error": msg}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// writeServiceErr maps the error taxonomy onto status codes. Upstream
// diagnostics are forwarded verbatim; credentials never appear in them.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, profile.ErrIncompleteConfig):
		writeErr(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, entry.ErrMissingPageID), errors.Is(err, entry.ErrEmptyPatch), errors.Is(err, entry.ErrEmptyDate):
		writeErr(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, entry.ErrForbidden):
		writeErr(w, http.StatusForbidden, err.Error(), nil)
	default:
		if apiErr, ok := notion.AsAPIError(err); ok {
			// The full chain matters here: an exhausted fallback ladder
			// wraps the final attempt's APIError and names the first
			// failure in its message.
			writeErr(w, http.StatusInternalServerError, err.Error(), json.RawMessage(apiErr.Body))
			return
		}
		writeErr(w, http.StatusInternalServerError, "server error", nil)
	}
}
