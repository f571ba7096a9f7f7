// Package handlers implements the REST request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "archgraph-backend/pkg/errors"
)

// errorResponse is the JSON error envelope
type errorResponse struct {
	Error   string                 `json:"error"`
	Type    string                 `json:"type,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps an application error onto its HTTP status and envelope.
// Unknown errors become opaque 500s so internals never leak to clients.
func respondError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, errorResponse{
			Error:   appErr.Message,
			Type:    string(appErr.Type),
			Details: appErr.Details,
		})
		return
	}
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal error",
	})
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error: message,
		Type:  string(apperrors.ErrorTypeValidation),
	})
}
