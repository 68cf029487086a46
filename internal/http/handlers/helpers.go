package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chargehub/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrStationNotFound),
		errors.Is(err, models.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrUserBlacklisted):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrNotInQueue),
		errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrPaymentFailed):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
