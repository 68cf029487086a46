package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chargehub/internal/http/middleware"
	"chargehub/internal/models"
	"chargehub/internal/service"
)

// NewStationsListHandler returns GET /api/stations handler.
func NewStationsListHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := svc.ListApproved(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
	}
}

// NewStationCreateHandler returns POST /api/stations handler (owner only).
func NewStationCreateHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		var input service.CreateStationInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		station, err := svc.Create(r.Context(), identity, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"station": station})
	}
}

// NewOwnerStationsHandler returns GET /api/stations/mine handler.
func NewOwnerStationsHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}
		if identity.Role != models.RoleOwner {
			writeError(w, http.StatusForbidden, "owner role required")
			return
		}

		stations, err := svc.ListByOwner(r.Context(), identity.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
	}
}

// NewStationApproveHandler returns POST /api/stations/{id}/approve handler
// (admin only).
func NewStationApproveHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		stationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid station id")
			return
		}

		if err := svc.Approve(r.Context(), identity, stationID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
	}
}
