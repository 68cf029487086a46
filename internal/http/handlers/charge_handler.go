package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chargehub/internal/http/middleware"
	"chargehub/internal/service"
)

type chargeRequest struct {
	Units float64 `json:"units"`
	Price float64 `json:"price"`
}

// NewChargeHandler returns POST /api/stations/{name}/charge handler. The
// response is either an admitted session (201) or a queue position (200).
func NewChargeHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		var req chargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		stationName := chi.URLParam(r, "name")
		outcome, err := svc.RequestCharge(r.Context(), identity, stationName, req.Units, req.Price)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusOK
		if outcome.Admitted {
			status = http.StatusCreated
		}
		writeJSON(w, status, outcome)
	}
}

// NewQueueStatusHandler returns GET /api/stations/{name}/queue-status handler.
func NewQueueStatusHandler(svc *service.CoordinatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		status, err := svc.GetQueueStatus(r.Context(), identity, chi.URLParam(r, "name"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
