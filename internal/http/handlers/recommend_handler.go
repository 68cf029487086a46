package handlers

import (
	"encoding/json"
	"net/http"

	"chargehub/internal/recommend"
	"chargehub/internal/service"
)

type recommendRequest struct {
	BatteryPercent int     `json:"battery"`
	DistanceKm     float64 `json:"distance"`
}

// NewRecommendHandler returns POST /api/recommend handler. Candidates are the
// approved stations; the scorer itself is pure.
func NewRecommendHandler(svc *service.StationsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.BatteryPercent < 0 || req.BatteryPercent > 100 {
			writeError(w, http.StatusBadRequest, "battery must be between 0 and 100")
			return
		}
		if req.DistanceKm < 0 {
			writeError(w, http.StatusBadRequest, "distance must be non-negative")
			return
		}

		stations, err := svc.ListApproved(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		best := recommend.Recommend(req.BatteryPercent, req.DistanceKm, stations)
		writeJSON(w, http.StatusOK, map[string]interface{}{"station": best})
	}
}
