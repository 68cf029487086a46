package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chargehub/internal/http/middleware"
	"chargehub/internal/models"
	"chargehub/internal/service"
)

type transition func(ctx context.Context, identity models.Identity, sessionID int64) (models.ChargingSession, error)

func newTransitionHandler(apply transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}

		session, err := apply(r.Context(), identity, sessionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
	}
}

// NewSessionStopHandler returns POST /api/sessions/{id}/stop handler.
func NewSessionStopHandler(svc *service.SessionsService) http.HandlerFunc {
	return newTransitionHandler(svc.Stop)
}

// NewSessionCompleteHandler returns POST /api/sessions/{id}/complete handler
// (station owner).
func NewSessionCompleteHandler(svc *service.SessionsService) http.HandlerFunc {
	return newTransitionHandler(svc.OwnerComplete)
}

// NewSessionCancelHandler returns POST /api/sessions/{id}/cancel handler
// (station owner).
func NewSessionCancelHandler(svc *service.SessionsService) http.HandlerFunc {
	return newTransitionHandler(svc.Cancel)
}

// NewSessionsMeHandler returns GET /api/sessions/me handler.
func NewSessionsMeHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		sessions, err := svc.HistoryForUser(r.Context(), identity.UserID, 50)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
	}
}

// NewActiveSessionsHandler returns GET /api/sessions/active handler showing
// running sessions at the owner's stations.
func NewActiveSessionsHandler(svc *service.SessionsService) http.HandlerFunc {
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

		sessions, err := svc.ActiveForOwner(r.Context(), identity.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
	}
}
