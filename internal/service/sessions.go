package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// SessionsService owns the charging session lifecycle: Active is entered only
// through admission, and leaves exactly once into Completed or Cancelled.
type SessionsService struct {
	repo     SessionStore
	stations StationStore
	promoter QueuePromoter
	cache    ActiveCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionsService builds service. cache may be nil.
func NewSessionsService(repo SessionStore, stations StationStore, promoter QueuePromoter, cache ActiveCache, logger *zap.Logger) *SessionsService {
	return &SessionsService{
		repo:     repo,
		stations: stations,
		promoter: promoter,
		cache:    cache,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stop completes the caller's own active session. Duration is whole elapsed
// minutes; a zero amount is recomputed from the station price at completion
// time, falling back to zero when the station is gone.
func (s *SessionsService) Stop(ctx context.Context, identity models.Identity, sessionID int64) (models.ChargingSession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.ChargingSession{}, err
	}
	if session.UserID != identity.UserID {
		return models.ChargingSession{}, models.ErrUnauthorized
	}
	if session.Status != models.SessionStatusActive {
		return models.ChargingSession{}, models.ErrInvalidState
	}
	return s.finish(ctx, session, models.SessionStatusCompleted, true)
}

// OwnerComplete completes an active session at a station the caller owns.
func (s *SessionsService) OwnerComplete(ctx context.Context, identity models.Identity, sessionID int64) (models.ChargingSession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.ChargingSession{}, err
	}
	if err := s.checkStationOwner(ctx, identity, session.StationName); err != nil {
		return models.ChargingSession{}, err
	}
	if session.Status != models.SessionStatusActive {
		return models.ChargingSession{}, models.ErrInvalidState
	}
	return s.finish(ctx, session, models.SessionStatusCompleted, true)
}

// Cancel moves a session to Cancelled. Only the station owner may cancel.
// Re-cancelling a Cancelled session is a no-op success; any other status is
// cancellable.
func (s *SessionsService) Cancel(ctx context.Context, identity models.Identity, sessionID int64) (models.ChargingSession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return models.ChargingSession{}, err
	}
	if err := s.checkStationOwner(ctx, identity, session.StationName); err != nil {
		return models.ChargingSession{}, err
	}
	if session.Status == models.SessionStatusCancelled {
		return session, nil
	}
	cancelled, err := s.finish(ctx, session, models.SessionStatusCancelled, false)
	if errors.Is(err, models.ErrInvalidState) {
		// Lost a race with another transition. Re-cancel stays a no-op;
		// anything else the caller may retry against the new status.
		current, getErr := s.repo.Get(ctx, sessionID)
		if getErr == nil && current.Status == models.SessionStatusCancelled {
			return current, nil
		}
	}
	return cancelled, err
}

// finish performs the terminal transition and triggers queue promotion at the
// session's station. The persisted update swaps on the status read above, so
// when two transitions race only one finishes and promotes; the loser gets
// ErrInvalidState.
func (s *SessionsService) finish(ctx context.Context, session models.ChargingSession, status string, recomputeAmount bool) (models.ChargingSession, error) {
	completedAt := s.now()
	duration := int(completedAt.Sub(session.StartedAt) / time.Minute)
	if duration < 0 {
		duration = 0
	}

	amount := session.Amount
	if recomputeAmount && amount == 0 {
		price := 0.0
		station, err := s.stations.GetByName(ctx, session.StationName)
		switch {
		case err == nil:
			price = station.PricePerUnit
		case errors.Is(err, models.ErrStationNotFound):
			// Orphaned session; bill nothing rather than fail the stop.
		default:
			return models.ChargingSession{}, err
		}
		amount = session.Units * price
	}

	if err := s.repo.Finish(ctx, session.ID, session.Status, status, completedAt, duration, amount); err != nil {
		return models.ChargingSession{}, err
	}

	session.Status = status
	session.CompletedAt = &completedAt
	session.DurationMinutes = &duration
	session.Amount = amount

	if s.cache != nil {
		if err := s.cache.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("failed to drop active session cache", zap.Error(err))
		}
	}

	// The transition is durable at this point; a promotion failure leaves the
	// queue intact for the next completion to drain.
	if _, err := s.promoter.PromoteNext(ctx, session.StationName); err != nil {
		s.logger.Warn("queue promotion failed",
			zap.String("station", session.StationName),
			zap.Error(err),
		)
	}

	s.logger.Info("session finished",
		zap.Int64("session_id", session.ID),
		zap.String("station", session.StationName),
		zap.String("status", status),
		zap.Int("duration_minutes", duration),
	)
	return session, nil
}

func (s *SessionsService) checkStationOwner(ctx context.Context, identity models.Identity, stationName string) error {
	if identity.Role != models.RoleOwner {
		return models.ErrUnauthorized
	}
	station, err := s.stations.GetByName(ctx, stationName)
	if err != nil {
		return err
	}
	if station.OwnerID != identity.UserID {
		return models.ErrUnauthorized
	}
	return nil
}

// HistoryForUser returns the caller's sessions, newest first.
func (s *SessionsService) HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// ActiveForOwner returns running sessions across the owner's stations.
func (s *SessionsService) ActiveForOwner(ctx context.Context, ownerID int64) ([]models.ChargingSession, error) {
	return s.repo.ListActiveByOwner(ctx, ownerID)
}
