package service

import (
	"context"
	"time"

	"chargehub/internal/models"
	"chargehub/internal/redisstore"
)

// StationStore is the station registry persistence consumed by services.
type StationStore interface {
	Create(ctx context.Context, station *models.Station) error
	GetByName(ctx context.Context, name string) (models.Station, error)
	ListApproved(ctx context.Context) ([]models.Station, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error)
	Approve(ctx context.Context, stationID int64) error
}

// SessionStore persists charging sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.ChargingSession) error
	Get(ctx context.Context, id int64) (models.ChargingSession, error)
	Finish(ctx context.Context, id int64, fromStatus, toStatus string, completedAt time.Time, durationMinutes int, amount float64) error
	CountActive(ctx context.Context, stationName string) (int, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]models.ChargingSession, error)
}

// QueueStore persists per-station waiting queues.
type QueueStore interface {
	InsertIfAbsent(ctx context.Context, stationName string, userID int64, joinedAt time.Time) (bool, error)
	PositionOf(ctx context.Context, stationName string, userID int64) (int, error)
	PopOldest(ctx context.Context, stationName string) (*models.QueueEntry, error)
}

// UserStore reads account flags.
type UserStore interface {
	IsBlacklisted(ctx context.Context, userID int64) (bool, error)
}

// ActiveCache is the optional non-authoritative cache of running sessions.
type ActiveCache interface {
	Save(ctx context.Context, session redisstore.ActiveSession) error
	Delete(ctx context.Context, sessionID int64) error
}

// QueuePromoter dequeues the oldest waiting user after a session ends.
type QueuePromoter interface {
	PromoteNext(ctx context.Context, stationName string) (*models.QueueEntry, error)
}
