package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// SessionRepository handles persistence of charging sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, station_name, units, amount, tx_ref, status, started_at, completed_at, duration_minutes`

// Create inserts a new session in Active state.
func (r *SessionRepository) Create(ctx context.Context, session *models.ChargingSession) error {
	const query = `
		INSERT INTO charging_sessions (user_id, station_name, units, amount, tx_ref, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		session.UserID,
		session.StationName,
		session.Units,
		session.Amount,
		session.TxRef,
		session.Status,
		session.StartedAt,
	).Scan(&session.ID)
}

// Get returns a session by id.
func (r *SessionRepository) Get(ctx context.Context, id int64) (models.ChargingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE id = $1
	`
	var s models.ChargingSession
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.StationName,
		&s.Units,
		&s.Amount,
		&s.TxRef,
		&s.Status,
		&s.StartedAt,
		&s.CompletedAt,
		&s.DurationMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChargingSession{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.ChargingSession{}, err
	}
	return s, nil
}

// Finish moves a session into a terminal state and records timing and amount.
// The update is a compare-and-swap on the status the caller observed: zero
// rows affected means a concurrent transition won and the caller must not
// treat the session as finished by this call.
func (r *SessionRepository) Finish(ctx context.Context, id int64, fromStatus, toStatus string, completedAt time.Time, durationMinutes int, amount float64) error {
	const query = `
		UPDATE charging_sessions
		SET status = $3,
		    completed_at = $4,
		    duration_minutes = $5,
		    amount = $6
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, fromStatus, toStatus, completedAt, durationMinutes, amount)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// CountActive returns the number of Active sessions at a station.
func (r *SessionRepository) CountActive(ctx context.Context, stationName string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM charging_sessions
		WHERE station_name = $1 AND status = $2
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, stationName, models.SessionStatusActive).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListByUser returns a user's session history, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

// ListActiveByOwner returns active sessions at all stations owned by ownerID,
// newest first.
func (r *SessionRepository) ListActiveByOwner(ctx context.Context, ownerID int64) ([]models.ChargingSession, error) {
	const query = `
		SELECT cs.id, cs.user_id, cs.station_name, cs.units, cs.amount, cs.tx_ref, cs.status, cs.started_at, cs.completed_at, cs.duration_minutes
		FROM charging_sessions cs
		JOIN stations s ON cs.station_name = s.name
		WHERE s.owner_id = $1 AND cs.status = $2
		ORDER BY cs.started_at DESC
	`
	return r.list(ctx, query, ownerID, models.SessionStatusActive)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.ChargingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChargingSession
	for rows.Next() {
		var s models.ChargingSession
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.StationName,
			&s.Units,
			&s.Amount,
			&s.TxRef,
			&s.Status,
			&s.StartedAt,
			&s.CompletedAt,
			&s.DurationMinutes,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
