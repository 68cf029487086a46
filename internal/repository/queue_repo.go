package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// QueueRepository persists the per-station waiting queue. FIFO order is
// joined_at with the row id breaking ties.
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository returns repository.
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// InsertIfAbsent adds a queue entry unless the user already holds one at the
// station. Returns whether a new entry was created.
func (r *QueueRepository) InsertIfAbsent(ctx context.Context, stationName string, userID int64, joinedAt time.Time) (bool, error) {
	const query = `
		INSERT INTO waiting_queue (station_name, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (station_name, user_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, stationName, userID, joinedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PositionOf returns the user's 1-based FIFO position at the station.
func (r *QueueRepository) PositionOf(ctx context.Context, stationName string, userID int64) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM waiting_queue w
		WHERE w.station_name = $1
		  AND (w.joined_at, w.id) <= (
			SELECT joined_at, id FROM waiting_queue
			WHERE station_name = $1 AND user_id = $2
		  )
	`
	var position int
	err := r.db.QueryRowContext(ctx, query, stationName, userID).Scan(&position)
	if err != nil {
		return 0, err
	}
	// The row subquery yields NULL when the user is absent, which makes the
	// comparison filter out every row.
	if position == 0 {
		return 0, models.ErrNotInQueue
	}
	return position, nil
}

// PopOldest removes and returns the single oldest entry at the station, or
// nil when the queue is empty.
func (r *QueueRepository) PopOldest(ctx context.Context, stationName string) (*models.QueueEntry, error) {
	const query = `
		DELETE FROM waiting_queue
		WHERE id = (
			SELECT id FROM waiting_queue
			WHERE station_name = $1
			ORDER BY joined_at ASC, id ASC
			LIMIT 1
		)
		RETURNING id, station_name, user_id, joined_at
	`
	var entry models.QueueEntry
	err := r.db.QueryRowContext(ctx, query, stationName).Scan(
		&entry.ID,
		&entry.StationName,
		&entry.UserID,
		&entry.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// TotalDepth returns the number of waiting users across all stations.
func (r *QueueRepository) TotalDepth(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM waiting_queue`
	var depth int
	if err := r.db.QueryRowContext(ctx, query).Scan(&depth); err != nil {
		return 0, err
	}
	return depth, nil
}
