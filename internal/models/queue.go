package models

import "time"

// QueueEntry is one user waiting for a slot at a saturated station.
// At most one entry exists per (station, user) pair; ordering is by JoinedAt
// with insertion id as tie breaker.
type QueueEntry struct {
	ID          int64     `db:"id" json:"id"`
	StationName string    `db:"station_name" json:"station_name"`
	UserID      int64     `db:"user_id" json:"user_id"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
