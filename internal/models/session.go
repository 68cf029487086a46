package models

import "time"

// Session status values. Sessions enter Active only through admission and
// leave it exactly once, via completion or cancellation.
const (
	SessionStatusActive    = "Active"
	SessionStatusCompleted = "Completed"
	SessionStatusCancelled = "Cancelled"
)

// ChargingSession represents one charging visit. Sessions reference stations
// by name; station names are unique.
type ChargingSession struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	StationName     string     `db:"station_name" json:"station_name"`
	Units           float64    `db:"units" json:"units"`
	Amount          float64    `db:"amount" json:"amount"`
	TxRef           string     `db:"tx_ref" json:"tx_ref"`
	Status          string     `db:"status" json:"status"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
}

// Terminal reports whether the session has left the Active state.
func (s *ChargingSession) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}
