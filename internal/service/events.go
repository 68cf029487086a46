package service

// Queue event types published to live subscribers.
const (
	EventAdmitted = "admitted"
	EventQueued   = "queued"
	EventPromoted = "promoted"
)

// QueueEvent describes a change at a station's queue or slots.
type QueueEvent struct {
	Station   string `json:"station"`
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	Position  int    `json:"position,omitempty"`
	SessionID int64  `json:"session_id,omitempty"`
}

// EventSink receives queue events. Publishing is best effort and must not
// block the caller.
type EventSink interface {
	Publish(event QueueEvent)
}
