package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the cached view of a running charging session, used by
// dashboards for quick lookups. The database stays authoritative; admission
// decisions never read this cache.
type ActiveSession struct {
	SessionID   int64   `json:"session_id"`
	StationName string  `json:"station_name"`
	UserID      int64   `json:"user_id"`
	Units       float64 `json:"units"`
	TxRef       string  `json:"tx_ref"`
}

// Store manages the active session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(sessionID int64) string {
	return fmt.Sprintf("chargehub:active:%d", sessionID)
}

// Save caches an active session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.SessionID), data, s.ttl).Err()
}

// Delete removes a cached session once it leaves the Active state.
func (s *Store) Delete(ctx context.Context, sessionID int64) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
