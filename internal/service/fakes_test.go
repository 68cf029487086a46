package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"chargehub/internal/models"
	"chargehub/internal/redisstore"
)

// memStore is an in-memory implementation of the persistence interfaces used
// by the coordinator and session services.
type memStore struct {
	mu sync.Mutex

	stations map[string]models.Station

	sessions    map[int64]*models.ChargingSession
	nextSession int64

	queue     []models.QueueEntry
	nextEntry int64

	blacklisted map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		stations:    make(map[string]models.Station),
		sessions:    make(map[int64]*models.ChargingSession),
		blacklisted: make(map[int64]bool),
	}
}

func (m *memStore) addStation(s models.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = int64(len(m.stations) + 1)
	}
	m.stations[s.Name] = s
}

// StationStore

func (m *memStore) Create(ctx context.Context, station *models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	station.ID = int64(len(m.stations) + 1)
	m.stations[station.Name] = *station
	return nil
}

func (m *memStore) GetByName(ctx context.Context, name string) (models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	station, ok := m.stations[name]
	if !ok {
		return models.Station{}, models.ErrStationNotFound
	}
	return station, nil
}

func (m *memStore) ListApproved(ctx context.Context) ([]models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Station
	for _, s := range m.stations {
		if s.Approved {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Station
	for _, s := range m.stations {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Approve(ctx context.Context, stationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, s := range m.stations {
		if s.ID == stationID {
			s.Approved = true
			m.stations[name] = s
			return nil
		}
	}
	return models.ErrStationNotFound
}

// SessionStore

func (m *memStore) CreateSession(ctx context.Context, session *models.ChargingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSession++
	session.ID = m.nextSession
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memStore) Get(ctx context.Context, id int64) (models.ChargingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.ChargingSession{}, models.ErrSessionNotFound
	}
	return *session, nil
}

func (m *memStore) Finish(ctx context.Context, id int64, fromStatus, toStatus string, completedAt time.Time, durationMinutes int, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	if session.Status != fromStatus {
		return models.ErrInvalidState
	}
	session.Status = toStatus
	session.CompletedAt = &completedAt
	session.DurationMinutes = &durationMinutes
	session.Amount = amount
	return nil
}

func (m *memStore) CountActive(ctx context.Context, stationName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sessions {
		if s.StationName == stationName && s.Status == models.SessionStatusActive {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int64, limit int) ([]models.ChargingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChargingSession
	for id := m.nextSession; id >= 1; id-- {
		if s, ok := m.sessions[id]; ok && s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveByOwner(ctx context.Context, ownerID int64) ([]models.ChargingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChargingSession
	for _, s := range m.sessions {
		station, ok := m.stations[s.StationName]
		if ok && station.OwnerID == ownerID && s.Status == models.SessionStatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

// QueueStore

func (m *memStore) InsertIfAbsent(ctx context.Context, stationName string, userID int64, joinedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.queue {
		if e.StationName == stationName && e.UserID == userID {
			return false, nil
		}
	}
	m.nextEntry++
	m.queue = append(m.queue, models.QueueEntry{
		ID:          m.nextEntry,
		StationName: stationName,
		UserID:      userID,
		JoinedAt:    joinedAt,
	})
	return true, nil
}

func (m *memStore) PositionOf(ctx context.Context, stationName string, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	position := 0
	for _, e := range m.queue {
		if e.StationName != stationName {
			continue
		}
		position++
		if e.UserID == userID {
			return position, nil
		}
	}
	return 0, models.ErrNotInQueue
}

func (m *memStore) PopOldest(ctx context.Context, stationName string) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.queue {
		if e.StationName == stationName {
			entry := e
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return &entry, nil
		}
	}
	return nil, nil
}

func (m *memStore) queueLen(stationName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.queue {
		if e.StationName == stationName {
			count++
		}
	}
	return count
}

// UserStore

func (m *memStore) IsBlacklisted(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blacklisted[userID], nil
}

// sessionStoreAdapter renames CreateSession to Create so memStore can satisfy
// both StationStore and SessionStore despite the clashing method names.
type sessionStoreAdapter struct{ *memStore }

func (a sessionStoreAdapter) Create(ctx context.Context, session *models.ChargingSession) error {
	return a.memStore.CreateSession(ctx, session)
}

// fakeGateway counts charges and can be told to fail.
type fakeGateway struct {
	mu      sync.Mutex
	charges []float64
	fail    bool
}

func (g *fakeGateway) Charge(ctx context.Context, amount float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", errors.New("gateway down")
	}
	g.charges = append(g.charges, amount)
	return "tx-test", nil
}

// recordingCache tracks cache writes and deletes.
type recordingCache struct {
	mu      sync.Mutex
	saved   []int64
	deleted []int64
}

func (c *recordingCache) Save(ctx context.Context, session redisstore.ActiveSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, session.SessionID)
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, sessionID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, sessionID)
	return nil
}

// recordingSink collects published queue events.
type recordingSink struct {
	mu     sync.Mutex
	events []QueueEvent
}

func (s *recordingSink) Publish(event QueueEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) byType(eventType string) []QueueEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []QueueEvent
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
