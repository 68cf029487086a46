package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/metrics"
	"chargehub/internal/models"
	"chargehub/internal/payment"
	"chargehub/internal/redisstore"
)

// CoordinatorService is the admission-control engine. It decides whether a
// charge request gets a slot or a queue position, and promotes waiting users
// as slots free up.
//
// Everything touching a single station's capacity or queue runs under that
// station's exclusive lock: count-actives, admit-or-enqueue, and promotion.
// Requests against different stations never block each other.
type CoordinatorService struct {
	stations StationStore
	sessions SessionStore
	queue    QueueStore
	users    UserStore
	gateway  payment.Gateway
	cache    ActiveCache
	events   EventSink
	metrics  *metrics.Metrics
	logger   *zap.Logger

	payTimeout time.Duration
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// CoordinatorConfig carries optional collaborators.
type CoordinatorConfig struct {
	Cache          ActiveCache
	Events         EventSink
	Metrics        *metrics.Metrics
	PaymentTimeout time.Duration
}

// NewCoordinatorService builds the engine.
func NewCoordinatorService(
	stations StationStore,
	sessions SessionStore,
	queue QueueStore,
	users UserStore,
	gateway payment.Gateway,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *CoordinatorService {
	timeout := cfg.PaymentTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CoordinatorService{
		stations:   stations,
		sessions:   sessions,
		queue:      queue,
		users:      users,
		gateway:    gateway,
		cache:      cfg.Cache,
		events:     cfg.Events,
		metrics:    cfg.Metrics,
		logger:     logger,
		payTimeout: timeout,
		now:        func() time.Time { return time.Now().UTC() },
		locks:      make(map[string]*sync.Mutex),
	}
}

// ChargeOutcome is the result of a charge request: either an admitted session
// or a queue position.
type ChargeOutcome struct {
	Admitted bool                    `json:"admitted"`
	Session  *models.ChargingSession `json:"session,omitempty"`
	Position int                     `json:"position,omitempty"`
}

// QueueStatus reports a waiting user's standing at a station.
type QueueStatus struct {
	Position      int  `json:"position"`
	ActiveCount   int  `json:"active_sessions"`
	TotalChargers int  `json:"total_chargers"`
	CanCharge     bool `json:"can_charge"`
}

// stationLock returns the exclusive lock for a station, creating it lazily.
func (s *CoordinatorService) stationLock(stationName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[stationName]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[stationName] = lock
	}
	return lock
}

// RequestCharge admits the user into a session when the station has a free
// slot, or places them in the FIFO waiting queue otherwise.
//
// Payment runs inside the admission decision: a second request cannot take
// the slot between payment success and session creation. On payment failure
// nothing is persisted, so the caller may retry the whole call.
func (s *CoordinatorService) RequestCharge(ctx context.Context, identity models.Identity, stationName string, units, priceOverride float64) (ChargeOutcome, error) {
	if identity.Role != models.RoleUser {
		return ChargeOutcome{}, models.ErrUnauthorized
	}
	if units < 0 {
		return ChargeOutcome{}, fmt.Errorf("%w: units must be non-negative", models.ErrInvalidInput)
	}

	blacklisted, err := s.users.IsBlacklisted(ctx, identity.UserID)
	if err != nil {
		return ChargeOutcome{}, err
	}
	if blacklisted {
		return ChargeOutcome{}, models.ErrUserBlacklisted
	}

	station, err := s.stations.GetByName(ctx, stationName)
	if err != nil {
		return ChargeOutcome{}, err
	}

	lock := s.stationLock(station.Name)
	lock.Lock()
	defer lock.Unlock()

	activeCount, err := s.sessions.CountActive(ctx, station.Name)
	if err != nil {
		return ChargeOutcome{}, err
	}

	if activeCount < station.Chargers {
		return s.admit(ctx, identity, station, units, priceOverride)
	}
	return s.enqueue(ctx, identity, station)
}

// admit runs under the station lock.
func (s *CoordinatorService) admit(ctx context.Context, identity models.Identity, station models.Station, units, priceOverride float64) (ChargeOutcome, error) {
	price := priceOverride
	if price <= 0 {
		price = station.PricePerUnit
	}
	amount := units * price

	payCtx, cancel := context.WithTimeout(ctx, s.payTimeout)
	defer cancel()

	txRef, err := s.gateway.Charge(payCtx, amount)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PaymentFailures.WithLabelValues(station.Name).Inc()
		}
		s.logger.Warn("payment rejected",
			zap.String("station", station.Name),
			zap.Int64("user_id", identity.UserID),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		return ChargeOutcome{}, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err)
	}

	session := &models.ChargingSession{
		UserID:      identity.UserID,
		StationName: station.Name,
		Units:       units,
		Amount:      amount,
		TxRef:       txRef,
		Status:      models.SessionStatusActive,
		StartedAt:   s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return ChargeOutcome{}, err
	}

	if s.metrics != nil {
		s.metrics.Admissions.WithLabelValues(station.Name).Inc()
	}
	if s.cache != nil {
		cacheErr := s.cache.Save(ctx, redisstore.ActiveSession{
			SessionID:   session.ID,
			StationName: station.Name,
			UserID:      identity.UserID,
			Units:       units,
			TxRef:       txRef,
		})
		if cacheErr != nil {
			s.logger.Warn("failed to cache active session", zap.Error(cacheErr))
		}
	}
	s.publish(QueueEvent{
		Station:   station.Name,
		Type:      EventAdmitted,
		UserID:    identity.UserID,
		SessionID: session.ID,
	})

	s.logger.Info("session admitted",
		zap.Int64("session_id", session.ID),
		zap.String("station", station.Name),
		zap.Int64("user_id", identity.UserID),
	)
	return ChargeOutcome{Admitted: true, Session: session}, nil
}

// enqueue runs under the station lock. Joining twice is a no-op that reports
// the current position.
func (s *CoordinatorService) enqueue(ctx context.Context, identity models.Identity, station models.Station) (ChargeOutcome, error) {
	inserted, err := s.queue.InsertIfAbsent(ctx, station.Name, identity.UserID, s.now())
	if err != nil {
		return ChargeOutcome{}, err
	}

	position, err := s.queue.PositionOf(ctx, station.Name, identity.UserID)
	if err != nil {
		return ChargeOutcome{}, err
	}

	if inserted {
		if s.metrics != nil {
			s.metrics.QueueJoins.WithLabelValues(station.Name).Inc()
		}
		s.publish(QueueEvent{
			Station:  station.Name,
			Type:     EventQueued,
			UserID:   identity.UserID,
			Position: position,
		})
		s.logger.Info("user queued",
			zap.String("station", station.Name),
			zap.Int64("user_id", identity.UserID),
			zap.Int("position", position),
		)
	}
	return ChargeOutcome{Admitted: false, Position: position}, nil
}

// GetQueueStatus reports position and slot availability for a waiting user.
func (s *CoordinatorService) GetQueueStatus(ctx context.Context, identity models.Identity, stationName string) (QueueStatus, error) {
	station, err := s.stations.GetByName(ctx, stationName)
	if err != nil {
		return QueueStatus{}, err
	}

	lock := s.stationLock(station.Name)
	lock.Lock()
	defer lock.Unlock()

	position, err := s.queue.PositionOf(ctx, station.Name, identity.UserID)
	if err != nil {
		return QueueStatus{}, err
	}
	activeCount, err := s.sessions.CountActive(ctx, station.Name)
	if err != nil {
		return QueueStatus{}, err
	}

	return QueueStatus{
		Position:      position,
		ActiveCount:   activeCount,
		TotalChargers: station.Chargers,
		CanCharge:     position <= 1 && activeCount < station.Chargers,
	}, nil
}

// PromoteNext removes exactly the oldest queue entry at the station. The
// promoted user must call RequestCharge again to take the freed slot; no
// session is auto-started.
func (s *CoordinatorService) PromoteNext(ctx context.Context, stationName string) (*models.QueueEntry, error) {
	lock := s.stationLock(stationName)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.queue.PopOldest(ctx, stationName)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	if s.metrics != nil {
		s.metrics.Promotions.WithLabelValues(stationName).Inc()
	}
	s.publish(QueueEvent{
		Station: stationName,
		Type:    EventPromoted,
		UserID:  entry.UserID,
	})
	s.logger.Info("queue entry promoted",
		zap.String("station", stationName),
		zap.Int64("user_id", entry.UserID),
	)
	return entry, nil
}

func (s *CoordinatorService) publish(event QueueEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
