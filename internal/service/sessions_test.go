package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// countingPromoter wraps another promoter and records calls.
type countingPromoter struct {
	inner QueuePromoter
	mu    sync.Mutex
	calls int
}

func (p *countingPromoter) PromoteNext(ctx context.Context, stationName string) (*models.QueueEntry, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.inner == nil {
		return nil, nil
	}
	return p.inner.PromoteNext(ctx, stationName)
}

func newTestSessions(store *memStore, promoter QueuePromoter) *SessionsService {
	return NewSessionsService(sessionStoreAdapter{store}, store, promoter, nil, zap.NewNop())
}

func addActiveSession(store *memStore, userID int64, station string, units, amount float64, startedAt time.Time) int64 {
	session := &models.ChargingSession{
		UserID:      userID,
		StationName: station,
		Units:       units,
		Amount:      amount,
		Status:      models.SessionStatusActive,
		StartedAt:   startedAt,
	}
	_ = store.CreateSession(context.Background(), session)
	return session.ID
}

func TestStopComputesDurationAndAmount(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 2.5, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	started := time.Now().UTC().Add(-90*time.Minute - 30*time.Second)
	id := addActiveSession(store, 1, "volt-1", 4, 0, started)

	session, err := svc.Stop(context.Background(), userIdentity(1), id)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", session.Status)
	}
	if session.CompletedAt == nil {
		t.Fatalf("expected completed_at set")
	}
	if session.DurationMinutes == nil || *session.DurationMinutes != 90 {
		t.Fatalf("expected floor duration 90 minutes, got %v", session.DurationMinutes)
	}
	if session.Amount != 10 {
		t.Fatalf("expected amount 10 (4 units * price 2.5), got %v", session.Amount)
	}
}

func TestStopKeepsExistingAmount(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 2.5, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "volt-1", 4, 42, time.Now().UTC())

	session, err := svc.Stop(context.Background(), userIdentity(1), id)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if session.Amount != 42 {
		t.Fatalf("expected amount preserved at 42, got %v", session.Amount)
	}
}

func TestStopMissingStationBillsNothing(t *testing.T) {
	store := newMemStore()
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "gone", 4, 0, time.Now().UTC())

	session, err := svc.Stop(context.Background(), userIdentity(1), id)
	if err != nil {
		t.Fatalf("stop with missing station: %v", err)
	}
	if session.Amount != 0 {
		t.Fatalf("expected zero amount fallback, got %v", session.Amount)
	}
	if session.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", session.Status)
	}
}

func TestStopByOtherUser(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "volt-1", 4, 0, time.Now().UTC())

	if _, err := svc.Stop(context.Background(), userIdentity(2), id); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	session, _ := store.Get(context.Background(), id)
	if session.Status != models.SessionStatusActive {
		t.Fatalf("state mutated by failed stop: %s", session.Status)
	}
}

func TestStopNonActiveSession(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "volt-1", 4, 0, time.Now().UTC())
	if _, err := svc.Stop(context.Background(), userIdentity(1), id); err != nil {
		t.Fatalf("first stop: %v", err)
	}

	if _, err := svc.Stop(context.Background(), userIdentity(1), id); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected invalid state on double stop, got %v", err)
	}
}

func TestStopUnknownSession(t *testing.T) {
	svc := newTestSessions(newMemStore(), &countingPromoter{})

	if _, err := svc.Stop(context.Background(), userIdentity(1), 404); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestOwnerCompleteChecksStationOwnership(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "volt-1", 4, 0, time.Now().UTC())

	foreign := models.Identity{UserID: 99, Role: models.RoleOwner}
	if _, err := svc.OwnerComplete(context.Background(), foreign, id); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign owner, got %v", err)
	}
	session, _ := store.Get(context.Background(), id)
	if session.Status != models.SessionStatusActive {
		t.Fatalf("state mutated by unauthorized complete: %s", session.Status)
	}

	owner := models.Identity{UserID: 10, Role: models.RoleOwner}
	completed, err := svc.OwnerComplete(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("owner complete: %v", err)
	}
	if completed.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
}

func TestCancelIsOwnerOnlyAndIdempotent(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	promoter := &countingPromoter{}
	svc := newTestSessions(store, promoter)

	id := addActiveSession(store, 1, "volt-1", 4, 7, time.Now().UTC())

	foreign := models.Identity{UserID: 99, Role: models.RoleOwner}
	if _, err := svc.Cancel(context.Background(), foreign, id); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign owner, got %v", err)
	}

	owner := models.Identity{UserID: 10, Role: models.RoleOwner}
	session, err := svc.Cancel(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if session.Status != models.SessionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", session.Status)
	}
	if promoter.calls != 1 {
		t.Fatalf("expected one promotion after cancel, got %d", promoter.calls)
	}

	// Re-cancel is a no-op success and triggers no second promotion.
	again, err := svc.Cancel(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("re-cancel: %v", err)
	}
	if again.Status != models.SessionStatusCancelled {
		t.Fatalf("expected cancelled on re-cancel, got %s", again.Status)
	}
	if promoter.calls != 1 {
		t.Fatalf("re-cancel must not promote again, got %d promotions", promoter.calls)
	}
}

func TestCancelCompletedSessionAllowed(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	id := addActiveSession(store, 1, "volt-1", 4, 7, time.Now().UTC())
	if _, err := svc.Stop(context.Background(), userIdentity(1), id); err != nil {
		t.Fatalf("stop: %v", err)
	}

	owner := models.Identity{UserID: 10, Role: models.RoleOwner}
	session, err := svc.Cancel(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("cancel completed session: %v", err)
	}
	if session.Status != models.SessionStatusCancelled {
		t.Fatalf("expected cancelled, got %s", session.Status)
	}
}

// Full handshake: saturated station, queued user is promoted by a stop and
// then admitted by re-requesting.
func TestStopPromotesOldestAndFreesSlot(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 1, OwnerID: 10})
	coordinator := newTestCoordinator(store, &fakeGateway{}, &recordingSink{})
	svc := newTestSessions(store, coordinator)
	ctx := context.Background()

	admitted, err := coordinator.RequestCharge(ctx, userIdentity(1), "volt-1", 5, 0)
	if err != nil || !admitted.Admitted {
		t.Fatalf("expected user 1 admitted, got %+v, %v", admitted, err)
	}
	for _, uid := range []int64{2, 3} {
		outcome, err := coordinator.RequestCharge(ctx, userIdentity(uid), "volt-1", 5, 0)
		if err != nil || outcome.Admitted {
			t.Fatalf("expected user %d queued, got %+v, %v", uid, outcome, err)
		}
	}

	if _, err := svc.Stop(ctx, userIdentity(1), admitted.Session.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Exactly the oldest entry was removed.
	if store.queueLen("volt-1") != 1 {
		t.Fatalf("expected one remaining queue entry, got %d", store.queueLen("volt-1"))
	}
	if _, err := store.PositionOf(ctx, "volt-1", 2); !errors.Is(err, models.ErrNotInQueue) {
		t.Fatalf("expected user 2 dequeued, got %v", err)
	}
	if pos, _ := store.PositionOf(ctx, "volt-1", 3); pos != 1 {
		t.Fatalf("expected user 3 at position 1, got %d", pos)
	}

	// The promoted user re-requests and takes the freed slot.
	outcome, err := coordinator.RequestCharge(ctx, userIdentity(2), "volt-1", 5, 0)
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if !outcome.Admitted {
		t.Fatalf("expected promoted user admitted, got position %d", outcome.Position)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 3, PricePerUnit: 1, OwnerID: 10})
	svc := newTestSessions(store, &countingPromoter{})

	base := time.Now().UTC().Add(-time.Hour)
	first := addActiveSession(store, 1, "volt-1", 1, 1, base)
	second := addActiveSession(store, 1, "volt-1", 2, 2, base.Add(10*time.Minute))

	history, err := svc.HistoryForUser(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(history))
	}
	if history[0].ID != second || history[1].ID != first {
		t.Fatalf("expected newest first, got ids %d, %d", history[0].ID, history[1].ID)
	}
}

// gatedSessionStore holds every Get at a barrier until all expected readers
// have arrived, forcing concurrent transitions to act on the same stale
// status.
type gatedSessionStore struct {
	sessionStoreAdapter
	barrier *sync.WaitGroup
}

func (g gatedSessionStore) Get(ctx context.Context, id int64) (models.ChargingSession, error) {
	session, err := g.sessionStoreAdapter.Get(ctx, id)
	g.barrier.Done()
	g.barrier.Wait()
	return session, err
}

func TestConcurrentTransitionsFinishOnce(t *testing.T) {
	store := newMemStore()
	store.addStation(models.Station{Name: "volt-1", Chargers: 1, PricePerUnit: 2, OwnerID: 10})
	id := addActiveSession(store, 1, "volt-1", 5, 10, time.Now().UTC().Add(-time.Hour))

	var barrier sync.WaitGroup
	barrier.Add(2)
	promoter := &countingPromoter{}
	svc := NewSessionsService(gatedSessionStore{sessionStoreAdapter{store}, &barrier}, store, promoter, nil, zap.NewNop())

	errs := make(chan error, 2)
	go func() {
		_, err := svc.Stop(context.Background(), userIdentity(1), id)
		errs <- err
	}()
	go func() {
		owner := models.Identity{UserID: 10, Role: models.RoleOwner}
		_, err := svc.OwnerComplete(context.Background(), owner, id)
		errs <- err
	}()

	first, second := <-errs, <-errs
	if (first == nil) == (second == nil) {
		t.Fatalf("expected exactly one transition to win, got %v and %v", first, second)
	}
	loser := first
	if loser == nil {
		loser = second
	}
	if !errors.Is(loser, models.ErrInvalidState) {
		t.Fatalf("expected losing transition to report invalid state, got %v", loser)
	}
	if promoter.calls != 1 {
		t.Fatalf("expected one promotion for one freed slot, got %d", promoter.calls)
	}

	final, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Status != models.SessionStatusCompleted {
		t.Fatalf("expected session completed exactly once, got %s", final.Status)
	}
}
