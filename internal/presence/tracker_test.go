package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

type memoryStatusStore struct {
	mu      sync.Mutex
	records map[int64]*models.LivenessRecord
	now     func() time.Time
	getErr  error

	offlineFailures int
	offlineCalls    int
}

func newMemoryStatusStore(now func() time.Time) *memoryStatusStore {
	return &memoryStatusStore{
		records: make(map[int64]*models.LivenessRecord),
		now:     now,
	}
}

func (s *memoryStatusStore) WriteHeartbeat(_ context.Context, userID int64, clientTime int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var beat int64 = 1
	if existing, ok := s.records[userID]; ok {
		beat = existing.LastHeartbeat + 1
	}
	record := &models.LivenessRecord{
		UserID:        userID,
		Online:        true,
		LastSeen:      s.now(),
		ClientTime:    clientTime,
		LastHeartbeat: beat,
	}
	s.records[userID] = record
	copied := *record
	return &copied, nil
}

func (s *memoryStatusStore) MarkOffline(_ context.Context, userID int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offlineCalls++
	if s.offlineFailures > 0 {
		s.offlineFailures--
		return nil, errors.New("write unavailable")
	}

	record := &models.LivenessRecord{
		UserID:   userID,
		LastSeen: s.now(),
	}
	s.records[userID] = record
	copied := *record
	return &copied, nil
}

func (s *memoryStatusStore) Get(_ context.Context, userID int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(t *testing.T) (*Tracker, *memoryStatusStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	store := newMemoryStatusStore(clock.Now)
	tracker := NewTracker(store, zap.NewNop(), 30*time.Second)
	tracker.now = clock.Now
	return tracker, store, clock
}

func TestResolveZeroHeartbeatOverridesOnlineFlag(t *testing.T) {
	tracker, _, clock := newTestTracker(t)

	record := &models.LivenessRecord{
		UserID:        7,
		Online:        true,
		LastSeen:      clock.Now(),
		LastHeartbeat: 0,
	}
	if tracker.Resolve(record) {
		t.Fatal("expected offline when lastHeartbeat == 0 despite online == true")
	}
}

func TestResolveStaleRecordIsOffline(t *testing.T) {
	tracker, _, clock := newTestTracker(t)

	record := &models.LivenessRecord{
		UserID:        7,
		Online:        true,
		LastSeen:      clock.Now(),
		LastHeartbeat: 4,
	}
	if !tracker.Resolve(record) {
		t.Fatal("expected online for a fresh record")
	}

	clock.Advance(31 * time.Second)
	if tracker.Resolve(record) {
		t.Fatal("expected offline once lastSeen exceeds the threshold")
	}
}

func TestResolveMissingRecordIsOffline(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	if tracker.Resolve(nil) {
		t.Fatal("expected offline for an absent record")
	}
	if tracker.Snapshot(context.Background(), 99) {
		t.Fatal("expected offline snapshot for a user with no record")
	}
}

func TestSnapshotReadErrorResolvesOffline(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	store.getErr = errors.New("backend down")

	if tracker.Snapshot(context.Background(), 7) {
		t.Fatal("expected offline when the store read fails")
	}
}

func TestHeartbeatsKeepUserOnlineAcrossInterval(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())
	clock.Advance(5 * time.Second)
	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())

	if !tracker.Snapshot(ctx, 7) {
		t.Fatal("expected online after two heartbeats 5s apart")
	}

	clock.Advance(31 * time.Second)
	if tracker.Snapshot(ctx, 7) {
		t.Fatal("expected offline after 31s without a heartbeat")
	}
}

func TestSubscribeEmitsInitialStateAndEdges(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	stream, cancel := tracker.Subscribe(ctx, 7)
	defer cancel()

	if state := <-stream; state {
		t.Fatal("expected initial emit to be offline for an unknown user")
	}

	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())
	if state := <-stream; !state {
		t.Fatal("expected online emit after heartbeat")
	}

	// Same state again must not produce another emit.
	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())
	select {
	case state := <-stream:
		t.Fatalf("unexpected emit for unchanged state: %v", state)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSweepFlipsStaleWatchedUserOffline(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())

	stream, cancel := tracker.Subscribe(ctx, 7)
	defer cancel()
	if state := <-stream; !state {
		t.Fatal("expected initial online emit")
	}

	clock.Advance(31 * time.Second)
	tracker.sweep(ctx)

	select {
	case state := <-stream:
		if state {
			t.Fatal("expected offline emit after staleness sweep")
		}
	case <-time.After(time.Second):
		t.Fatal("expected sweep to emit offline")
	}
}

func TestCancelStopsFurtherEmits(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	stream, cancel := tracker.Subscribe(ctx, 7)
	<-stream
	cancel()

	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())

	if _, ok := <-stream; ok {
		t.Fatal("expected channel closed after cancel")
	}

	// Cancel twice is a no-op.
	cancel()
}

func TestMarkOfflineOverridesRecentHeartbeat(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	ctx := context.Background()

	tracker.Heartbeat(ctx, 7, clock.Now().UnixMilli())
	if !tracker.Snapshot(ctx, 7) {
		t.Fatal("expected online after heartbeat")
	}

	if err := tracker.MarkOffline(ctx, 7); err != nil {
		t.Fatalf("MarkOffline: %v", err)
	}
	if tracker.Snapshot(ctx, 7) {
		t.Fatal("expected offline immediately after explicit offline write")
	}
}

func TestMarkOfflineRetriesTransientFailures(t *testing.T) {
	tracker, store, _ := newTestTracker(t)
	store.offlineFailures = 2

	if err := tracker.MarkOffline(context.Background(), 7); err != nil {
		t.Fatalf("expected retries to absorb transient failures, got %v", err)
	}
	if store.offlineCalls != 3 {
		t.Fatalf("expected 3 write attempts, got %d", store.offlineCalls)
	}
}
