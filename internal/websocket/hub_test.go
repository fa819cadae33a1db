package livews

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
	"github.com/kiarash-j/TutorLinkBack/internal/presence"
)

type memoryStatusStore struct {
	mu      sync.Mutex
	records map[int64]*models.LivenessRecord
}

func newMemoryStatusStore() *memoryStatusStore {
	return &memoryStatusStore{records: make(map[int64]*models.LivenessRecord)}
}

func (s *memoryStatusStore) WriteHeartbeat(_ context.Context, userID int64, clientTime int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		record = &models.LivenessRecord{UserID: userID}
		s.records[userID] = record
	}
	record.Online = true
	record.LastSeen = time.Now().UTC()
	record.ClientTime = clientTime
	record.LastHeartbeat++
	copied := *record
	return &copied, nil
}

func (s *memoryStatusStore) MarkOffline(_ context.Context, userID int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		record = &models.LivenessRecord{UserID: userID}
		s.records[userID] = record
	}
	record.Online = false
	record.LastSeen = time.Now().UTC()
	record.LastHeartbeat = 0
	copied := *record
	return &copied, nil
}

func (s *memoryStatusStore) Get(_ context.Context, userID int64) (*models.LivenessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func newHubFixture() (*Hub, *presence.Tracker) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	tracker := presence.NewTracker(newMemoryStatusStore(), zap.NewNop(), 30*time.Second)
	return hub, tracker
}

func recvPayload(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		if !ok {
			t.Fatal("send channel closed while a payload was expected")
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a payload")
	}
	return nil
}

func waitSendClosed(t *testing.T, client *Client) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-client.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel never closed")
		}
	}
}

func watchedCount(client *Client) int {
	client.mu.Lock()
	defer client.mu.Unlock()
	return len(client.watches)
}

func TestPushToUserReachesEveryConnection(t *testing.T) {
	hub, _ := newHubFixture()

	first := NewClient(hub, nil, 7)
	second := NewClient(hub, nil, 7)
	other := NewClient(hub, nil, 8)
	hub.Register(first)
	hub.Register(second)
	hub.Register(other)

	hub.PushToUser(7, map[string]string{"type": "notification"})

	for _, client := range []*Client{first, second} {
		var frame map[string]any
		if err := json.Unmarshal(recvPayload(t, client), &frame); err != nil {
			t.Fatalf("Unmarshal push: %v", err)
		}
		if frame["type"] != "notification" {
			t.Fatalf("expected a notification frame, got %v", frame)
		}
	}
	select {
	case payload := <-other.send:
		t.Fatalf("unexpected payload for another user: %s", payload)
	default:
	}
}

func TestChatBroadcastReachesBothParties(t *testing.T) {
	hub, _ := newHubFixture()

	student := NewClient(hub, nil, 3)
	teacher := NewClient(hub, nil, 4)
	hub.Register(student)
	hub.Register(teacher)

	hub.broadcast <- &ChatFrame{
		Type:           "message",
		ConversationID: "11",
		SenderID:       "3",
		RecipientID:    "4",
		Content:        "hello",
	}

	for _, client := range []*Client{student, teacher} {
		var frame ChatFrame
		if err := json.Unmarshal(recvPayload(t, client), &frame); err != nil {
			t.Fatalf("Unmarshal broadcast: %v", err)
		}
		if frame.Type != "message" || frame.Content != "hello" {
			t.Fatalf("unexpected chat frame: %+v", frame)
		}
	}
}

func TestWatchEmitsPresenceEdges(t *testing.T) {
	hub, tracker := newHubFixture()

	client := NewClient(hub, nil, 3)
	hub.Register(client)
	client.watch(tracker, []int64{5})

	var initial presenceFrame
	if err := json.Unmarshal(recvPayload(t, client), &initial); err != nil {
		t.Fatalf("Unmarshal presence frame: %v", err)
	}
	if initial.Type != "presence" || initial.UserID != 5 || initial.Online {
		t.Fatalf("expected an initial offline frame for user 5, got %+v", initial)
	}

	tracker.Heartbeat(context.Background(), 5, time.Now().UnixMilli())

	var edge presenceFrame
	if err := json.Unmarshal(recvPayload(t, client), &edge); err != nil {
		t.Fatalf("Unmarshal presence frame: %v", err)
	}
	if !edge.Online {
		t.Fatalf("expected an online edge after the heartbeat, got %+v", edge)
	}
}

func TestWatchSameUserTwiceKeepsOneSubscription(t *testing.T) {
	hub, tracker := newHubFixture()

	client := NewClient(hub, nil, 3)
	hub.Register(client)
	client.watch(tracker, []int64{5})
	client.watch(tracker, []int64{5})

	if count := watchedCount(client); count != 1 {
		t.Fatalf("expected a single subscription, got %d", count)
	}

	client.unwatch([]int64{5})
	if count := watchedCount(client); count != 0 {
		t.Fatalf("expected no subscriptions after unwatch, got %d", count)
	}
}

func TestUnregisterCancelsWatchesAndClosesSend(t *testing.T) {
	hub, tracker := newHubFixture()

	client := NewClient(hub, nil, 3)
	hub.Register(client)
	client.watch(tracker, []int64{5, 6})

	hub.Unregister(client)

	waitSendClosed(t, client)
	if count := watchedCount(client); count != 0 {
		t.Fatalf("expected watches cancelled on unregister, got %d", count)
	}
}

// A connection that stops draining its buffer gets dropped by the hub. The
// drop must detach its presence subscriptions so later edges land on a
// detached stream instead of the closed send channel.
func TestSlowConsumerDropDetachesWatches(t *testing.T) {
	hub, tracker := newHubFixture()

	client := NewClient(hub, nil, 7)
	hub.Register(client)
	client.watch(tracker, []int64{5})

	for i := 0; i < 40; i++ {
		hub.PushToUser(7, map[string]string{"type": "notification"})
	}

	waitSendClosed(t, client)
	if count := watchedCount(client); count != 0 {
		t.Fatalf("expected watches cancelled on drop, got %d", count)
	}

	// An edge raised after the drop has nowhere to go and must not crash
	// the hub.
	tracker.Heartbeat(context.Background(), 5, time.Now().UnixMilli())
	time.Sleep(50 * time.Millisecond)

	if !client.trySend([]byte("late")) {
		t.Fatal("expected a post-drop send to be absorbed silently")
	}
}

func TestForwardPresenceAfterCloseDropsFrames(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, 9)
	client.closeSend()

	stream := make(chan bool, 2)
	done := make(chan struct{})
	go func() {
		client.forwardPresence(5, stream)
		close(done)
	}()

	stream <- true
	stream <- false
	close(stream)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not drain the stream of a closed client")
	}
}
