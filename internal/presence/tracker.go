package presence

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kiarash-j/TutorLinkBack/internal/models"
)

const (
	DefaultStaleThreshold = 30 * time.Second

	offlineWriteAttempts = 3
	offlineWriteBackoff  = 200 * time.Millisecond
)

// Tracker derives online/offline state from liveness records and fans the
// derived state out to subscribers. Staleness is computed against the
// server-assigned lastSeen only; the client clock is never trusted for it.
type Tracker struct {
	store      StatusStore
	logger     *zap.Logger
	threshold  time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	mu       sync.Mutex
	watchers map[int64]map[*subscription]struct{}
}

type subscription struct {
	userID int64
	ch     chan bool
	// last emitted value; streams are edge-triggered so equal states are
	// not re-sent.
	last    *bool
	stopped bool
}

func NewTracker(store StatusStore, logger *zap.Logger, threshold time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	return &Tracker{
		store:      store,
		logger:     logger,
		threshold:  threshold,
		sweepEvery: threshold / 3,
		now:        time.Now,
	}
}

// Resolve derives the boolean presence state from a record. A missing
// record, an explicit-offline write (lastHeartbeat == 0) and a stale
// lastSeen all read as offline regardless of the asserted flag.
func (t *Tracker) Resolve(record *models.LivenessRecord) bool {
	if record == nil || record.LastHeartbeat == 0 || !record.Online {
		return false
	}
	return t.now().Sub(record.LastSeen) <= t.threshold
}

// Heartbeat ingests one client heartbeat. Write failures are logged and
// swallowed: a missed heartbeat degrades into a stale/offline reading,
// which is the intended fallback, not an error the client can act on.
func (t *Tracker) Heartbeat(ctx context.Context, userID int64, clientTime int64) {
	record, err := t.store.WriteHeartbeat(ctx, userID, clientTime)
	if err != nil {
		t.logger.Warn("heartbeat write failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return
	}
	t.publish(userID, t.Resolve(record))
}

// MarkOffline performs the explicit-offline write with a small bounded
// retry. Exhausted retries surface so the caller can report a generic
// failure; the user will still flip offline by staleness.
func (t *Tracker) MarkOffline(ctx context.Context, userID int64) error {
	backoff := retry.WithMaxRetries(offlineWriteAttempts, retry.NewExponential(offlineWriteBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := t.store.MarkOffline(ctx, userID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.publish(userID, false)
	return nil
}

// Snapshot reads the current derived state. Reads never fail to the
// caller: a store error resolves to offline, the same as an absent record.
func (t *Tracker) Snapshot(ctx context.Context, userID int64) bool {
	record, err := t.store.Get(ctx, userID)
	if err != nil {
		t.logger.Warn("liveness read failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return false
	}
	return t.Resolve(record)
}

// Subscribe registers an observer for one user's derived presence. The
// current state is emitted immediately, then only on change. The returned
// cancel detaches the subscription; no sends happen after it returns.
func (t *Tracker) Subscribe(ctx context.Context, userID int64) (<-chan bool, func()) {
	sub := &subscription{
		userID: userID,
		ch:     make(chan bool, 1),
	}

	t.mu.Lock()
	set, ok := t.watchers[userID]
	if !ok {
		if t.watchers == nil {
			t.watchers = make(map[int64]map[*subscription]struct{})
		}
		set = make(map[*subscription]struct{})
		t.watchers[userID] = set
	}
	set[sub] = struct{}{}
	t.mu.Unlock()

	initial := t.Snapshot(ctx, userID)

	t.mu.Lock()
	if !sub.stopped && sub.last == nil {
		sub.emitLocked(initial)
	}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub.stopped {
			return
		}
		sub.stopped = true
		if set, ok := t.watchers[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(t.watchers, userID)
			}
		}
		close(sub.ch)
	}

	return sub.ch, cancel
}

// Run recomputes watched users on a fixed cadence so a record that merely
// went stale flips subscribers to offline without any new write. Blocks
// until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *Tracker) sweep(ctx context.Context) {
	t.mu.Lock()
	userIDs := make([]int64, 0, len(t.watchers))
	for userID := range t.watchers {
		userIDs = append(userIDs, userID)
	}
	t.mu.Unlock()

	for _, userID := range userIDs {
		record, err := t.store.Get(ctx, userID)
		if err != nil {
			t.logger.Warn("presence sweep read failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		t.publish(userID, t.Resolve(record))
	}
}

func (t *Tracker) publish(userID int64, state bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for sub := range t.watchers[userID] {
		sub.emitLocked(state)
	}
}

// emitLocked keeps only the latest value: a slow reader sees the most
// recent state, never a backlog of flips.
func (s *subscription) emitLocked(state bool) {
	if s.stopped || (s.last != nil && *s.last == state) {
		return
	}
	value := state
	s.last = &value

	select {
	case s.ch <- state:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- state
	}
}
