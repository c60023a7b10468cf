package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest dispatch and poll activity.
type Snapshot struct {
	Ready              bool       `json:"ready"`
	ActiveDelegates    int        `json:"active_delegates"`
	LastDispatchTime   *time.Time `json:"last_dispatch_time"`
	DispatchDurationMS int64      `json:"dispatch_duration_ms"`
	DispatchesTotal    int64      `json:"dispatches_total"`
	LastPollTime       *time.Time `json:"last_poll_time"`
}

// Tracker records dispatch and poll activity for health endpoints.
type Tracker struct {
	mu               sync.RWMutex
	ready            bool
	activeDelegates  int
	lastDispatch     time.Time
	dispatchDuration time.Duration
	dispatches       int64
	lastPoll         time.Time
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetReady marks the active delegate baseline as loaded.
func (t *Tracker) SetReady(activeDelegates int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.ready = true
	t.activeDelegates = activeDelegates
	t.mu.Unlock()
}

// RecordDispatch records a completed event dispatch.
func (t *Tracker) RecordDispatch(duration time.Duration) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastDispatch = now
	t.dispatchDuration = duration
	t.dispatches++
	t.mu.Unlock()
}

// RecordPoll records a delegate poll tick.
func (t *Tracker) RecordPoll() {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastPoll = now
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		Ready:              t.ready,
		ActiveDelegates:    t.activeDelegates,
		LastDispatchTime:   timePtr(t.lastDispatch),
		DispatchDurationMS: int64(t.dispatchDuration / time.Millisecond),
		DispatchesTotal:    t.dispatches,
		LastPollTime:       timePtr(t.lastPoll),
	}
}

// Ready reports whether the delegate baseline has been loaded.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the tracker is ready and, when polling is enabled, the
// last poll happened within 2x the poll interval.
func (t *Tracker) Healthy(now time.Time, pollInterval time.Duration) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.ready {
		return false
	}
	if pollInterval <= 0 {
		return true
	}
	if t.lastPoll.IsZero() {
		return false
	}
	return now.Sub(t.lastPoll) <= 2*pollInterval
}

func timePtr(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}
