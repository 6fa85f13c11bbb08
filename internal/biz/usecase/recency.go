package usecase

import (
	"sync"
	"time"
)

// RecencyTracker remembers which users spoke in which channels
// recently. A user active in a channel within the decay window is
// presumed present and receives no highlight notifications from it.
type RecencyTracker struct {
	mu       sync.RWMutex
	channels map[string]map[string]*recencyEntry
	window   time.Duration
}

// recencyEntry pairs the decay timer with a sequence number so a
// stale timer callback racing a refresh cannot remove the fresh entry.
type recencyEntry struct {
	seq   uint64
	timer *time.Timer
}

// NewRecencyTracker creates a new recency tracker
func NewRecencyTracker(window time.Duration) *RecencyTracker {
	return &RecencyTracker{
		channels: make(map[string]map[string]*recencyEntry),
		window:   window,
	}
}

// Touch inserts or refreshes the (channel, user) entry. Refreshing
// cancels the prior decay and re-arms it for a full window.
func (t *RecencyTracker) Touch(channelID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.channels[channelID]
	if !ok {
		users = make(map[string]*recencyEntry)
		t.channels[channelID] = users
	}

	var seq uint64
	if prev, ok := users[userID]; ok {
		prev.timer.Stop()
		seq = prev.seq + 1
	}

	entry := &recencyEntry{seq: seq}
	entry.timer = time.AfterFunc(t.window, func() {
		t.expire(channelID, userID, seq)
	})
	users[userID] = entry
}

// Contains reports whether the user was active in the channel within
// the decay window.
func (t *RecencyTracker) Contains(channelID, userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.channels[channelID][userID]
	return ok
}

func (t *RecencyTracker) expire(channelID, userID string, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.channels[channelID][userID]
	if !ok || entry.seq != seq {
		// Entry was refreshed after this timer was scheduled.
		return
	}
	delete(t.channels[channelID], userID)
	if len(t.channels[channelID]) == 0 {
		delete(t.channels, channelID)
	}
}

// Stop cancels all outstanding decay timers and clears the tracker.
func (t *RecencyTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, users := range t.channels {
		for _, entry := range users {
			entry.timer.Stop()
		}
	}
	t.channels = make(map[string]map[string]*recencyEntry)
}
