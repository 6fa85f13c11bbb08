package usecase

import (
	"sync"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// QueueConfig contains dispatch queue configuration
type QueueConfig struct {
	MaxLength  int // Total pending notifications
	MaxPerUser int // Pending notifications per recipient
}

// DefaultQueueConfig returns default queue configuration
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxLength:  40,
		MaxPerUser: 5,
	}
}

// DispatchQueue is the bounded pending-notification buffer. The match
// engine enqueues from many goroutines; the dispatcher is the single
// drainer. Admission check and append run under one lock so the
// bounds hold under concurrent enqueue.
type DispatchQueue struct {
	mu      sync.Mutex
	entries []*domain.Notification
	config  QueueConfig
}

// NewDispatchQueue creates a new dispatch queue
func NewDispatchQueue(config QueueConfig) *DispatchQueue {
	return &DispatchQueue{config: config}
}

// Enqueue admits the notification unless the queue is full or the
// recipient is already at their per-user cap. Returns false on
// refusal; refused entries are dropped by the caller.
func (q *DispatchQueue) Enqueue(n *domain.Notification) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.config.MaxLength {
		return false
	}
	perUser := 0
	for _, e := range q.entries {
		if e.TargetUserID == n.TargetUserID {
			perUser++
		}
	}
	if perUser >= q.config.MaxPerUser {
		return false
	}

	q.entries = append(q.entries, n)
	return true
}

// Drain empties the queue and returns the pending entries with
// duplicates collapsed (same recipient, identical payload), preserving
// first-occurrence order.
func (q *DispatchQueue) Drain() []*domain.Notification {
	q.mu.Lock()
	entries := q.entries
	q.entries = nil
	q.mu.Unlock()

	var out []*domain.Notification
	for _, n := range entries {
		dup := false
		for _, seen := range out {
			if seen.SameAs(n) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the current queue length.
func (q *DispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
