package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// MessageSink consumes the ordered message stream. The match engine
// is the production sink.
type MessageSink interface {
	HandleMessage(ctx context.Context, msg *domain.Message)
}

// StreamService owns the inbound event flow: it dedupes redundant
// gateway events, serialises messages per channel so the recency
// tracker stays coherent with history snapshots, and re-submits
// recent content edits to the matcher.
type StreamService struct {
	matcher    MessageSink
	editWindow time.Duration

	// Per-channel serial queues. stopped is set under workersMu so a
	// gateway handler racing Stop cannot send on a closed queue.
	workersMu sync.Mutex
	workers   map[string]chan *domain.Message
	stopped   bool

	// Event deduplication cache
	seenMu sync.Mutex
	seen   map[string]time.Time // msgID -> first seen

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// channelQueueSize bounds each per-channel queue. A full queue sheds
// the newest message rather than blocking the gateway handler.
const channelQueueSize = 64

// NewStreamService creates a new stream service
func NewStreamService(matcher MessageSink, editWindow time.Duration) *StreamService {
	return &StreamService{
		matcher:    matcher,
		editWindow: editWindow,
		workers:    make(map[string]chan *domain.Message),
		seen:       make(map[string]time.Time),
	}
}

// Start prepares the service for inbound events.
func (s *StreamService) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	fmt.Println("[Stream] Started")
}

// Stop drains the per-channel workers. Events arriving after Stop are
// dropped.
func (s *StreamService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	s.workersMu.Lock()
	s.stopped = true
	for _, ch := range s.workers {
		close(ch)
	}
	s.workers = make(map[string]chan *domain.Message)
	s.workersMu.Unlock()

	s.wg.Wait()
	fmt.Println("[Stream] Stopped")
}

// HandleMessage handles a new message event from the gateway.
func (s *StreamService) HandleMessage(msg *domain.Message) {
	if s.isSeen(msg.ID) {
		return
	}
	s.markSeen(msg.ID)
	s.submit(msg)
}

// HandleMessageEdit handles an edit event. An edit that changes the
// content within the edit window of creation is re-submitted to the
// matcher; everything else is ignored.
func (s *StreamService) HandleMessageEdit(before, after *domain.Message) {
	if after == nil || after.Content == "" {
		return
	}
	if before != nil && before.Content == after.Content {
		return
	}
	if !after.EditedWithin(s.editWindow, time.Now()) {
		return
	}
	s.submit(after)
}

// submit routes the message onto its channel's serial queue. The send
// happens under workersMu so Stop cannot close the queue mid-send.
func (s *StreamService) submit(msg *domain.Message) {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()

	if s.stopped {
		return
	}
	ch, ok := s.workers[msg.ChannelID]
	if !ok {
		ch = make(chan *domain.Message, channelQueueSize)
		s.workers[msg.ChannelID] = ch
		s.wg.Add(1)
		go s.runWorker(ch)
	}

	select {
	case ch <- msg:
	default:
		fmt.Printf("[Stream] Channel %s queue full, dropping message %s\n", msg.ChannelID, msg.ID)
	}
}

// runWorker processes one channel's messages in arrival order.
func (s *StreamService) runWorker(ch <-chan *domain.Message) {
	defer s.wg.Done()

	for msg := range ch {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		s.matcher.HandleMessage(s.ctx, msg)
	}
}

// isSeen checks if a message has already been processed
func (s *StreamService) isSeen(msgID string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	_, exists := s.seen[msgID]
	return exists
}

// markSeen marks a message as processed and prunes stale entries to
// prevent the cache growing without bound.
func (s *StreamService) markSeen(msgID string) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.seen[msgID] = time.Now()

	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seen {
		if ts.Before(cutoff) {
			delete(s.seen, id)
		}
	}
}
