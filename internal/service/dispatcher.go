package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumenbot/lumen/internal/biz/repo"
	"github.com/lumenbot/lumen/internal/biz/usecase"
)

// Dispatcher periodically drains the pending-notification queue and
// delivers each entry through the DM side channel. Failed deliveries
// are discarded, never re-queued; on shutdown the in-flight send
// completes and any undispatched entries are lost intentionally.
type Dispatcher struct {
	queue   *usecase.DispatchQueue
	gateway repo.Gateway

	interval time.Duration
	pause    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(queue *usecase.DispatchQueue, gateway repo.Gateway, interval, pause time.Duration) *Dispatcher {
	return &Dispatcher{
		queue:    queue,
		gateway:  gateway,
		interval: interval,
		pause:    pause,
	}
}

// Start starts the dispatch loop
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.run()

	fmt.Printf("[Dispatcher] Started with interval %v\n", d.interval)
}

// Stop stops the dispatch loop
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	fmt.Println("[Dispatcher] Stopped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

// flush drains the queue and sends each entry with an inter-send pause
// to avoid tripping upstream rate limits.
func (d *Dispatcher) flush() {
	entries := d.queue.Drain()
	if len(entries) == 0 {
		return
	}

	fmt.Printf("[Dispatcher] Sending %d notifications\n", len(entries))

	for i, n := range entries {
		// In-flight sends run to completion even during shutdown; only
		// the inter-send pause observes cancellation.
		if err := d.gateway.DeliverDM(context.Background(), n.TargetUserID, n); err != nil {
			fmt.Printf("[Dispatcher] Failed to deliver to %s: %v\n", n.TargetUserID, err)
		}

		if i == len(entries)-1 {
			break
		}
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.pause):
		}
	}
}
