package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// CacheConfig contains cache configuration
type CacheConfig struct {
	CoalesceWindow time.Duration // Change events within this window collapse to one rebuild
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		CoalesceWindow: 1 * time.Second,
	}
}

// Snapshot is an immutable view of the compiled highlight set plus the
// preference records of every owner in it. Readers capture one
// snapshot per message and never see a rebuild in progress.
type Snapshot struct {
	Highlights []*domain.CompiledHighlight
	Owners     map[string]*domain.UserData
}

// HighlightCache is the in-memory projection of the highlight store.
// It is the only writer of the compiled set; the current snapshot is
// swapped atomically so reads never block.
type HighlightCache struct {
	highlights repo.HighlightRepo
	users      repo.UserDataRepo
	changes    <-chan struct{}
	config     CacheConfig

	current atomic.Pointer[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHighlightCache creates a new highlight cache
func NewHighlightCache(highlights repo.HighlightRepo, users repo.UserDataRepo, changes <-chan struct{}, config CacheConfig) *HighlightCache {
	c := &HighlightCache{
		highlights: highlights,
		users:      users,
		changes:    changes,
		config:     config,
	}
	c.current.Store(&Snapshot{Owners: map[string]*domain.UserData{}})
	return c
}

// Snapshot returns the current compiled set. Never nil; the cache
// starts empty.
func (c *HighlightCache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Rebuild reads the full highlight set from the store, compiles every
// pattern, and swaps in the new snapshot. On store failure the
// previous snapshot is retained.
func (c *HighlightCache) Rebuild(ctx context.Context) error {
	all, err := c.highlights.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch highlights: %w", err)
	}

	snap := &Snapshot{
		Highlights: make([]*domain.CompiledHighlight, 0, len(all)),
		Owners:     make(map[string]*domain.UserData),
	}
	for _, h := range all {
		snap.Highlights = append(snap.Highlights, compileHighlight(h))
		if _, ok := snap.Owners[h.OwnerID]; ok {
			continue
		}
		ud, err := c.users.Get(ctx, h.OwnerID)
		if err != nil {
			fmt.Printf("[Cache] Failed to load user data for %s: %v\n", h.OwnerID, err)
			ud = &domain.UserData{UserID: h.OwnerID}
		}
		snap.Owners[h.OwnerID] = ud
	}

	c.current.Store(snap)
	fmt.Printf("[Cache] Rebuilt: %d highlights, %d owners\n", len(snap.Highlights), len(snap.Owners))
	return nil
}

// compileHighlight compiles a stored highlight case-insensitively. A
// regex-flagged pattern that fails to compile is demoted to literal
// whole-word matching; the demoted entry carries IsRegex = false while
// the stored row keeps its flag.
func compileHighlight(h *domain.Highlight) *domain.CompiledHighlight {
	if h.IsRegex {
		re, err := regexp.Compile("(?i)" + h.Pattern)
		if err == nil {
			return &domain.CompiledHighlight{
				OwnerID: h.OwnerID,
				Pattern: h.Pattern,
				IsRegex: true,
				Matcher: re,
			}
		}
		fmt.Printf("[Cache] Pattern %q of %s no longer compiles, demoting to literal: %v\n", h.Pattern, h.OwnerID, err)
	}

	return &domain.CompiledHighlight{
		OwnerID: h.OwnerID,
		Pattern: h.Pattern,
		IsRegex: false,
		Matcher: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(h.Pattern) + `\b`),
	}
}

// Start runs the subscription loop until the context is cancelled.
func (c *HighlightCache) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run()
	fmt.Printf("[Cache] Started (coalesce window %v)\n", c.config.CoalesceWindow)
}

// Stop stops the subscription loop.
func (c *HighlightCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	fmt.Println("[Cache] Stopped")
}

// run consumes change notifications. After the first event of a burst
// it waits out the coalescing window, swallowing further events, then
// performs a single rebuild. Rebuilds are serialised by construction.
func (c *HighlightCache) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.changes:
		}

		timer := time.NewTimer(c.config.CoalesceWindow)
	coalesce:
		for {
			select {
			case <-c.ctx.Done():
				timer.Stop()
				return
			case <-c.changes:
			case <-timer.C:
				break coalesce
			}
		}

		if err := c.Rebuild(c.ctx); err != nil {
			fmt.Printf("[Cache] Rebuild failed, keeping stale snapshot: %v\n", err)
		}
	}
}
