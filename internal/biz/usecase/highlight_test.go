package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// Mock implementations

type mockHighlightRepo struct {
	mu            sync.Mutex
	highlights    []*domain.Highlight
	maxPerUser    int
	fetchAllCalls int
	failFetch     bool
}

func newMockHighlightRepo() *mockHighlightRepo {
	return &mockHighlightRepo{maxPerUser: 10}
}

func (m *mockHighlightRepo) Add(ctx context.Context, h *domain.Highlight) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, existing := range m.highlights {
		if existing.OwnerID != h.OwnerID {
			continue
		}
		if existing.Pattern == h.Pattern {
			return repo.ErrDuplicatePattern
		}
		count++
	}
	if count >= m.maxPerUser {
		return repo.ErrHighlightLimit
	}

	stored := *h
	stored.CreatedAt = time.Now()
	m.highlights = append(m.highlights, &stored)
	return nil
}

func (m *mockHighlightRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Highlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Highlight
	for _, h := range m.highlights {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockHighlightRepo) Remove(ctx context.Context, ownerID, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, h := range m.highlights {
		if h.OwnerID == ownerID && h.Pattern == pattern {
			m.highlights = append(m.highlights[:i], m.highlights[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockHighlightRepo) Clear(ctx context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*domain.Highlight
	var removed int64
	for _, h := range m.highlights {
		if h.OwnerID == ownerID {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	m.highlights = kept
	return removed, nil
}

func (m *mockHighlightRepo) FetchAll(ctx context.Context) ([]*domain.Highlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetchAllCalls++
	if m.failFetch {
		return nil, repo.ErrStoreUnavailable
	}
	out := make([]*domain.Highlight, len(m.highlights))
	copy(out, m.highlights)
	return out, nil
}

type mockUserDataRepo struct {
	mu    sync.Mutex
	users map[string]*domain.UserData
}

func newMockUserDataRepo() *mockUserDataRepo {
	return &mockUserDataRepo{users: make(map[string]*domain.UserData)}
}

func (m *mockUserDataRepo) Get(ctx context.Context, userID string) (*domain.UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ud, ok := m.users[userID]; ok {
		copied := *ud
		return &copied, nil
	}
	return &domain.UserData{UserID: userID}, nil
}

func (m *mockUserDataRepo) ensure(userID string) *domain.UserData {
	if ud, ok := m.users[userID]; ok {
		return ud
	}
	ud := &domain.UserData{UserID: userID}
	m.users[userID] = ud
	return ud
}

func (m *mockUserDataRepo) SetBlock(ctx context.Context, userID, targetID string, add bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ud := m.ensure(userID)
	ud.Blocks = mutateSet(ud.Blocks, targetID, add)
	return nil
}

func (m *mockUserDataRepo) SetWhitelist(ctx context.Context, userID, guildID string, add bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ud := m.ensure(userID)
	ud.Whitelist = mutateSet(ud.Whitelist, guildID, add)
	return nil
}

func (m *mockUserDataRepo) SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensure(userID).Blacklisted = blacklisted
	return nil
}

func mutateSet(set []string, value string, add bool) []string {
	for i, v := range set {
		if v == value {
			if add {
				return set
			}
			return append(set[:i], set[i+1:]...)
		}
	}
	if add {
		return append(set, value)
	}
	return set
}

func drainChanges(uc *HighlightUsecase) bool {
	select {
	case <-uc.Changes():
		return true
	default:
		return false
	}
}

// Tests

func TestAdd_Success(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())

	if err := uc.Add(context.Background(), "u1", "coffee", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	list, _ := uc.List(context.Background(), "u1")
	if len(list) != 1 || list[0].Pattern != "coffee" {
		t.Errorf("Expected [coffee], got %v", list)
	}
	if !drainChanges(uc) {
		t.Error("Expected a change notification after Add")
	}
}

func TestAdd_TrimsAndRejectsShortPattern(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())

	err := uc.Add(context.Background(), "u1", "  a  ", false)
	if !errors.Is(err, repo.ErrPatternTooShort) {
		t.Errorf("Expected ErrPatternTooShort, got %v", err)
	}
	if drainChanges(uc) {
		t.Error("No change notification expected on rejection")
	}
}

func TestAdd_RejectsDisallowedRegex(t *testing.T) {
	highlights := newMockHighlightRepo()
	uc := NewHighlightUsecase(highlights, newMockUserDataRepo(), DefaultHighlightConfig())

	err := uc.Add(context.Background(), "u1", ".*", true)
	if !errors.Is(err, repo.ErrPatternRejected) {
		t.Errorf("Expected ErrPatternRejected, got %v", err)
	}
	if len(highlights.highlights) != 0 {
		t.Error("Expected no state change on rejection")
	}

	if err := uc.Add(context.Background(), "u1", `\bfoo\b|\bbar\b|\bbaz\b`, true); err != nil {
		t.Errorf("Expected valid regex to be accepted, got %v", err)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())
	ctx := context.Background()

	if err := uc.Add(ctx, "u1", "pizza", false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	err := uc.Add(ctx, "u1", "pizza", false)
	if !errors.Is(err, repo.ErrDuplicatePattern) {
		t.Errorf("Expected ErrDuplicatePattern, got %v", err)
	}

	list, _ := uc.List(ctx, "u1")
	if len(list) != 1 {
		t.Errorf("Expected state unchanged, got %d highlights", len(list))
	}
}

func TestAdd_LimitReached(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())
	ctx := context.Background()

	patterns := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	for _, p := range patterns {
		if err := uc.Add(ctx, "u1", p, false); err != nil {
			t.Fatalf("Unexpected error adding %q: %v", p, err)
		}
	}

	err := uc.Add(ctx, "u1", "p10", false)
	if !errors.Is(err, repo.ErrHighlightLimit) {
		t.Errorf("Expected ErrHighlightLimit, got %v", err)
	}

	// Other users are unaffected by u1's limit.
	if err := uc.Add(ctx, "u2", "p0", false); err != nil {
		t.Errorf("Unexpected error for other user: %v", err)
	}
}

func TestRemoveByIndices(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())
	ctx := context.Background()

	for _, p := range []string{"alpha", "beta", "gamma"} {
		if err := uc.Add(ctx, "u1", p, false); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	removed, err := uc.RemoveByIndices(ctx, "u1", []int{1, 99, -1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(removed) != 1 || removed[0] != "beta" {
		t.Errorf("Expected [beta], got %v", removed)
	}

	list, _ := uc.List(ctx, "u1")
	if len(list) != 2 || list[0].Pattern != "alpha" || list[1].Pattern != "gamma" {
		t.Errorf("Expected [alpha gamma], got %v", list)
	}
}

func TestClear(t *testing.T) {
	uc := NewHighlightUsecase(newMockHighlightRepo(), newMockUserDataRepo(), DefaultHighlightConfig())
	ctx := context.Background()

	_ = uc.Add(ctx, "u1", "one1", false)
	_ = uc.Add(ctx, "u1", "two2", false)

	n, err := uc.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 removed, got %d", n)
	}

	list, _ := uc.List(ctx, "u1")
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %v", list)
	}
}

func TestSetBlock_Idempotent(t *testing.T) {
	users := newMockUserDataRepo()
	uc := NewHighlightUsecase(newMockHighlightRepo(), users, DefaultHighlightConfig())
	ctx := context.Background()

	_ = uc.SetBlock(ctx, "u1", "u2", true)
	_ = uc.SetBlock(ctx, "u1", "u2", true)

	ud, _ := uc.GetUserData(ctx, "u1")
	if len(ud.Blocks) != 1 || ud.Blocks[0] != "u2" {
		t.Errorf("Expected blocks [u2], got %v", ud.Blocks)
	}

	_ = uc.SetBlock(ctx, "u1", "u2", false)
	ud, _ = uc.GetUserData(ctx, "u1")
	if len(ud.Blocks) != 0 {
		t.Errorf("Expected empty blocks, got %v", ud.Blocks)
	}
}
