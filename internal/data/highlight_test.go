package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()

	repos, err := NewRepositories(filepath.Join(t.TempDir(), "highlights.db"), 10)
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestHighlightRepo_AddAndList(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, p := range []string{"alpha", "beta", "gamma"} {
		if err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: p}); err != nil {
			t.Fatalf("Add(%q) failed: %v", p, err)
		}
	}
	if err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u2", Pattern: "delta", IsRegex: true}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	list, err := repos.Highlights.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 highlights, got %d", len(list))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if list[i].Pattern != want {
			t.Errorf("Index %d: expected %q, got %q", i, want, list[i].Pattern)
		}
	}

	other, _ := repos.Highlights.ListByOwner(ctx, "u2")
	if len(other) != 1 || !other[0].IsRegex {
		t.Errorf("Expected u2's regex highlight, got %+v", other)
	}
}

func TestHighlightRepo_DuplicateRejected(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "pizza"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "pizza"})
	if !errors.Is(err, repo.ErrDuplicatePattern) {
		t.Errorf("Expected ErrDuplicatePattern, got %v", err)
	}

	// Same pattern for another owner is fine.
	if err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u2", Pattern: "pizza"}); err != nil {
		t.Errorf("Expected cross-owner add to succeed, got %v", err)
	}
}

func TestHighlightRepo_LimitEnforced(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	patterns := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	for _, p := range patterns {
		if err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: p}); err != nil {
			t.Fatalf("Add(%q) failed: %v", p, err)
		}
	}

	err := repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "p10"})
	if !errors.Is(err, repo.ErrHighlightLimit) {
		t.Errorf("Expected ErrHighlightLimit, got %v", err)
	}

	list, _ := repos.Highlights.ListByOwner(ctx, "u1")
	if len(list) != 10 {
		t.Errorf("Expected 10 highlights after refused insert, got %d", len(list))
	}
}

func TestHighlightRepo_RemoveAndClear(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_ = repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "alpha"})
	_ = repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "beta"})

	if err := repos.Highlights.Remove(ctx, "u1", "alpha"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	list, _ := repos.Highlights.ListByOwner(ctx, "u1")
	if len(list) != 1 || list[0].Pattern != "beta" {
		t.Errorf("Expected [beta], got %+v", list)
	}

	n, err := repos.Highlights.Clear(ctx, "u1")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 cleared, got %d", n)
	}
	list, _ = repos.Highlights.ListByOwner(ctx, "u1")
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %+v", list)
	}
}

func TestHighlightRepo_FetchAll(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_ = repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u1", Pattern: "alpha"})
	_ = repos.Highlights.Add(ctx, &domain.Highlight{OwnerID: "u2", Pattern: "beta", IsRegex: true})

	all, err := repos.Highlights.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 highlights, got %d", len(all))
	}
}

func TestUserDataRepo_DefaultsAndSets(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	// Unknown users get a zero-value record, no row created.
	ud, err := repos.Users.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(ud.Blocks) != 0 || len(ud.Whitelist) != 0 || ud.Blacklisted {
		t.Errorf("Expected zero-value record, got %+v", ud)
	}

	if err := repos.Users.SetBlock(ctx, "u1", "u2", true); err != nil {
		t.Fatalf("SetBlock failed: %v", err)
	}
	if err := repos.Users.SetBlock(ctx, "u1", "u2", true); err != nil {
		t.Fatalf("Idempotent SetBlock failed: %v", err)
	}
	if err := repos.Users.SetWhitelist(ctx, "u1", "g1", true); err != nil {
		t.Fatalf("SetWhitelist failed: %v", err)
	}
	if err := repos.Users.SetBlacklisted(ctx, "u1", true); err != nil {
		t.Fatalf("SetBlacklisted failed: %v", err)
	}

	ud, _ = repos.Users.Get(ctx, "u1")
	if len(ud.Blocks) != 1 || ud.Blocks[0] != "u2" {
		t.Errorf("Expected blocks [u2], got %v", ud.Blocks)
	}
	if len(ud.Whitelist) != 1 || ud.Whitelist[0] != "g1" {
		t.Errorf("Expected whitelist [g1], got %v", ud.Whitelist)
	}
	if !ud.Blacklisted {
		t.Error("Expected blacklisted flag set")
	}

	if err := repos.Users.SetBlock(ctx, "u1", "u2", false); err != nil {
		t.Fatalf("Block removal failed: %v", err)
	}
	if err := repos.Users.SetBlock(ctx, "u1", "u2", false); err != nil {
		t.Fatalf("Idempotent block removal failed: %v", err)
	}
	ud, _ = repos.Users.Get(ctx, "u1")
	if len(ud.Blocks) != 0 {
		t.Errorf("Expected empty blocks, got %v", ud.Blocks)
	}
}
