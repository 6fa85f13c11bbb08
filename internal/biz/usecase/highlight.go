package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// HighlightConfig contains highlight management configuration
type HighlightConfig struct {
	MaxPerUser    int // Max highlights a user may own
	MinPatternLen int // Min pattern length in runes, after trimming
}

// DefaultHighlightConfig returns default highlight configuration
func DefaultHighlightConfig() HighlightConfig {
	return HighlightConfig{
		MaxPerUser:    10,
		MinPatternLen: 2,
	}
}

// HighlightUsecase handles highlight, block and whitelist mutations.
// Every successful mutation emits a change notification consumed by
// the cache.
type HighlightUsecase struct {
	highlights repo.HighlightRepo
	users      repo.UserDataRepo
	config     HighlightConfig
	changes    chan struct{}
}

// NewHighlightUsecase creates a new highlight usecase
func NewHighlightUsecase(highlights repo.HighlightRepo, users repo.UserDataRepo, config HighlightConfig) *HighlightUsecase {
	return &HighlightUsecase{
		highlights: highlights,
		users:      users,
		config:     config,
		changes:    make(chan struct{}, 1),
	}
}

// Changes returns the change notification stream. Sends never block;
// redundant notifications collapse into the buffered slot.
func (uc *HighlightUsecase) Changes() <-chan struct{} {
	return uc.changes
}

func (uc *HighlightUsecase) notifyChange() {
	select {
	case uc.changes <- struct{}{}:
	default:
	}
}

// Add validates and stores a new highlight for the owner.
func (uc *HighlightUsecase) Add(ctx context.Context, ownerID, pattern string, isRegex bool) error {
	pattern = strings.TrimSpace(pattern)
	if utf8.RuneCountInString(pattern) < uc.config.MinPatternLen {
		return fmt.Errorf("%w: need at least %d characters", repo.ErrPatternTooShort, uc.config.MinPatternLen)
	}
	if isRegex {
		if err := ValidatePattern(pattern); err != nil {
			return err
		}
	}

	if err := uc.highlights.Add(ctx, &domain.Highlight{
		OwnerID: ownerID,
		Pattern: pattern,
		IsRegex: isRegex,
	}); err != nil {
		return err
	}

	uc.notifyChange()
	return nil
}

// List returns the owner's highlights in creation order. Indices into
// the returned slice are the stable ordinals RemoveByIndices accepts.
func (uc *HighlightUsecase) List(ctx context.Context, ownerID string) ([]*domain.Highlight, error) {
	return uc.highlights.ListByOwner(ctx, ownerID)
}

// RemoveByIndices deletes the highlights at the given ordinal
// positions in creation order and returns the removed pattern strings.
// Out-of-range indices are ignored.
func (uc *HighlightUsecase) RemoveByIndices(ctx context.Context, ownerID string, indices []int) ([]string, error) {
	list, err := uc.highlights.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, idx := range indices {
		if idx < 0 || idx >= len(list) {
			continue
		}
		h := list[idx]
		if err := uc.highlights.Remove(ctx, ownerID, h.Pattern); err != nil {
			return removed, err
		}
		removed = append(removed, h.Pattern)
	}

	if len(removed) > 0 {
		uc.notifyChange()
	}
	return removed, nil
}

// Clear removes all of the owner's highlights.
func (uc *HighlightUsecase) Clear(ctx context.Context, ownerID string) (int64, error) {
	n, err := uc.highlights.Clear(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.notifyChange()
	}
	return n, nil
}

// ========== Block / Whitelist Management ==========

// SetBlock adds or removes a user or guild identifier from the owner's
// block list. Idempotent.
func (uc *HighlightUsecase) SetBlock(ctx context.Context, ownerID, targetID string, add bool) error {
	if err := uc.users.SetBlock(ctx, ownerID, targetID, add); err != nil {
		return err
	}
	uc.notifyChange()
	return nil
}

// SetWhitelist adds or removes a guild from the owner's whitelist.
// Idempotent.
func (uc *HighlightUsecase) SetWhitelist(ctx context.Context, ownerID, guildID string, add bool) error {
	if err := uc.users.SetWhitelist(ctx, ownerID, guildID, add); err != nil {
		return err
	}
	uc.notifyChange()
	return nil
}

// SetBlacklisted marks a user as excluded from all features, or lifts
// the exclusion.
func (uc *HighlightUsecase) SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error {
	if err := uc.users.SetBlacklisted(ctx, userID, blacklisted); err != nil {
		return err
	}
	uc.notifyChange()
	return nil
}

// GetUserData returns the owner's preference record.
func (uc *HighlightUsecase) GetUserData(ctx context.Context, userID string) (*domain.UserData, error) {
	return uc.users.Get(ctx, userID)
}
