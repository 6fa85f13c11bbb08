package repo

import (
	"context"
	"errors"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// User-input errors surfaced synchronously to the requester. No state
// changes when one of these is returned.
var (
	ErrHighlightLimit   = errors.New("highlight limit reached")
	ErrDuplicatePattern = errors.New("duplicate pattern")
	ErrPatternTooShort  = errors.New("pattern too short")
	ErrPatternRejected  = errors.New("disallowed pattern")
)

// ErrStoreUnavailable indicates the durable store cannot be reached.
// Mutating commands are refused while it persists; the match engine
// keeps running on the last cache snapshot.
var ErrStoreUnavailable = errors.New("store unavailable")

// HighlightRepo is the durable highlight repository interface.
// Ordering is stable by creation time so list indices stay meaningful
// between calls.
type HighlightRepo interface {
	// Add inserts a highlight. Returns ErrHighlightLimit if the owner
	// is at capacity and ErrDuplicatePattern if (owner, pattern)
	// already exists. Both checks run atomically with the insert.
	Add(ctx context.Context, h *domain.Highlight) error

	// ListByOwner returns the owner's highlights in creation order.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Highlight, error)

	// Remove deletes a single (owner, pattern) row.
	Remove(ctx context.Context, ownerID, pattern string) error

	// Clear deletes all of the owner's highlights and reports how many
	// were removed.
	Clear(ctx context.Context, ownerID string) (int64, error)

	// FetchAll returns every stored highlight, for cache rebuilds.
	FetchAll(ctx context.Context) ([]*domain.Highlight, error)
}

// UserDataRepo is the per-user preference repository interface. Rows
// are created lazily on first mutation; Get on an unknown user returns
// a zero-value record.
type UserDataRepo interface {
	Get(ctx context.Context, userID string) (*domain.UserData, error)
	SetBlock(ctx context.Context, userID, targetID string, add bool) error
	SetWhitelist(ctx context.Context, userID, guildID string, add bool) error
	SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error
}
