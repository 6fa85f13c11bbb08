package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lumenbot/lumen/internal/biz/domain"
	"github.com/lumenbot/lumen/internal/biz/repo"
)

// highlightRepo implements the durable highlight repository
type highlightRepo struct {
	db         *sql.DB
	maxPerUser int
}

// Add inserts a highlight. The per-owner limit and the duplicate check
// run inside one transaction with the insert.
func (r *highlightRepo) Add(ctx context.Context, h *domain.Highlight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM highlights WHERE user_id = ?`, h.OwnerID,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to count highlights: %w", err)
	}
	if count >= r.maxPerUser {
		return repo.ErrHighlightLimit
	}

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM highlights WHERE user_id = ? AND pattern = ?`, h.OwnerID, h.Pattern,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check duplicate: %w", err)
	}
	if exists > 0 {
		return repo.ErrDuplicatePattern
	}

	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO highlights (user_id, pattern, is_regex, created_at)
		VALUES (?, ?, ?, ?)
	`, h.OwnerID, h.Pattern, boolToInt(h.IsRegex), createdAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to insert highlight: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit highlight: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's highlights in creation order.
func (r *highlightRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Highlight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, pattern, is_regex, created_at
		FROM highlights
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	return scanHighlights(rows)
}

// Remove deletes a single (owner, pattern) row.
func (r *highlightRepo) Remove(ctx context.Context, ownerID, pattern string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM highlights WHERE user_id = ? AND pattern = ?`, ownerID, pattern)
	if err != nil {
		return fmt.Errorf("failed to remove highlight: %w", err)
	}
	return nil
}

// Clear removes all of the owner's highlights.
func (r *highlightRepo) Clear(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM highlights WHERE user_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear highlights: %w", err)
	}
	return result.RowsAffected()
}

// FetchAll returns every stored highlight, for cache rebuilds.
func (r *highlightRepo) FetchAll(ctx context.Context) ([]*domain.Highlight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, pattern, is_regex, created_at
		FROM highlights
		ORDER BY user_id, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all highlights: %w", err)
	}
	defer rows.Close()

	return scanHighlights(rows)
}

func scanHighlights(rows *sql.Rows) ([]*domain.Highlight, error) {
	var highlights []*domain.Highlight
	for rows.Next() {
		var h domain.Highlight
		var isRegex int
		var createdAt int64
		if err := rows.Scan(&h.OwnerID, &h.Pattern, &isRegex, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		h.IsRegex = isRegex != 0
		h.CreatedAt = time.Unix(0, createdAt)
		highlights = append(highlights, &h)
	}
	return highlights, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
