package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lumenbot/lumen/internal/biz/domain"
)

// userDataRepo implements the per-user preference repository. The
// blocks and whitelist columns hold JSON-encoded string arrays; set
// semantics are enforced here.
type userDataRepo struct {
	db *sql.DB
}

// Get returns the user's preference record, or a zero-value record if
// none exists yet. Rows are only created on first mutation.
func (r *userDataRepo) Get(ctx context.Context, userID string) (*domain.UserData, error) {
	var blocksJSON, whitelistJSON string
	var blacklisted int
	err := r.db.QueryRowContext(ctx, `
		SELECT blocks, whitelist, blacklisted FROM user_data WHERE user_id = ?
	`, userID).Scan(&blocksJSON, &whitelistJSON, &blacklisted)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserData{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user data: %w", err)
	}

	ud := &domain.UserData{UserID: userID, Blacklisted: blacklisted != 0}
	if err := json.Unmarshal([]byte(blocksJSON), &ud.Blocks); err != nil {
		return nil, fmt.Errorf("failed to decode blocks: %w", err)
	}
	if err := json.Unmarshal([]byte(whitelistJSON), &ud.Whitelist); err != nil {
		return nil, fmt.Errorf("failed to decode whitelist: %w", err)
	}
	return ud, nil
}

// SetBlock adds or removes an identifier from the user's block list.
func (r *userDataRepo) SetBlock(ctx context.Context, userID, targetID string, add bool) error {
	return r.mutateSet(ctx, userID, "blocks", targetID, add)
}

// SetWhitelist adds or removes a guild from the user's whitelist.
func (r *userDataRepo) SetWhitelist(ctx context.Context, userID, guildID string, add bool) error {
	return r.mutateSet(ctx, userID, "whitelist", guildID, add)
}

// SetBlacklisted sets the feature-exclusion flag.
func (r *userDataRepo) SetBlacklisted(ctx context.Context, userID string, blacklisted bool) error {
	if err := r.ensureRow(ctx, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_data SET blacklisted = ? WHERE user_id = ?`, boolToInt(blacklisted), userID)
	if err != nil {
		return fmt.Errorf("failed to set blacklisted: %w", err)
	}
	return nil
}

// mutateSet performs an idempotent add/remove on a JSON array column
// inside one transaction.
func (r *userDataRepo) mutateSet(ctx context.Context, userID, column, value string, add bool) error {
	if err := r.ensureRow(ctx, userID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var encoded string
	query := fmt.Sprintf(`SELECT %s FROM user_data WHERE user_id = ?`, column)
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&encoded); err != nil {
		return fmt.Errorf("failed to read %s: %w", column, err)
	}

	var set []string
	if err := json.Unmarshal([]byte(encoded), &set); err != nil {
		return fmt.Errorf("failed to decode %s: %w", column, err)
	}

	changed := false
	if add {
		if !containsString(set, value) {
			set = append(set, value)
			changed = true
		}
	} else {
		for i, v := range set {
			if v == value {
				set = append(set[:i], set[i+1:]...)
				changed = true
				break
			}
		}
	}
	if !changed {
		return nil
	}

	updated, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", column, err)
	}
	update := fmt.Sprintf(`UPDATE user_data SET %s = ? WHERE user_id = ?`, column)
	if _, err := tx.ExecContext(ctx, update, string(updated), userID); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s update: %w", column, err)
	}
	return nil
}

// ensureRow lazily creates the user's row.
func (r *userDataRepo) ensureRow(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_data (user_id) VALUES (?)`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user row: %w", err)
	}
	return nil
}

func containsString(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
