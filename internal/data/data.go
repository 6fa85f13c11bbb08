package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumenbot/lumen/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// Repositories contains all repositories
type Repositories struct {
	Highlights repo.HighlightRepo
	Users      repo.UserDataRepo

	db *sql.DB
}

// NewRepositories opens the highlight database and creates all
// repositories. maxPerUser bounds how many highlights one owner may
// store; the bound is enforced inside the insert transaction.
func NewRepositories(dbPath string, maxPerUser int) (*Repositories, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create highlights table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS highlights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			pattern TEXT NOT NULL,
			is_regex INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			UNIQUE(user_id, pattern)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create highlights table: %w", err)
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_highlights_user ON highlights(user_id, created_at)`)

	// Create user data table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_data (
			user_id TEXT PRIMARY KEY,
			blocks TEXT NOT NULL DEFAULT '[]',
			whitelist TEXT NOT NULL DEFAULT '[]',
			blacklisted INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create user_data table: %w", err)
	}

	fmt.Println("[Store] Database initialized")
	return &Repositories{
		Highlights: &highlightRepo{db: db, maxPerUser: maxPerUser},
		Users:      &userDataRepo{db: db},
		db:         db,
	}, nil
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.db.Close()
}
