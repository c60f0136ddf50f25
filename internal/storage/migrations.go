package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Participants table
			CREATE TABLE IF NOT EXISTS participants (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				course TEXT NOT NULL,
				semester INTEGER NOT NULL CHECK (semester >= 1 AND semester <= 10),
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE(name COLLATE NOCASE, course)
			);

			-- Groups table
			CREATE TABLE IF NOT EXISTS groups (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				color TEXT NOT NULL,
				position INTEGER NOT NULL,
				created_at DATETIME NOT NULL
			);

			-- Group membership. A participant may belong to at most one
			-- group; deleting a group or a participant removes the row.
			CREATE TABLE IF NOT EXISTS group_members (
				id TEXT PRIMARY KEY,
				group_id TEXT NOT NULL,
				participant_id TEXT NOT NULL UNIQUE,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE,
				FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_participants_course ON participants(course);
			CREATE INDEX IF NOT EXISTS idx_participants_created_at ON participants(created_at);
			CREATE INDEX IF NOT EXISTS idx_groups_position ON groups(position);
			CREATE INDEX IF NOT EXISTS idx_group_members_group ON group_members(group_id);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.Exec(m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
