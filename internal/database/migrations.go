package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Migration represents a database migration. {{id}} in a statement expands to
// the driver's auto-increment primary key column type.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

const schemaVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users_table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id {{id}},
				email TEXT NOT NULL UNIQUE,
				hashed_password TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version: 2,
		Name:    "create_user_words_table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS user_words (
				id {{id}},
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				word TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				UNIQUE (user_id, word)
			)`,
		},
	},
	{
		Version: 3,
		Name:    "create_inspirations_table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS inspirations (
				id {{id}},
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				content TEXT NOT NULL,
				platform TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_inspirations_user_id ON inspirations(user_id)`,
		},
	},
	{
		Version: 4,
		Name:    "create_assist_jobs_table",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS assist_jobs (
				id TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind TEXT NOT NULL,
				status TEXT NOT NULL,
				result TEXT NOT NULL DEFAULT '',
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_assist_jobs_status ON assist_jobs(status)`,
		},
	},
}

func (db *DB) expand(stmt string) string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	return strings.ReplaceAll(stmt, "{{id}}", id)
}

// Migrate runs all pending migrations
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err := db.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	slog.Debug("current schema version", "version", currentVersion)

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		for _, stmt := range migration.Statements {
			if _, err := tx.ExecContext(ctx, db.expand(stmt)); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
			}
		}

		if _, err := tx.ExecContext(ctx, db.rebind("INSERT INTO schema_version (version) VALUES (?)"), migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration", "version", migration.Version, "name", migration.Name)
	}

	return nil
}
