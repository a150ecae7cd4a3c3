package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	return execSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS route_sets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		document TEXT NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_route_sets_user_created
	ON route_sets(user_id, created_at);
	`,
		`
	CREATE TABLE IF NOT EXISTS held_back_locations (
		routes_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		document TEXT NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`,
		`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lat REAL NOT NULL,
        lng REAL NOT NULL
    );
	`,
		`
	CREATE TABLE IF NOT EXISTS address_cache (
		coord_key TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`,
	})
}

func execSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
