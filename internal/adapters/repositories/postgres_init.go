package repositories

import "database/sql"

// Initialize the Postgres database schema.
func InitPostgresSchema(db *sql.DB) error {
	return execSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS route_sets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		document JSONB NOT NULL
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
		document JSONB NOT NULL
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
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL
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
