package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
)

// SQLDistanceCache keeps semi-depot leg distances in Postgres. Origin and
// destination are coordinate keys from domain.Coordinates.Key, so a leg
// resolved for one user's depot is reused by any route sharing that point.
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

const pgUpsertLeg = `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
`

// GetMany returns the cached legs from origin to each known destination.
// Destinations without a row are absent from the result.
func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "legs.pg.GetMany")(&err)

	if err := checkLegOrigin(s.DB, origin); err != nil {
		return nil, err
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = $1 AND destination = ANY($2::text[]);
	`, origin, uniq)
	if err != nil {
		return nil, fmt.Errorf("leg cache lookup from %s: %w", origin, err)
	}
	defer rows.Close()

	return scanLegs(rows, len(uniq))
}

// PutMany upserts every leg leaving origin in one transaction.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "legs.pg.PutMany")(&err)

	if err := checkLegOrigin(s.DB, origin); err != nil {
		return err
	}
	return storeLegs(ctx, s.DB, pgUpsertLeg, origin, results)
}

func checkLegOrigin(db *sql.DB, origin string) error {
	if db == nil {
		return errors.New("leg cache: no database handle")
	}
	if strings.TrimSpace(origin) == "" {
		return errors.New("leg cache: origin coordinate key is blank")
	}
	return nil
}

// scanLegs reads (destination, meters, seconds) rows into a map keyed by
// destination coordinate key.
func scanLegs(rows *sql.Rows, sizeHint int) (map[string]ports.DistanceResult, error) {
	out := make(map[string]ports.DistanceResult, sizeHint)
	for rows.Next() {
		var dest string
		var leg ports.DistanceResult
		if err := rows.Scan(&dest, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return nil, fmt.Errorf("leg cache: scan: %w", err)
		}
		out[dest] = leg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leg cache: rows: %w", err)
	}
	return out, nil
}

// storeLegs writes results with the dialect-specific upsert statement.
// A blank destination aborts the whole batch.
func storeLegs(
	ctx context.Context,
	db *sql.DB,
	upsert string,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("leg cache: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("leg cache: prepare: %w", err)
	}
	defer stmt.Close()

	for dest, leg := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("leg cache: blank destination for origin %s", origin)
		}
		if _, err := stmt.ExecContext(ctx, origin, dest, leg.DistanceMeters, leg.DurationSeconds); err != nil {
			return fmt.Errorf("leg cache: store %s->%s: %w", origin, dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("leg cache: commit: %w", err)
	}
	return nil
}
