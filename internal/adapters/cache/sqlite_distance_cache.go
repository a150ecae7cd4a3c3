package cache

import (
	"context"
	"database/sql"
	"fmt"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
)

// SQLite backed cache for origin->destination distance results.
// Keys are coordinate keys produced by domain.Coordinates.Key.
type SqliteDistanceCache struct {
	DB *sql.DB
}

func NewSqliteDistanceCache(db *sql.DB) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db}
}

const sqliteUpsertLeg = `
	INSERT OR REPLACE INTO distance_cache (
        origin,
        destination,
        distance_meters,
        duration_seconds
    )
    VALUES (?, ?, ?, ?)
`

// GetMany returns the cached legs from origin to each known destination.
func (s *SqliteDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "legs.sqlite.GetMany")(&err)

	if err := checkLegOrigin(s.DB, origin); err != nil {
		return nil, err
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	args := make([]any, 0, 1+len(uniq))
	args = append(args, origin)
	for _, d := range uniq {
		args = append(args, d)
	}

	q := fmt.Sprintf(`
	SELECT
        destination,
        distance_meters,
        duration_seconds
    FROM distance_cache
    WHERE origin = ?
        AND destination IN (%s);
	`, placeholders(len(uniq)))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("leg cache lookup from %s: %w", origin, err)
	}
	defer rows.Close()

	return scanLegs(rows, len(uniq))
}

// PutMany replaces every leg leaving origin in one transaction.
func (s *SqliteDistanceCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) (err error) {
	defer obs.Time(ctx, "legs.sqlite.PutMany")(&err)

	if err := checkLegOrigin(s.DB, origin); err != nil {
		return err
	}
	return storeLegs(ctx, s.DB, sqliteUpsertLeg, origin, results)
}
