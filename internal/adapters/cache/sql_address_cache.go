package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-planner-service/internal/platform/obs"
	"strings"
)

// SQLAddressCache maps coordinate keys to reverse-geocoded display names.
// The same table layout serves SQLite and Postgres; only the placeholder
// dialect differs.
type SQLAddressCache struct {
	DB       *sql.DB
	getQuery string
	putQuery string
}

func NewSqliteAddressCache(db *sql.DB) *SQLAddressCache {
	return &SQLAddressCache{
		DB:       db,
		getQuery: `SELECT name FROM address_cache WHERE coord_key = ?;`,
		putQuery: `INSERT OR REPLACE INTO address_cache (coord_key, name) VALUES (?, ?);`,
	}
}

func NewPostgresAddressCache(db *sql.DB) *SQLAddressCache {
	return &SQLAddressCache{
		DB:       db,
		getQuery: `SELECT name FROM address_cache WHERE coord_key = $1;`,
		putQuery: `
		INSERT INTO address_cache (coord_key, name) VALUES ($1, $2)
		ON CONFLICT (coord_key) DO UPDATE SET name = EXCLUDED.name;
		`,
	}
}

func (s *SQLAddressCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "address.cache.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("address cache: db is nil")
	}

	var name string
	err = s.DB.QueryRowContext(ctx, s.getQuery, key).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get address cache key=%q: %w", key, err)
	}

	return name, true, nil
}

func (s *SQLAddressCache) Put(ctx context.Context, key string, name string) error {
	if s.DB == nil {
		return errors.New("address cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert address cache: empty key")
	}

	if _, err := s.DB.ExecContext(ctx, s.putQuery, key, name); err != nil {
		return fmt.Errorf("insert address cache key=%q: %w", key, err)
	}

	return nil
}
