package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Placeholder dialects understood by SQLRouteRepository.
const (
	DialectSqlite   = "sqlite"
	DialectPostgres = "postgres"
)

// SQL-backed implementation of the RouteSetRepository and HeldBackRepository
// ports. Each route set is stored as one JSON document next to the columns
// needed for filtering and ordering.
type SQLRouteRepository struct {
	DB      *sql.DB
	dialect string
}

func NewSqliteRouteRepository(db *sql.DB) *SQLRouteRepository {
	return &SQLRouteRepository{DB: db, dialect: DialectSqlite}
}

func NewPostgresRouteRepository(db *sql.DB) *SQLRouteRepository {
	return &SQLRouteRepository{DB: db, dialect: DialectPostgres}
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (s *SQLRouteRepository) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLRouteRepository) Create(ctx context.Context, set *domain.RouteSet) (_ string, err error) {
	defer obs.Time(ctx, "routes.repo.Create")(&err)

	if s.DB == nil {
		return "", errors.New("sql route repository: DB is nil")
	}

	doc, err := json.Marshal(NewRouteSetDocument(set))
	if err != nil {
		return "", fmt.Errorf("create route set: encode document: %w", err)
	}

	id := uuid.NewString()
	query := s.rebind(`
	INSERT INTO route_sets (
		id,
		user_id,
		completed,
		created_at,
		document
	)
	VALUES (?, ?, ?, ?, ?);
	`)
	if _, err := s.DB.ExecContext(ctx, query, id, set.UserID, set.Completed, set.GeneratedAt.UnixNano(), string(doc)); err != nil {
		return "", fmt.Errorf("create route set: insert: %w", err)
	}

	return id, nil
}

func (s *SQLRouteRepository) Get(ctx context.Context, id string) (_ *domain.RouteSet, err error) {
	defer obs.Time(ctx, "routes.repo.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	var raw string
	query := s.rebind(`SELECT document FROM route_sets WHERE id = ?;`)
	err = s.DB.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("route set %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get route set %q: query: %w", id, err)
	}

	return decodeRouteSet(id, raw)
}

func (s *SQLRouteRepository) Replace(ctx context.Context, set *domain.RouteSet) (err error) {
	defer obs.Time(ctx, "routes.repo.Replace")(&err)

	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}

	doc, err := json.Marshal(NewRouteSetDocument(set))
	if err != nil {
		return fmt.Errorf("replace route set: encode document: %w", err)
	}

	query := s.rebind(`
	UPDATE route_sets
	SET user_id = ?,
		completed = ?,
		document = ?
	WHERE id = ?;
	`)
	res, err := s.DB.ExecContext(ctx, query, set.UserID, set.Completed, string(doc), set.ID)
	if err != nil {
		return fmt.Errorf("replace route set %q: update: %w", set.ID, err)
	}

	return requireAffected(res, "route set", set.ID)
}

func (s *SQLRouteRepository) List(ctx context.Context, userID string, activeOnly bool) (_ []*domain.RouteSet, err error) {
	defer obs.Time(ctx, "routes.repo.List")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	query := `
	SELECT
		id,
		document
	FROM route_sets
	WHERE user_id = ?
	`
	args := []any{userID}
	if activeOnly {
		query += ` AND completed = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at, id;`

	rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list route sets: query route_sets table: %w", err)
	}
	defer rows.Close()

	sets := make([]*domain.RouteSet, 0, 16)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("list route sets: scan row: %w", err)
		}

		set, err := decodeRouteSet(id, raw)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list route sets: row iteration: %w", err)
	}

	return sets, nil
}

func (s *SQLRouteRepository) Delete(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "routes.repo.Delete")(&err)

	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, s.rebind(`DELETE FROM route_sets WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete route set %q: %w", id, err)
	}

	return requireAffected(res, "route set", id)
}

func (s *SQLRouteRepository) GetHeldBack(ctx context.Context, routeSetID string) (*domain.HeldBackLocations, error) {
	if s.DB == nil {
		return nil, errors.New("sql route repository: DB is nil")
	}

	var raw string
	query := s.rebind(`SELECT document FROM held_back_locations WHERE routes_id = ?;`)
	err := s.DB.QueryRowContext(ctx, query, routeSetID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("held-back locations for %q not found", routeSetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get held-back locations %q: query: %w", routeSetID, err)
	}

	var doc HeldBackDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("get held-back locations %q: decode document: %w", routeSetID, err)
	}

	return doc.ToDomain(), nil
}

func (s *SQLRouteRepository) SaveHeldBack(ctx context.Context, h *domain.HeldBackLocations) error {
	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}

	doc, err := json.Marshal(NewHeldBackDocument(h))
	if err != nil {
		return fmt.Errorf("save held-back locations: encode document: %w", err)
	}

	query := s.rebind(`
	INSERT INTO held_back_locations (
		routes_id,
		user_id,
		document
	)
	VALUES (?, ?, ?)
	ON CONFLICT (routes_id) DO UPDATE
	SET user_id = EXCLUDED.user_id,
		document = EXCLUDED.document;
	`)
	if _, err := s.DB.ExecContext(ctx, query, h.RouteSetID, h.UserID, string(doc)); err != nil {
		return fmt.Errorf("save held-back locations %q: %w", h.RouteSetID, err)
	}

	return nil
}

func (s *SQLRouteRepository) DeleteHeldBack(ctx context.Context, routeSetID string) error {
	if s.DB == nil {
		return errors.New("sql route repository: DB is nil")
	}

	query := s.rebind(`DELETE FROM held_back_locations WHERE routes_id = ?;`)
	if _, err := s.DB.ExecContext(ctx, query, routeSetID); err != nil {
		return fmt.Errorf("delete held-back locations %q: %w", routeSetID, err)
	}

	return nil
}

func decodeRouteSet(id, raw string) (*domain.RouteSet, error) {
	var doc RouteSetDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("route set %q: decode document: %w", id, err)
	}
	return doc.ToDomain(id), nil
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %q: rows affected: %w", what, id, err)
	}
	if n == 0 {
		return domain.NotFoundf("%s %q not found", what, id)
	}
	return nil
}
