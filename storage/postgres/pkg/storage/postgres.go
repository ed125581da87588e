package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	yzstorage "github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const uniqueViolation = "23505"

// Schema creates the objects table. Spec and status are kept as text so the
// database never interprets them.
const Schema = `CREATE TABLE IF NOT EXISTS objects (
	id        UUID PRIMARY KEY,
	kind      TEXT NOT NULL,
	namespace TEXT NOT NULL,
	name      TEXT NOT NULL,
	labels    TEXT[] NOT NULL DEFAULT '{}',
	version   BIGINT NOT NULL DEFAULT 0,
	spec      TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL DEFAULT ''
)`

const columns = `id::text, kind, namespace, name, labels, version, spec, status`

// postgresStorage relies on the database for atomicity: update is a single
// conditional statement, so no process level locking is needed.
type postgresStorage struct {
	yzstorage.Counters

	pool *pgxpool.Pool

	// config contains storage configuration
	config yzstorage.Config
}

// NewPostgresStorage connects to databaseURL and makes sure the schema exists.
func NewPostgresStorage(ctx context.Context, cfg *yzstorage.FactoryConfig, config yzstorage.Config) (yzstorage.Backend, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.Performance.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.Performance.MaxConnections
	}
	if cfg.Performance.MaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.Performance.MaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s := &postgresStorage{pool: pool, config: config}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	config.Logger.V(1).Info("connected to postgres", "host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database)
	return s, nil
}

// New is the factory constructor for the postgres backend.
func New(ctx context.Context, cfg *yzstorage.FactoryConfig, config yzstorage.Config) (yzstorage.Backend, error) {
	return NewPostgresStorage(ctx, cfg, config)
}

// EnsureSchema creates the objects table if it does not exist.
func (s *postgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Name returns the name of this storage backend
func (s *postgresStorage) Name() string {
	return "postgres"
}

func scanObject(row pgx.CollectableRow) (yzstorage.Object, error) {
	var (
		obj          yzstorage.Object
		spec, status string
	)
	err := row.Scan(
		&obj.Metadata.ID,
		&obj.Metadata.Kind,
		&obj.Metadata.Namespace,
		&obj.Metadata.Name,
		&obj.Metadata.Labels,
		&obj.Metadata.Version,
		&spec,
		&status,
	)
	if err != nil {
		return yzstorage.Object{}, err
	}
	if len(obj.Metadata.Labels) == 0 {
		obj.Metadata.Labels = nil
	}
	if spec != "" {
		obj.Spec = []byte(spec)
	}
	if status != "" {
		obj.Status = []byte(status)
	}
	return obj, nil
}

func labels(obj yzstorage.Object) []string {
	if obj.Metadata.Labels == nil {
		return []string{}
	}
	return obj.Metadata.Labels
}

// where renders the non-empty filter fields as a conjunction of placeholders.
func where(filter yzstorage.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, column+" = $"+strconv.Itoa(len(args)))
	}
	add("id::text", filter.ID)
	add("kind", filter.Kind)
	add("namespace", filter.Namespace)
	add("name", filter.Name)

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *postgresStorage) queryOne(ctx context.Context, sql string, args ...any) (yzstorage.Object, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return yzstorage.Object{}, err
	}
	return pgx.CollectExactlyOneRow(rows, scanObject)
}

// Get returns the object stored under id
func (s *postgresStorage) Get(ctx context.Context, id string) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}

	obj, err := s.queryOne(ctx, `SELECT `+columns+` FROM objects WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}
	if err != nil {
		return yzstorage.Object{}, s.Observe(fmt.Errorf("failed to get object %s: %w", id, err))
	}
	return obj, s.Observe(nil)
}

// List returns every object matching filter
func (s *postgresStorage) List(ctx context.Context, filter yzstorage.Filter) ([]yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return nil, s.Observe(err)
	}

	clause, args := where(filter)
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM objects`+clause+` ORDER BY namespace, name, id`, args...)
	if err != nil {
		return nil, s.Observe(fmt.Errorf("failed to list objects: %w", err))
	}

	out, err := pgx.CollectRows(rows, scanObject)
	if err != nil {
		return nil, s.Observe(fmt.Errorf("failed to read objects: %w", err))
	}
	if out == nil {
		out = make([]yzstorage.Object, 0)
	}
	return out, s.Observe(nil)
}

// Create inserts a new object unless its id is already taken
func (s *postgresStorage) Create(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	prepared, err := yzstorage.PrepareCreate(obj)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	created, err := s.queryOne(ctx,
		`INSERT INTO objects (id, kind, namespace, name, labels, version, spec, status)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7) RETURNING `+columns,
		prepared.Metadata.ID,
		prepared.Metadata.Kind,
		prepared.Metadata.Namespace,
		prepared.Metadata.Name,
		labels(prepared),
		string(prepared.Spec),
		string(prepared.Status),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return yzstorage.Object{}, s.Observe(v1.NewAlreadyExists(prepared.Metadata.Kind, prepared.Metadata.ID))
	}
	if err != nil {
		return yzstorage.Object{}, s.Observe(fmt.Errorf("failed to insert object: %w", err))
	}

	s.config.Logger.V(1).Info("created object", "object", created.String(), "id", created.Metadata.ID)
	return created, s.Observe(nil)
}

// Update writes obj in one conditional statement. When no row qualifies a
// follow-up probe tells a missing object from a stale version.
func (s *postgresStorage) Update(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	id := obj.Metadata.ID
	if _, err := uuid.Parse(id); err != nil {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound(obj.Metadata.Kind, id))
	}

	updated, err := s.queryOne(ctx,
		`UPDATE objects SET labels = $3, spec = $4, status = $5, version = version + 1
		 WHERE id = $1 AND version <= $2 RETURNING `+columns,
		id, obj.Metadata.Version, labels(obj), string(obj.Spec), string(obj.Status),
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return yzstorage.Object{}, s.Observe(s.explainMiss(ctx, obj))
	}
	if err != nil {
		return yzstorage.Object{}, s.Observe(fmt.Errorf("failed to update object %s: %w", id, err))
	}

	s.config.Logger.V(1).Info("updated object", "object", updated.String(), "id", id,
		"version", updated.Metadata.Version)
	return updated, s.Observe(nil)
}

func (s *postgresStorage) explainMiss(ctx context.Context, obj yzstorage.Object) error {
	var (
		kind   string
		stored int64
	)
	err := s.pool.QueryRow(ctx, `SELECT kind, version FROM objects WHERE id = $1`, obj.Metadata.ID).
		Scan(&kind, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return v1.NewNotFound(obj.Metadata.Kind, obj.Metadata.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to probe object %s: %w", obj.Metadata.ID, err)
	}
	return v1.NewConflict(kind, obj.Metadata.ID, stored, obj.Metadata.Version)
}

// Delete removes the object and returns the value it had
func (s *postgresStorage) Delete(ctx context.Context, id string) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}

	deleted, err := s.queryOne(ctx, `DELETE FROM objects WHERE id = $1 RETURNING `+columns, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}
	if err != nil {
		return yzstorage.Object{}, s.Observe(fmt.Errorf("failed to delete object %s: %w", id, err))
	}

	s.config.Logger.V(1).Info("deleted object", "object", deleted.String(), "id", id)
	return deleted, s.Observe(nil)
}

// Count returns the number of objects matching filter
func (s *postgresStorage) Count(ctx context.Context, filter yzstorage.Filter) (int64, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return 0, err
	}

	clause, args := where(filter)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM objects`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count objects: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity
func (s *postgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Metrics returns the operation counters
func (s *postgresStorage) Metrics() yzstorage.BackendMetrics {
	return s.Snapshot(s.Name())
}

// Close releases all pooled connections
func (s *postgresStorage) Close() error {
	s.pool.Close()
	return nil
}

var _ yzstorage.Backend = (*postgresStorage)(nil)
