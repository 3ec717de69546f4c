package addrcache

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the Postgres store uses. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore keeps the cache in a Postgres table.
type PostgresStore struct {
	entries
	pool Pool
}

// NewPostgres connects a pool to connString.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "addrcache: postgres parse config")
	}
	cfg.MaxConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "addrcache: postgres connect")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{entries: newEntries(), pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS address_cache (
	address   TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	cached_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "addrcache: postgres migrate")
}

// Load reads every row into memory.
func (s *PostgresStore) Load(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT address, name FROM address_cache`)
	if err != nil {
		return eris.Wrap(err, "addrcache: postgres load")
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var addr, name string
		if err := rows.Scan(&addr, &name); err != nil {
			return eris.Wrap(err, "addrcache: postgres scan")
		}
		data[addr] = name
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "addrcache: postgres rows")
	}

	s.replace(data)
	return nil
}

// Flush upserts the dirty entries in one transaction.
func (s *PostgresStore) Flush(ctx context.Context) error {
	pending := s.pending()
	if len(pending) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "addrcache: postgres begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, e := range pending {
		_, err := tx.Exec(ctx, `
			INSERT INTO address_cache (address, name, cached_at)
			VALUES ($1, $2, now())
			ON CONFLICT (address) DO UPDATE SET
				name = EXCLUDED.name,
				cached_at = now()`,
			e.key, e.value,
		)
		if err != nil {
			return eris.Wrapf(err, "addrcache: postgres upsert %q", e.key)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "addrcache: postgres commit")
	}
	s.markClean()
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
