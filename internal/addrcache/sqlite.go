package addrcache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the cache in a SQLite table using modernc.org/sqlite.
type SQLiteStore struct {
	entries
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "addrcache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "addrcache: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{entries: newEntries(), db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS address_cache (
	address   TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "addrcache: sqlite migrate")
}

// Load reads every row into memory.
func (s *SQLiteStore) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, name FROM address_cache`)
	if err != nil {
		return eris.Wrap(err, "addrcache: sqlite load")
	}
	defer rows.Close() //nolint:errcheck

	data := make(map[string]string)
	for rows.Next() {
		var addr, name string
		if err := rows.Scan(&addr, &name); err != nil {
			return eris.Wrap(err, "addrcache: sqlite scan")
		}
		data[addr] = name
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "addrcache: sqlite rows")
	}

	s.replace(data)
	return nil
}

// Flush upserts the dirty entries in one transaction.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	pending := s.pending()
	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "addrcache: sqlite begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO address_cache (address, name, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET name = excluded.name, cached_at = excluded.cached_at`)
	if err != nil {
		return eris.Wrap(err, "addrcache: sqlite prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, e := range pending {
		if _, err := stmt.ExecContext(ctx, e.key, e.value, now); err != nil {
			return eris.Wrapf(err, "addrcache: sqlite upsert %q", e.key)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "addrcache: sqlite commit")
	}
	s.markClean()
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
