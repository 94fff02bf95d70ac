package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entry (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL
)`

// SQLStore keeps entries in a single kv_entry table. It works against
// SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq).
type SQLStore struct {
	db      *sql.DB
	dialect string

	getQuery    string
	setQuery    string
	removeQuery string
}

// NewSQLStore opens dsn with driver ("sqlite" or "postgres"), pings it and
// creates the table if missing.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: %s store needs a dsn", ErrStore, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStore, driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps an in-memory database alive and serialises writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrStore, driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrStore, err)
	}

	return newSQLStore(db, driver), nil
}

func newSQLStore(db *sql.DB, dialect string) *SQLStore {
	s := &SQLStore{db: db, dialect: dialect}
	s.getQuery = s.rebind(`SELECT body FROM kv_entry WHERE name = ?`)
	s.setQuery = s.rebind(`INSERT INTO kv_entry (name, body) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET body = excluded.body`)
	s.removeQuery = s.rebind(`DELETE FROM kv_entry WHERE name = ?`)
	return s
}

// rebind turns ? placeholders into $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Get selects the body for key.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrStore, key, err)
	}
	return body, true, nil
}

// Set upserts key in one statement.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.setQuery, key, value); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStore, key, err)
	}
	return nil
}

// Remove deletes key.
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.removeQuery, key); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrStore, key, err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
