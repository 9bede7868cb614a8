// Package cache memoizes data source fetches in a SQLite database inside
// the session runtime directory, so repeated GETs against the same source
// skip re-reading and re-flattening the bundle.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/huntflow-lang/huntflow/datasource"
	"github.com/huntflow-lang/huntflow/symtable"
)

const schema = `
CREATE TABLE IF NOT EXISTS fetches (
	uri        TEXT NOT NULL,
	sco_type   TEXT NOT NULL,
	rows_json  TEXT NOT NULL,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (uri, sco_type)
)`

// Store is a (uri, sco_type) keyed fetch cache backed by SQLite.
type Store struct {
	conn *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening fetch cache: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing fetch cache: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Get returns the cached rows for a fetch, if present.
func (s *Store) Get(uri, scoType string) ([]symtable.Row, bool, error) {
	var blob string
	err := s.conn.QueryRow(
		"SELECT rows_json FROM fetches WHERE uri = ? AND sco_type = ?",
		uri, scoType,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading fetch cache: %w", err)
	}

	var rows []symtable.Row
	if err := json.Unmarshal([]byte(blob), &rows); err != nil {
		return nil, false, fmt.Errorf("decoding cached rows: %w", err)
	}
	return rows, true, nil
}

// Put stores the rows for a fetch, replacing any previous entry.
func (s *Store) Put(uri, scoType string, rows []symtable.Row) error {
	blob, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding rows for cache: %w", err)
	}
	_, err = s.conn.Exec(
		"INSERT OR REPLACE INTO fetches (uri, sco_type, rows_json, fetched_at) VALUES (?, ?, ?, ?)",
		uri, scoType, string(blob), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing fetch cache: %w", err)
	}
	return nil
}

// Wrap layers the cache over an inner data source. On a miss the inner
// source is fetched and the result recorded; cache write failures are not
// fatal to the fetch.
func Wrap(inner datasource.Interface, store *Store) datasource.Interface {
	return &cachingSource{inner: inner, store: store}
}

type cachingSource struct {
	inner datasource.Interface
	store *Store
}

func (c *cachingSource) Fetch(ctx context.Context, scoType, uri string) ([]symtable.Row, error) {
	if rows, ok, err := c.store.Get(uri, scoType); err == nil && ok {
		return rows, nil
	}
	rows, err := c.inner.Fetch(ctx, scoType, uri)
	if err != nil {
		return nil, err
	}
	_ = c.store.Put(uri, scoType, rows)
	return rows, nil
}
