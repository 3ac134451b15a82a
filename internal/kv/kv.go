// Package kv is a small keyed-record substrate on top of SQLite. Each
// collection is a table created on first use; records carry an opaque
// document, an optional binary payload and a creation time used for
// newest-first listing.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type DB struct {
	db *sql.DB

	mu    sync.Mutex
	ready map[string]bool
}

// Record is one stored row. Payload is nil for text-only records.
type Record struct {
	Key       string
	Value     []byte
	Payload   []byte
	CreatedAt time.Time
}

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &DB{db: db, ready: make(map[string]bool)}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Checkpoint folds the WAL back into the main database file.
func (d *DB) Checkpoint(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Collection returns a handle on the named collection. The backing table
// is created lazily by the first operation.
func (d *DB) Collection(name string) *Collection {
	return &Collection{db: d, name: name}
}

func (d *DB) ensure(ctx context.Context, name string) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready[name] {
		return nil
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kv_%s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		payload BLOB,
		created_at_ns INTEGER NOT NULL
	);`, name)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_kv_%s_created ON kv_%s(created_at_ns);`, name, name)
	if _, err := d.db.ExecContext(ctx, idx); err != nil {
		return err
	}
	d.ready[name] = true
	log.Debug("kv collection ready", "collection", name)
	return nil
}

type Collection struct {
	db   *DB
	name string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) table() string { return "kv_" + c.name }

func (c *Collection) fail(op, key string, err error) error {
	return &StoreError{Op: op, Collection: c.name, Key: key, Err: err}
}

// Put inserts or replaces the record with r.Key.
func (c *Collection) Put(ctx context.Context, r Record) error {
	return c.PutMany(ctx, []Record{r})
}

// PutMany upserts all records in one transaction.
func (c *Collection) PutMany(ctx context.Context, rs []Record) error {
	if err := c.db.ensure(ctx, c.name); err != nil {
		return c.fail("open", "", err)
	}
	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return c.fail("put", "", err)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (key, value, payload, created_at_ns) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, payload = excluded.payload, created_at_ns = excluded.created_at_ns`, c.table())
	for _, r := range rs {
		if r.Key == "" {
			_ = tx.Rollback()
			return c.fail("put", "", errors.New("empty key"))
		}
		if r.Value == nil {
			r.Value = []byte{}
		}
		if _, err := tx.ExecContext(ctx, stmt, r.Key, r.Value, r.Payload, r.CreatedAt.UnixNano()); err != nil {
			_ = tx.Rollback()
			return c.fail("put", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return c.fail("put", "", err)
	}
	return nil
}

func (c *Collection) Get(ctx context.Context, key string) (Record, error) {
	if err := c.db.ensure(ctx, c.name); err != nil {
		return Record{}, c.fail("open", key, err)
	}
	row := c.db.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT key, value, payload, created_at_ns FROM %s WHERE key = ?`, c.table()), key)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, c.fail("get", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, c.fail("get", key, err)
	}
	return r, nil
}

// GetAll returns every record, newest CreatedAt first. Ties keep key order.
func (c *Collection) GetAll(ctx context.Context) ([]Record, error) {
	if err := c.db.ensure(ctx, c.name); err != nil {
		return nil, c.fail("open", "", err)
	}
	rows, err := c.db.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT key, value, payload, created_at_ns FROM %s ORDER BY created_at_ns DESC, key ASC`, c.table()))
	if err != nil {
		return nil, c.fail("getall", "", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, c.fail("getall", "", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, c.fail("getall", "", err)
	}
	return out, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Collection) Delete(ctx context.Context, key string) error {
	if err := c.db.ensure(ctx, c.name); err != nil {
		return c.fail("open", key, err)
	}
	if _, err := c.db.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.table()), key); err != nil {
		return c.fail("delete", key, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		r  Record
		ns int64
	)
	if err := s.Scan(&r.Key, &r.Value, &r.Payload, &ns); err != nil {
		return Record{}, err
	}
	r.CreatedAt = time.Unix(0, ns).UTC()
	return r, nil
}
