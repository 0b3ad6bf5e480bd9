// Package store implements the per-feed SQLite storage engine (C4): one
// STRICT table per feed file, content-addressed by Uid, with insert/
// select-all/predicate-delete operations, generalised down to axol's
// single results table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/karlicoss/axol/internal/core"
)

// Mode selects how Open connects to the feed's SQLite file.
type Mode int

const (
	// Writable creates the results table if missing and allows Insert/Delete.
	Writable Mode = iota
	// ReadOnly opens with the SQLite read-only URI flag; the file must
	// already exist.
	ReadOnly
)

// Row is one (crawl timestamp, uid, raw bytes) record as stored or returned
// by the store's operations.
type Row struct {
	Ts   core.CrawlTimestamp
	Uid  core.Uid
	Data core.RawRecord
}

// Store is one feed's SQLite-backed results table.
type Store struct {
	db   *sql.DB
	path string
	mode Mode
	log  *slog.Logger
}

// Open connects to the SQLite file at path. Writable mode ensures the
// schema exists; ReadOnly mode requires the file to already exist and
// rejects Insert/Delete. Every writer transaction is opened with
// BEGIN IMMEDIATE (via the _txlock=immediate DSN parameter) to serialize
// concurrent writers; readers rely on SQLite's own MVCC.
func Open(path string, mode Mode, log *slog.Logger) (*Store, error) {
	var params []string
	if mode == ReadOnly {
		params = append(params, "mode=ro")
	} else {
		params = append(params, "_txlock=immediate")
	}
	dsn := "file:" + path
	if len(params) > 0 {
		dsn += "?" + strings.Join(params, "&")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One feed, one writer: avoid SQLITE_BUSY storms from the stdlib pool
	// opening extra connections for a single-file store.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: journal_mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: busy_timeout: %w", err)
	}

	s := &Store{db: db, path: path, mode: mode, log: log}
	if mode == Writable {
		if err := s.createSchema(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		crawl_timestamp_utc INTEGER NOT NULL,
		uid                 TEXT    NOT NULL UNIQUE,
		data                BLOB    NOT NULL
	) STRICT`)
	if err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

// Insert deduplicates pairs against both itself and the existing table,
// writes a single CrawlTimestamp shared by every new row, and returns the
// newly-inserted rows (even when dry is true, in which case no write
// occurs). pairs containing a repeated Uid is a caller contract violation
// and aborts before any write.
func (s *Store) Insert(ctx context.Context, pairs []core.Pair, dry bool) ([]Row, error) {
	if s.mode == ReadOnly {
		return nil, fmt.Errorf("store: insert on read-only store %s", s.path)
	}

	seenInCall := make(map[core.Uid]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seenInCall[p.Uid]; dup {
			return nil, fmt.Errorf("store: duplicate uid %q within one insert call", p.Uid)
		}
		seenInCall[p.Uid] = struct{}{}
	}

	now := core.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	existing := make(map[core.Uid]struct{})
	rows, err := tx.QueryContext(ctx, "SELECT uid FROM results")
	if err != nil {
		return nil, fmt.Errorf("store: select existing uids: %w", err)
	}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan existing uid: %w", err)
		}
		existing[core.Uid(uid)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var toInsert []core.Pair
	result := make([]Row, 0, len(pairs))
	for _, p := range pairs {
		if _, already := existing[p.Uid]; already {
			continue
		}
		toInsert = append(toInsert, p)
		result = append(result, Row{Ts: now, Uid: p.Uid, Data: p.Data})
	}

	if !dry && len(toInsert) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO results(crawl_timestamp_utc, uid, data) VALUES (?, ?, ?)")
		if err != nil {
			return nil, fmt.Errorf("store: prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range toInsert {
			if _, err := stmt.ExecContext(ctx, int64(now), string(p.Uid), []byte(p.Data)); err != nil {
				return nil, fmt.Errorf("store: insert uid %q: %w", p.Uid, err)
			}
		}
	}

	if !dry {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("store: commit insert: %w", err)
		}
	}

	s.log.Info("insert", "path", s.path, "new", len(result), "dry", dry)
	return result, nil
}

// SelectAll streams every row ordered by (crawl_timestamp_utc, uid), the
// canonical read order for feed().
func (s *Store) SelectAll(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT crawl_timestamp_utc, uid, data FROM results ORDER BY crawl_timestamp_utc, uid")
	if err != nil {
		return nil, fmt.Errorf("store: select_all: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var ts int64
		var uid string
		var data []byte
		if err := rows.Scan(&ts, &uid, &data); err != nil {
			return nil, fmt.Errorf("store: select_all scan: %w", err)
		}
		out = append(out, Row{Ts: core.CrawlTimestamp(ts), Uid: core.Uid(uid), Data: core.RawRecord(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.log.Info("select_all", "path", s.path, "rows", len(out))
	return out, nil
}

// Delete binds predicate as a SQLite scalar user-defined function named
// "predicate" and evaluates it inside the database: a SELECT first
// identifies matching rows, then (unless dry) a DELETE using the same
// predicate removes them within the same transaction. The deleted row count
// is asserted equal to the pre-selected count.
func (s *Store) Delete(ctx context.Context, predicate func(core.RawRecord) bool, dry bool) ([]Row, error) {
	if s.mode == ReadOnly {
		return nil, fmt.Errorf("store: delete on read-only store %s", s.path)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: acquire conn: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*sqlite3.Conn)
		if !ok {
			return fmt.Errorf("store: unexpected driver connection type %T", driverConn)
		}
		return c.CreateFunction("predicate", 1, sqlite3.DETERMINISTIC, func(sqlCtx sqlite3.Context, args ...sqlite3.Value) {
			sqlCtx.ResultBool(predicate(core.RawRecord(args[0].RawBlob())))
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: bind predicate function: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT crawl_timestamp_utc, uid, data FROM results WHERE predicate(data) ORDER BY crawl_timestamp_utc, uid")
	if err != nil {
		return nil, fmt.Errorf("store: select matching: %w", err)
	}
	var matched []Row
	for rows.Next() {
		var ts int64
		var uid string
		var data []byte
		if err := rows.Scan(&ts, &uid, &data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan matching: %w", err)
		}
		matched = append(matched, Row{Ts: core.CrawlTimestamp(ts), Uid: core.Uid(uid), Data: core.RawRecord(data)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if !dry {
		res, err := tx.ExecContext(ctx, "DELETE FROM results WHERE predicate(data)")
		if err != nil {
			return nil, fmt.Errorf("store: delete matching: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("store: rows affected: %w", err)
		}
		if int(n) != len(matched) {
			return nil, fmt.Errorf("store: matched %d rows but deleted %d", len(matched), n)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("store: commit delete: %w", err)
		}
	}

	s.log.Info("delete", "path", s.path, "matched", len(matched), "dry", dry)
	return matched, nil
}
