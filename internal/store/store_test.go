package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/karlicoss/axol/internal/core"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openWritable(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.sqlite")
	s, err := Open(path, Writable, testLog())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func pair(uid, data string) core.Pair {
	return core.Pair{Uid: core.MustUid(uid), Data: core.RawRecord(data)}
}

// Uid uniqueness: inserting the same uid twice across two calls yields no
// second row.
func TestInsertUidUniqueAcrossCalls(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, []core.Pair{pair("a", "v1")}, false); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	rows, err := s.Insert(ctx, []core.Pair{pair("a", "v2")}, false)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no new rows for a repeated uid, got %+v", rows)
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 1 || string(all[0].Data) != "v1" {
		t.Fatalf("expected the first write to win, got %+v", all)
	}
}

// Crawl idempotence: inserting the identical pair set twice only ever
// produces one row per uid, and the second call reports zero new rows.
func TestInsertIdempotent(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()
	pairs := []core.Pair{pair("a", "1"), pair("b", "2"), pair("c", "3")}

	first, err := s.Insert(ctx, pairs, false)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 new rows, got %d", len(first))
	}

	second, err := s.Insert(ctx, pairs, false)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected 0 new rows on repeat, got %d", len(second))
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 total rows, got %d", len(all))
	}
}

// A single insert call shares one CrawlTimestamp across every row it
// writes, and a later call's timestamp never precedes an earlier one's.
func TestInsertSharesTimestampAndIsMonotonic(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	rows1, err := s.Insert(ctx, []core.Pair{pair("a", "1"), pair("b", "2")}, false)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if rows1[0].Ts != rows1[1].Ts {
		t.Fatalf("expected one insert call to share a timestamp, got %v and %v", rows1[0].Ts, rows1[1].Ts)
	}

	rows2, err := s.Insert(ctx, []core.Pair{pair("c", "3")}, false)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if rows2[0].Ts < rows1[0].Ts {
		t.Fatalf("expected non-decreasing crawl timestamps, got %v then %v", rows1[0].Ts, rows2[0].Ts)
	}
}

// A duplicate uid within a single call is a caller contract violation: the
// whole call is rejected before any row is written (atomic insert under
// failure).
func TestInsertRejectsDuplicateWithinCall(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, []core.Pair{pair("a", "1"), pair("a", "2")}, false)
	if err == nil {
		t.Fatal("expected an error for a duplicate uid within one call")
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no rows written after a rejected call, got %+v", all)
	}
}

// dry=true computes the would-be-inserted rows without writing them.
func TestInsertDryRunWritesNothing(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, []core.Pair{pair("a", "1")}, true)
	if err != nil {
		t.Fatalf("dry insert: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected dry run to report 1 would-be row, got %d", len(rows))
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected dry run to write nothing, got %+v", all)
	}
}

// SelectAll returns rows ordered by (crawl_timestamp_utc, uid), ties broken
// by uid.
func TestSelectAllOrdersByTimestampThenUid(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, []core.Pair{pair("z", "1"), pair("a", "2")}, false); err != nil {
		t.Fatalf("insert: %v", err)
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 2 || all[0].Uid != "a" || all[1].Uid != "z" {
		t.Fatalf("expected uid-ordered tie break [a z], got %+v", all)
	}
}

// Delete removes and reports exactly the rows the predicate matches (its
// own matched-vs-deleted count check passing), and leaves the other rows.
func TestDeleteMatchesPredicate(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, []core.Pair{pair("keep", "keep"), pair("drop", "drop")}, false); err != nil {
		t.Fatalf("insert: %v", err)
	}

	deleted, err := s.Delete(ctx, func(data core.RawRecord) bool { return string(data) == "drop" }, false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleted) != 1 || deleted[0].Uid != "drop" {
		t.Fatalf("expected to delete only %q, got %+v", "drop", deleted)
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 1 || all[0].Uid != "keep" {
		t.Fatalf("expected only %q to remain, got %+v", "keep", all)
	}
}

// Delete with dry=true reports matches without removing any row (prune
// dry vs real).
func TestDeleteDryRunDeletesNothing(t *testing.T) {
	s := openWritable(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, []core.Pair{pair("drop", "drop")}, false); err != nil {
		t.Fatalf("insert: %v", err)
	}

	matched, err := s.Delete(ctx, func(core.RawRecord) bool { return true }, true)
	if err != nil {
		t.Fatalf("Delete dry: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("expected 1 match reported, got %d", len(matched))
	}

	all, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected dry delete to remove nothing, got %+v", all)
	}
}

// A ReadOnly store rejects writes outright.
func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.sqlite")
	w, err := Open(path, Writable, testLog())
	if err != nil {
		t.Fatalf("Open writable: %v", err)
	}
	w.Close()

	r, err := Open(path, ReadOnly, testLog())
	if err != nil {
		t.Fatalf("Open read-only: %v", err)
	}
	defer r.Close()

	if _, err := r.Insert(context.Background(), []core.Pair{pair("a", "1")}, false); err == nil {
		t.Fatal("expected Insert to fail on a read-only store")
	}
	if _, err := r.Delete(context.Background(), func(core.RawRecord) bool { return true }, false); err == nil {
		t.Fatal("expected Delete to fail on a read-only store")
	}
}
