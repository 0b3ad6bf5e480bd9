package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/karlicoss/axol/internal/core"
	"github.com/karlicoss/axol/internal/query"
	"github.com/karlicoss/axol/internal/store"
)

// fakeQuery is the sole Compilable[string] used by these tests: one query
// compiles to exactly one SearchQuery atom carrying its own text.
type fakeQuery string

func (q fakeQuery) Compile() []string { return []string{string(q)} }

// fakeAdapter serves a fixed, in-memory (uid -> raw) table per SearchQuery,
// exactly the shape the feed orchestrator expects from a real provider
// adapter, without any network or rate-limiter dependency.
type fakeAdapter struct {
	byQuery  map[string][]core.Pair
	searchErr map[string]error // sq -> error yielded instead of completing
}

func (a *fakeAdapter) Prefix() string { return "fake" }

func (a *fakeAdapter) Search(ctx context.Context, sq string, limit int) iter.Seq2[core.Pair, error] {
	return func(yield func(core.Pair, error) bool) {
		for _, p := range a.byQuery[sq] {
			if !yield(p, nil) {
				return
			}
		}
		if err, ok := a.searchErr[sq]; ok {
			yield(core.Pair{}, err)
		}
	}
}

func (a *fakeAdapter) Parse(data core.RawRecord) (string, error) {
	s := string(data)
	if s == "unparseable" {
		return "", errors.New("fake: cannot parse")
	}
	return s, nil
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFeed(t *testing.T, a *fakeAdapter, queries []fakeQuery, exclude ExcludeRaw) (*Feed[string, string], *store.Store) {
	t.Helper()
	qs := make([]query.Compilable[string], len(queries))
	for i, q := range queries {
		qs[i] = q
	}

	dbPath := filepath.Join(t.TempDir(), "fake.sqlite")
	f := New[string, string]("fake_feed", dbPath, qs, a, exclude, testLog())
	st, err := store.Open(dbPath, store.Writable, testLog())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return f, st
}

func TestSearchAllDedupesAcrossQueries(t *testing.T) {
	a := &fakeAdapter{byQuery: map[string][]core.Pair{
		"q1": {{Uid: core.MustUid("a"), Data: core.RawRecord("a")}, {Uid: core.MustUid("b"), Data: core.RawRecord("b")}},
		"q2": {{Uid: core.MustUid("b"), Data: core.RawRecord("b")}, {Uid: core.MustUid("c"), Data: core.RawRecord("c")}},
	}}
	f, _ := newTestFeed(t, a, []fakeQuery{"q1", "q2"}, nil)

	pairs, errs := f.SearchAll(context.Background(), 0)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 deduped pairs, got %d: %+v", len(pairs), pairs)
	}
}

// Exclude symmetry: an item a predicate excludes during SearchAll is also
// the item PruneDB removes once it has been persisted.
func TestExcludeSymmetryBetweenSearchAndPrune(t *testing.T) {
	a := &fakeAdapter{byQuery: map[string][]core.Pair{
		"q1": {{Uid: core.MustUid("keep"), Data: core.RawRecord("keep")}, {Uid: core.MustUid("spam"), Data: core.RawRecord("spam")}},
	}}
	exclude := func(data core.RawRecord) (bool, error) { return string(data) == "spam", nil }
	f, st := newTestFeed(t, a, []fakeQuery{"q1"}, exclude)

	ctx := context.Background()
	results, errs := f.Crawl(ctx, st, 0, false)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 1 || results[0].Uid != "keep" {
		t.Fatalf("expected only %q to survive crawl, got %+v", "keep", results)
	}

	// Bypass the excluder to write "spam" directly, simulating a row that
	// was stored before the exclude rule existed (late exclude update).
	if _, err := st.Insert(ctx, []core.Pair{{Uid: core.MustUid("spam"), Data: core.RawRecord("spam")}}, false); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	pruned, err := f.PruneDB(ctx, st, false)
	if err != nil {
		t.Fatalf("PruneDB: %v", err)
	}
	if len(pruned) != 1 || pruned[0].Uid != "spam" {
		t.Fatalf("expected prune to remove %q, got %+v", "spam", pruned)
	}

	remaining, err := f.Read(ctx, st)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Uid != "keep" {
		t.Fatalf("expected only %q left after prune, got %+v", "keep", remaining)
	}
}

// Exclude fail-open: a predicate that errors (or panics) never drops an
// item; it is kept and the error is swallowed into a warning log.
func TestExcludeFailsOpenOnErrorAndPanic(t *testing.T) {
	boom := errors.New("boom")
	errExclude := func(core.RawRecord) (bool, error) { return true, boom }
	a := &fakeAdapter{byQuery: map[string][]core.Pair{
		"q1": {{Uid: core.MustUid("a"), Data: core.RawRecord("a")}},
	}}
	f, _ := newTestFeed(t, a, []fakeQuery{"q1"}, errExclude)
	pairs, errs := f.SearchAll(context.Background(), 0)
	if len(errs) != 0 {
		t.Fatalf("unexpected search errors: %v", errs)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected the item to survive an erroring exclude predicate, got %+v", pairs)
	}

	panicExclude := func(core.RawRecord) (bool, error) { panic("unexpected") }
	f2, _ := newTestFeed(t, a, []fakeQuery{"q1"}, panicExclude)
	pairs2, errs2 := f2.SearchAll(context.Background(), 0)
	if len(errs2) != 0 {
		t.Fatalf("unexpected search errors: %v", errs2)
	}
	if len(pairs2) != 1 {
		t.Fatalf("expected the item to survive a panicking exclude predicate, got %+v", pairs2)
	}
}

// A search pass that errors mid-stream is recorded but does not abort the
// rest of the fan-out.
func TestSearchErrorIsolatesOneQuery(t *testing.T) {
	a := &fakeAdapter{
		byQuery: map[string][]core.Pair{
			"q2": {{Uid: core.MustUid("ok"), Data: core.RawRecord("ok")}},
		},
		searchErr: map[string]error{"q1": errors.New("provider down")},
	}
	f, _ := newTestFeed(t, a, []fakeQuery{"q1", "q2"}, nil)
	pairs, errs := f.SearchAll(context.Background(), 0)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one recorded error, got %v", errs)
	}
	if len(pairs) != 1 || pairs[0].Uid != "ok" {
		t.Fatalf("expected the other query's results to survive, got %+v", pairs)
	}
}

// Parse error isolation: one item's parse failure becomes that item's
// Result.Err; it never aborts the batch or corrupts neighboring results.
func TestCrawlIsolatesParseErrors(t *testing.T) {
	a := &fakeAdapter{byQuery: map[string][]core.Pair{
		"q1": {
			{Uid: core.MustUid("good"), Data: core.RawRecord("good")},
			{Uid: core.MustUid("bad"), Data: core.RawRecord("unparseable")},
		},
	}}
	f, st := newTestFeed(t, a, []fakeQuery{"q1"}, nil)

	results, errs := f.Crawl(context.Background(), st, 0, false)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("expected both rows to be inserted and returned, got %d", len(results))
	}
	var sawGoodOK, sawBadErr bool
	for _, r := range results {
		if r.Uid == "good" {
			sawGoodOK = r.Err == nil
		}
		if r.Uid == "bad" {
			sawBadErr = r.Err != nil
		}
	}
	if !sawGoodOK || !sawBadErr {
		t.Fatalf("expected isolated parse outcomes, got %+v", results)
	}
}

// Crawl then feed, at scale: a feed's Read must return exactly the set of
// uids a prior Crawl inserted.
func TestCrawlThenReadRoundTripsManyUids(t *testing.T) {
	const n = 100
	byQuery := map[string][]core.Pair{}
	var pairs []core.Pair
	for i := 0; i < n; i++ {
		p := core.Pair{Uid: core.MustUid(fmt.Sprintf("item-%03d", i)), Data: core.RawRecord(fmt.Sprintf("v%d", i))}
		pairs = append(pairs, p)
	}
	byQuery["q1"] = pairs
	a := &fakeAdapter{byQuery: byQuery}
	f, st := newTestFeed(t, a, []fakeQuery{"q1"}, nil)

	if _, errs := f.Crawl(context.Background(), st, 0, false); len(errs) != 0 {
		t.Fatalf("unexpected crawl errors: %v", errs)
	}

	results, err := f.Read(context.Background(), st)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(results) != n {
		t.Fatalf("expected %d rows, got %d", n, len(results))
	}
	seen := make(map[core.Uid]bool, n)
	for _, r := range results {
		seen[r.Uid] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct uids, got %d", n, len(seen))
	}
}

// Compile determinism: CompileAll over the same queries in the same order
// always yields the same SearchQuery sequence.
func TestSearchQueriesAreDeterministic(t *testing.T) {
	a := &fakeAdapter{byQuery: map[string][]core.Pair{}}
	f, _ := newTestFeed(t, a, []fakeQuery{"q1", "q2", "q1"}, nil)
	e := Erase[string, string](f)
	first := e.SearchQueries()
	second := e.SearchQueries()
	if len(first) != 2 {
		t.Fatalf("expected duplicate query collapsed away, got %v", first)
	}
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("expected repeated calls to agree: %v vs %v", first, second)
	}
}

// PruneDB is a no-op on a feed with no exclude predicate.
func TestPruneDBNoopWithoutExcluder(t *testing.T) {
	a := &fakeAdapter{byQuery: map[string][]core.Pair{
		"q1": {{Uid: core.MustUid("a"), Data: core.RawRecord("a")}},
	}}
	f, st := newTestFeed(t, a, []fakeQuery{"q1"}, nil)
	if _, errs := f.Crawl(context.Background(), st, 0, false); len(errs) != 0 {
		t.Fatalf("crawl: %v", errs)
	}
	pruned, err := f.PruneDB(context.Background(), st, false)
	if err != nil {
		t.Fatalf("PruneDB: %v", err)
	}
	if len(pruned) != 0 {
		t.Fatalf("expected no-op prune, got %+v", pruned)
	}
}
