// Package feed implements the feed orchestrator (C5): it binds a query
// compiler, a provider adapter and a storage engine into the search_all /
// crawl / feed / prune_db pipelines. Its concurrency model groups work by
// provider, running sequentially within a provider; the defensive-exclude
// wrapping guards against a predicate that errors or panics.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/karlicoss/axol/internal/core"
	"github.com/karlicoss/axol/internal/provider"
	"github.com/karlicoss/axol/internal/query"
	"github.com/karlicoss/axol/internal/store"
)

// queryNamePattern is the charset a feed's query_name component must match
// (spec §3): name == provider_prefix + "_" + query_name.
var queryNamePattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

// Name validates queryName against the query-name charset and returns the
// feed name prefix + "_" + queryName. Adapter packages and user
// configuration modules should build feed names through this constructor
// rather than concatenating the strings themselves, so a malformed
// queryName is caught at feed-declaration time rather than surfacing as an
// opaque registry lookup failure later.
func Name(prefix, queryName string) (string, error) {
	if !queryNamePattern.MatchString(queryName) {
		return "", fmt.Errorf("feed: query name %q must match %s", queryName, queryNamePattern.String())
	}
	return prefix + "_" + queryName, nil
}

// ExcludeRaw is a pure predicate over raw record bytes. It may return an
// error (or panic) to signal "could not evaluate"; both are treated
// fail-open by the feed (the item is kept).
type ExcludeRaw func(core.RawRecord) (bool, error)

// Result is one entity-or-error yielded by crawl/feed/prune_db.
type Result[E any] struct {
	Ts     core.CrawlTimestamp
	Uid    core.Uid
	Entity E
	Err    error
}

// Feed binds a name, a storage path, an ordered list of user queries, a
// provider adapter and an optional derived excluder — (name,
// provider_prefix, queries, storage_path, exclude_predicate?), with
// provider_prefix recovered from Adapter.Prefix() rather than duplicated as
// a field. S is the provider's SearchQuery atom, E its parsed Entity type.
type Feed[S comparable, E any] struct {
	Name       string
	DBPath     string
	Queries    []query.Compilable[S]
	Adapter    provider.Adapter[S, E]
	ExcludeRaw ExcludeRaw // nil means "no exclusion"
	Log        *slog.Logger
}

// New constructs a Feed with an already-raw-bytes excluder (or nil).
func New[S comparable, E any](name, dbPath string, queries []query.Compilable[S], adapter provider.Adapter[S, E], exclude ExcludeRaw, baseLog *slog.Logger) *Feed[S, E] {
	return &Feed[S, E]{
		Name:       name,
		DBPath:     dbPath,
		Queries:    queries,
		Adapter:    adapter,
		ExcludeRaw: exclude,
		Log:        baseLog.With("feed", name),
	}
}

// NewWithParsedExclude derives a raw-bytes excluder by parsing each record
// and applying a predicate over the parsed entity. Parse failures inside
// the derived excluder are treated as "not excluded" via the same
// fail-open path as any other exclude error.
func NewWithParsedExclude[S comparable, E any](name, dbPath string, queries []query.Compilable[S], adapter provider.Adapter[S, E], exclude func(E) bool, baseLog *slog.Logger) *Feed[S, E] {
	raw := func(data core.RawRecord) (bool, error) {
		e, err := adapter.Parse(data)
		if err != nil {
			return false, fmt.Errorf("exclude: parse for predicate: %w", err)
		}
		return exclude(e), nil
	}
	return New(name, dbPath, queries, adapter, raw, baseLog)
}

// excluded evaluates the derived excluder defensively: a returned error or
// a recovered panic is logged and treated as "not excluded" — fail-open,
// so a broken rule never silently deletes data.
func (f *Feed[S, E]) excluded(data core.RawRecord) bool {
	if f.ExcludeRaw == nil {
		return false
	}
	var matched bool
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("exclude predicate panicked: %v", r)
			}
		}()
		matched, err = f.ExcludeRaw(data)
	}()
	if err != nil {
		f.Log.Warn("exclude predicate error, treating as not excluded", "err", err)
		return false
	}
	return matched
}

// SearchAll compiles the feed's queries, invokes adapter.Search for each
// distinct SearchQuery, dedupes uids across all of them, applies the
// derived excluder, and returns the surviving pairs plus any per-query
// errors encountered (a failing search pass ends that pass only; the rest
// of the fan-out still runs).
func (f *Feed[S, E]) SearchAll(ctx context.Context, limit int) ([]core.Pair, []error) {
	compiled := query.CompileAll(f.Queries)
	handled := make(map[core.Uid]struct{})
	var out []core.Pair
	var errs []error

	for _, sq := range compiled {
		for pair, err := range f.Adapter.Search(ctx, sq, limit) {
			if err != nil {
				f.Log.Error("search pass failed", "query", fmt.Sprintf("%+v", sq), "err", err)
				errs = append(errs, fmt.Errorf("search %+v: %w", sq, err))
				break
			}
			if _, dup := handled[pair.Uid]; dup {
				continue
			}
			handled[pair.Uid] = struct{}{}
			if f.excluded(pair.Data) {
				continue
			}
			out = append(out, pair)
		}
	}
	return out, errs
}

func wrapParseErr(err error, uid core.Uid) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("parse uid %q: %w", uid, err)
}

// Crawl runs search_all, inserts the results (sorted by uid to stabilise
// ordering), and re-parses only the newly inserted rows so that insertion
// commits before any parsing happens.
func (f *Feed[S, E]) Crawl(ctx context.Context, st *store.Store, limit int, dry bool) ([]Result[E], []error) {
	pairs, errs := f.SearchAll(ctx, limit)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Uid < pairs[j].Uid })

	inserted, err := st.Insert(ctx, pairs, dry)
	if err != nil {
		return nil, append(errs, err)
	}

	results := make([]Result[E], 0, len(inserted))
	for _, row := range inserted {
		e, perr := f.Adapter.Parse(row.Data)
		results = append(results, Result[E]{Ts: row.Ts, Uid: row.Uid, Entity: e, Err: wrapParseErr(perr, row.Uid)})
	}
	return results, errs
}

// Read implements feed(): select_all, apply the excluder, warn once if any
// rows were excluded (hinting at prune), then parse-on-read.
func (f *Feed[S, E]) Read(ctx context.Context, st *store.Store) ([]Result[E], error) {
	rows, err := st.SelectAll(ctx)
	if err != nil {
		return nil, err
	}

	excludedCount := 0
	results := make([]Result[E], 0, len(rows))
	for _, row := range rows {
		if f.excluded(row.Data) {
			excludedCount++
			continue
		}
		e, perr := f.Adapter.Parse(row.Data)
		results = append(results, Result[E]{Ts: row.Ts, Uid: row.Uid, Entity: e, Err: wrapParseErr(perr, row.Uid)})
	}
	if excludedCount > 0 {
		f.Log.Warn("feed has excluded rows still on disk; run prune to remove them", "excluded", excludedCount)
	}
	return results, nil
}

// PruneDB implements prune_db(): a no-op when the feed carries no
// excluder, otherwise a destructive sweep pushed down into the database as
// a bound SQL predicate.
func (f *Feed[S, E]) PruneDB(ctx context.Context, st *store.Store, dry bool) ([]Result[E], error) {
	if f.ExcludeRaw == nil {
		f.Log.Info("nothing to do: feed has no exclude predicate")
		return nil, nil
	}

	rows, err := st.Delete(ctx, func(data core.RawRecord) bool { return f.excluded(data) }, dry)
	if err != nil {
		return nil, err
	}

	results := make([]Result[E], 0, len(rows))
	for _, row := range rows {
		e, perr := f.Adapter.Parse(row.Data)
		results = append(results, Result[E]{Ts: row.Ts, Uid: row.Uid, Entity: e, Err: wrapParseErr(perr, row.Uid)})
	}
	return results, nil
}
