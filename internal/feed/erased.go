package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karlicoss/axol/internal/core"
	"github.com/karlicoss/axol/internal/query"
	"github.com/karlicoss/axol/internal/store"
)

// AnyResult is Result[E] with its Entity erased to any, so the CLI (which
// must handle feeds of every provider's distinct Entity type side by side
// in its feeds/crawl/stats commands) can operate over a single slice type
// without itself being generic.
type AnyResult struct {
	Ts     core.CrawlTimestamp
	Uid    core.Uid
	Entity any
	Err    error
}

// Any is the type-erased view of a Feed[S, E] that the CLI commands and the
// feed registry (C6) operate over. Generic type parameters never leak past
// this boundary: every *Feed[S, E] implements it via Erase.
type Any interface {
	Name() string
	DBPath() string
	Prefix() string
	Log() *slog.Logger
	Open(mode store.Mode) (*store.Store, error)
	// SearchQueries returns the compiled, deduped SearchQuery fan-out as
	// printable strings, with no network calls — backs `feeds --search`.
	SearchQueries() []string
	SearchAll(ctx context.Context, limit int) ([]core.Pair, []error)
	Crawl(ctx context.Context, st *store.Store, limit int, dry bool) ([]AnyResult, []error)
	Read(ctx context.Context, st *store.Store) ([]AnyResult, error)
	PruneDB(ctx context.Context, st *store.Store, dry bool) ([]AnyResult, error)
}

// erased wraps a concrete *Feed[S, E] to implement Any.
type erased[S comparable, E any] struct {
	f *Feed[S, E]
}

// Erase returns the type-erased view of f.
func Erase[S comparable, E any](f *Feed[S, E]) Any { return erased[S, E]{f} }

func (e erased[S, E]) Name() string        { return e.f.Name }
func (e erased[S, E]) DBPath() string       { return e.f.DBPath }
func (e erased[S, E]) Prefix() string       { return e.f.Adapter.Prefix() }
func (e erased[S, E]) Log() *slog.Logger    { return e.f.Log }
func (e erased[S, E]) Open(mode store.Mode) (*store.Store, error) {
	return store.Open(e.f.DBPath, mode, e.f.Log)
}

func (e erased[S, E]) SearchQueries() []string {
	compiled := query.CompileAll(e.f.Queries)
	out := make([]string, 0, len(compiled))
	for _, sq := range compiled {
		out = append(out, fmt.Sprintf("%+v", sq))
	}
	return out
}

func (e erased[S, E]) SearchAll(ctx context.Context, limit int) ([]core.Pair, []error) {
	return e.f.SearchAll(ctx, limit)
}

func eraseResults[E any](rs []Result[E]) []AnyResult {
	out := make([]AnyResult, 0, len(rs))
	for _, r := range rs {
		out = append(out, AnyResult{Ts: r.Ts, Uid: r.Uid, Entity: r.Entity, Err: r.Err})
	}
	return out
}

func (e erased[S, E]) Crawl(ctx context.Context, st *store.Store, limit int, dry bool) ([]AnyResult, []error) {
	rs, errs := e.f.Crawl(ctx, st, limit, dry)
	return eraseResults(rs), errs
}

func (e erased[S, E]) Read(ctx context.Context, st *store.Store) ([]AnyResult, error) {
	rs, err := e.f.Read(ctx, st)
	if err != nil {
		return nil, err
	}
	return eraseResults(rs), nil
}

func (e erased[S, E]) PruneDB(ctx context.Context, st *store.Store, dry bool) ([]AnyResult, error) {
	rs, err := e.f.PruneDB(ctx, st, dry)
	if err != nil {
		return nil, err
	}
	return eraseResults(rs), nil
}
